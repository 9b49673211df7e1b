package service

import (
	"context"
	"fmt"
	"strings"

	"storyloom/internal/access"
	"storyloom/internal/models"
	"storyloom/internal/repository"
)

type FolderService struct {
	folders       repository.FolderRepository
	dialogues     repository.DialogueRepository
	conversations repository.ConversationRepository
	policy        Authorizer
}

type CreateFolderInput struct {
	UserID      uint
	ProjectID   uint
	Kind        string
	Name        string
	Description string
	ParentID    *uint
}

// FolderPatch lists the fields to change. Nil fields are left alone; when
// SetParent is true ParentID is applied, nil meaning the root.
type FolderPatch struct {
	Name        *string
	Description *string
	SetParent   bool
	ParentID    *uint
}

type UpdateFolderInput struct {
	UserID   uint
	FolderID uint
	Patch    FolderPatch
}

type MoveFolderInput struct {
	UserID   uint
	FolderID uint
	ParentID *uint
}

type ListTreeInput struct {
	UserID    uint
	ProjectID uint
	Kind      string // empty lists every kind
}

// MoveItemInput files a dialogue or conversation. FolderID nil means root.
type MoveItemInput struct {
	UserID   uint
	ItemID   uint
	FolderID *uint
}

// FolderDetail is a folder with its parent and everything filed directly in it.
type FolderDetail struct {
	Folder        *models.Folder        `json:"folder"`
	Parent        *models.Folder        `json:"parent"`
	Children      []models.Folder       `json:"children"`
	Dialogues     []models.Dialogue     `json:"dialogues"`
	Conversations []models.Conversation `json:"conversations"`
}

func NewFolderService(
	folders repository.FolderRepository,
	dialogues repository.DialogueRepository,
	conversations repository.ConversationRepository,
	policy Authorizer,
) *FolderService {
	return &FolderService{
		folders:       folders,
		dialogues:     dialogues,
		conversations: conversations,
		policy:        policy,
	}
}

func (s *FolderService) CreateFolder(ctx context.Context, in CreateFolderInput) (*models.Folder, error) {
	if _, err := s.policy.Authorize(ctx, in.UserID, in.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	name, err := requireName(in.Name)
	if err != nil {
		return nil, err
	}
	kind, err := models.ParseFolderKind(in.Kind)
	if err != nil {
		return nil, err
	}

	folder := &models.Folder{
		ProjectID:   in.ProjectID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Kind:        kind,
	}
	if in.ParentID != nil {
		if _, err := s.parentFor(ctx, folder, *in.ParentID); err != nil {
			return nil, err
		}
		folder.ParentID = in.ParentID
	}

	if err := s.folders.Create(ctx, folder); err != nil {
		return nil, err
	}
	return s.folders.GetByID(ctx, folder.ID)
}

func (s *FolderService) GetFolder(ctx context.Context, userID, folderID uint) (*FolderDetail, error) {
	folder, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, userID, folder.ProjectID, access.CapabilityRead); err != nil {
		return nil, err
	}

	detail := &FolderDetail{Folder: folder}
	if folder.ParentID != nil {
		parent, err := s.folders.GetByID(ctx, *folder.ParentID)
		if err != nil && !models.IsNotFound(err) {
			return nil, err
		}
		detail.Parent = parent
	}
	if detail.Children, err = s.folders.ListChildren(ctx, folder.ID); err != nil {
		return nil, err
	}
	if detail.Dialogues, detail.Conversations, err = s.folders.ListContents(ctx, folder.ID); err != nil {
		return nil, err
	}
	return detail, nil
}

// UpdateFolder applies a patch covering rename, describe and reparent.
func (s *FolderService) UpdateFolder(ctx context.Context, in UpdateFolderInput) (*models.Folder, error) {
	folder, err := s.folders.GetByID(ctx, in.FolderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, folder.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}

	if in.Patch.Name != nil {
		if folder.Name, err = requireName(*in.Patch.Name); err != nil {
			return nil, err
		}
	}
	if in.Patch.Description != nil {
		folder.Description = strings.TrimSpace(*in.Patch.Description)
	}
	if in.Patch.SetParent {
		if in.Patch.ParentID != nil {
			if err := s.checkReparent(ctx, folder, *in.Patch.ParentID); err != nil {
				return nil, err
			}
		}
		folder.ParentID = in.Patch.ParentID
	}

	if err := s.folders.Update(ctx, folder); err != nil {
		return nil, err
	}
	return s.folders.GetByID(ctx, folder.ID)
}

// MoveFolder reparents a folder. ParentID nil moves it to the root.
func (s *FolderService) MoveFolder(ctx context.Context, in MoveFolderInput) (*models.Folder, error) {
	return s.UpdateFolder(ctx, UpdateFolderInput{
		UserID:   in.UserID,
		FolderID: in.FolderID,
		Patch:    FolderPatch{SetParent: true, ParentID: in.ParentID},
	})
}

// DeleteFolder removes a folder after promoting its children and content to
// its parent.
func (s *FolderService) DeleteFolder(ctx context.Context, userID, folderID uint) error {
	folder, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		return err
	}
	if _, err := s.policy.Authorize(ctx, userID, folder.ProjectID, access.CapabilityEditContent); err != nil {
		return err
	}
	return s.folders.DeleteAndRescue(ctx, folder)
}

// ListTree returns the project's folders with counts, grouped into trees.
func (s *FolderService) ListTree(ctx context.Context, in ListTreeInput) ([]*FolderNode, error) {
	if _, err := s.policy.Authorize(ctx, in.UserID, in.ProjectID, access.CapabilityRead); err != nil {
		return nil, err
	}

	var kind *models.FolderKind
	if strings.TrimSpace(in.Kind) != "" {
		parsed, err := models.ParseFolderKind(in.Kind)
		if err != nil {
			return nil, err
		}
		kind = &parsed
	}

	flat, err := s.folders.ListByProject(ctx, in.ProjectID, kind)
	if err != nil {
		return nil, err
	}
	return BuildFolderTree(flat), nil
}

func (s *FolderService) MoveDialogue(ctx context.Context, in MoveItemInput) (*models.Dialogue, error) {
	dialogue, err := s.dialogues.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, dialogue.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	if in.FolderID != nil {
		if _, err := folderForContent(ctx, s.folders, dialogue.ProjectID, *in.FolderID, models.FolderKindDialogue); err != nil {
			return nil, err
		}
	}

	if err := s.folders.SetDialogueFolder(ctx, dialogue.ID, in.FolderID); err != nil {
		return nil, err
	}
	dialogue.FolderID = in.FolderID
	return dialogue, nil
}

func (s *FolderService) MoveConversation(ctx context.Context, in MoveItemInput) (*models.Conversation, error) {
	conversation, err := s.conversations.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, conversation.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	if in.FolderID != nil {
		if _, err := folderForContent(ctx, s.folders, conversation.ProjectID, *in.FolderID, models.FolderKindSMS); err != nil {
			return nil, err
		}
	}

	if err := s.folders.SetConversationFolder(ctx, conversation.ID, in.FolderID); err != nil {
		return nil, err
	}
	conversation.FolderID = in.FolderID
	return conversation, nil
}

// parentFor loads parentID as a parent for folder. The parent must be in the
// same project and hold the same kind of content.
func (s *FolderService) parentFor(ctx context.Context, folder *models.Folder, parentID uint) (*models.Folder, error) {
	parent, err := s.folders.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.ProjectID != folder.ProjectID {
		return nil, models.NewIntegrityError("Parent folder belongs to another project")
	}
	if parent.Kind != folder.Kind {
		return nil, models.NewIntegrityError(fmt.Sprintf("Parent folder holds %s content, not %s", parent.Kind, folder.Kind))
	}
	return parent, nil
}

// checkReparent rejects a parent that is the folder itself or one of its
// descendants.
func (s *FolderService) checkReparent(ctx context.Context, folder *models.Folder, parentID uint) error {
	if parentID == folder.ID {
		return models.NewIntegrityError("A folder cannot be its own parent")
	}
	if _, err := s.parentFor(ctx, folder, parentID); err != nil {
		return err
	}

	kind := folder.Kind
	siblings, err := s.folders.ListByProject(ctx, folder.ProjectID, &kind)
	if err != nil {
		return err
	}
	if newFolderArena(siblings).createsCycle(folder.ID, parentID) {
		return models.NewIntegrityError("A folder cannot be moved into one of its own subfolders")
	}
	return nil
}
