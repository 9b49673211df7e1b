package service

import (
	"context"
	"fmt"
	"strings"

	"storyloom/internal/access"
	"storyloom/internal/models"
	"storyloom/internal/repository"
)

// DialogueService manages the dialogue graph: dialogues, their ordered lines
// with display bindings, and the choices linking dialogues together.
type DialogueService struct {
	dialogues repository.DialogueRepository
	folders   repository.FolderRepository
	cast      repository.CastRepository
	policy    Authorizer
}

type DialogueFields struct {
	Name            string
	Description     string
	FolderID        *uint
	BackgroundID    *uint
	IsStartDialogue bool
}

type CreateDialogueInput struct {
	UserID    uint
	ProjectID uint
	Dialogue  DialogueFields
}

// UpdateDialogueInput replaces every editable field of the dialogue.
type UpdateDialogueInput struct {
	UserID     uint
	DialogueID uint
	Dialogue   DialogueFields
}

// LineFields describes a line. Unset display fields are stored as null; the
// single-mode displayed character falls back to the speaker at read time.
type LineFields struct {
	CharacterID          *uint
	Text                 string
	Order                int
	DisplayMode          string
	DisplayedCharacterID *uint
	DisplayedMoodID      *uint
	LeftCharacterID      *uint
	LeftMoodID           *uint
	RightCharacterID     *uint
	RightMoodID          *uint
}

type CreateLineInput struct {
	UserID     uint
	DialogueID uint
	Line       LineFields
}

type UpdateLineInput struct {
	UserID uint
	LineID uint
	Line   LineFields
}

type ChoiceFields struct {
	Text           string
	NextDialogueID *uint
}

type CreateChoiceInput struct {
	UserID uint
	LineID uint
	Choice ChoiceFields
}

type UpdateChoiceInput struct {
	UserID   uint
	ChoiceID uint
	Choice   ChoiceFields
}

func NewDialogueService(
	dialogues repository.DialogueRepository,
	folders repository.FolderRepository,
	cast repository.CastRepository,
	policy Authorizer,
) *DialogueService {
	return &DialogueService{dialogues: dialogues, folders: folders, cast: cast, policy: policy}
}

func (s *DialogueService) CreateDialogue(ctx context.Context, in CreateDialogueInput) (*models.Dialogue, error) {
	if _, err := s.policy.Authorize(ctx, in.UserID, in.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	dialogue, err := s.validateDialogue(ctx, in.ProjectID, in.Dialogue)
	if err != nil {
		return nil, err
	}
	if err := s.dialogues.Create(ctx, dialogue); err != nil {
		return nil, err
	}
	return s.dialogues.GetWithLines(ctx, dialogue.ID)
}

// GetDialogue returns the dialogue with its background, lines and choices.
func (s *DialogueService) GetDialogue(ctx context.Context, userID, dialogueID uint) (*models.Dialogue, error) {
	dialogue, err := s.dialogues.GetWithLines(ctx, dialogueID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, userID, dialogue.ProjectID, access.CapabilityRead); err != nil {
		return nil, err
	}
	return dialogue, nil
}

func (s *DialogueService) ListDialogues(ctx context.Context, userID, projectID uint) ([]models.Dialogue, error) {
	if _, err := s.policy.Authorize(ctx, userID, projectID, access.CapabilityRead); err != nil {
		return nil, err
	}
	return s.dialogues.ListByProject(ctx, projectID)
}

func (s *DialogueService) UpdateDialogue(ctx context.Context, in UpdateDialogueInput) (*models.Dialogue, error) {
	existing, err := s.dialogues.GetByID(ctx, in.DialogueID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, existing.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	dialogue, err := s.validateDialogue(ctx, existing.ProjectID, in.Dialogue)
	if err != nil {
		return nil, err
	}
	dialogue.ID = existing.ID
	if err := s.dialogues.Update(ctx, dialogue); err != nil {
		return nil, err
	}
	return s.dialogues.GetWithLines(ctx, dialogue.ID)
}

// DeleteDialogue removes the dialogue with its lines and their choices.
// Choices elsewhere that lead to it are kept and surface as dangling on
// export.
func (s *DialogueService) DeleteDialogue(ctx context.Context, userID, dialogueID uint) error {
	dialogue, err := s.dialogues.GetByID(ctx, dialogueID)
	if err != nil {
		return err
	}
	if _, err := s.policy.Authorize(ctx, userID, dialogue.ProjectID, access.CapabilityEditContent); err != nil {
		return err
	}
	return s.dialogues.Delete(ctx, dialogueID)
}

func (s *DialogueService) validateDialogue(ctx context.Context, projectID uint, f DialogueFields) (*models.Dialogue, error) {
	name, err := requireName(f.Name)
	if err != nil {
		return nil, err
	}
	if f.FolderID != nil {
		if _, err := folderForContent(ctx, s.folders, projectID, *f.FolderID, models.FolderKindDialogue); err != nil {
			return nil, err
		}
	}
	if f.BackgroundID != nil {
		background, err := s.cast.GetBackground(ctx, *f.BackgroundID)
		if err != nil {
			return nil, err
		}
		if background.ProjectID != projectID {
			return nil, models.NewNotFoundError("Background", *f.BackgroundID)
		}
	}
	return &models.Dialogue{
		ProjectID:       projectID,
		FolderID:        f.FolderID,
		BackgroundID:    f.BackgroundID,
		Name:            name,
		Description:     strings.TrimSpace(f.Description),
		IsStartDialogue: f.IsStartDialogue,
	}, nil
}

func (s *DialogueService) CreateLine(ctx context.Context, in CreateLineInput) (*models.DialogueLine, error) {
	dialogue, err := s.dialogues.GetByID(ctx, in.DialogueID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, dialogue.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	line, err := s.validateLine(ctx, dialogue.ProjectID, in.Line)
	if err != nil {
		return nil, err
	}
	line.DialogueID = dialogue.ID
	if err := s.dialogues.CreateLine(ctx, line); err != nil {
		return nil, err
	}
	return s.dialogues.GetLine(ctx, line.ID)
}

// UpdateLine replaces the line's text, order, speaker and display binding.
// Its choices are kept.
func (s *DialogueService) UpdateLine(ctx context.Context, in UpdateLineInput) (*models.DialogueLine, error) {
	existing, projectID, err := s.lineWithProject(ctx, in.LineID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, projectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	line, err := s.validateLine(ctx, projectID, in.Line)
	if err != nil {
		return nil, err
	}
	line.ID = existing.ID
	line.DialogueID = existing.DialogueID
	if err := s.dialogues.UpdateLine(ctx, line); err != nil {
		return nil, err
	}
	return s.dialogues.GetLine(ctx, line.ID)
}

func (s *DialogueService) DeleteLine(ctx context.Context, userID, lineID uint) error {
	_, projectID, err := s.lineWithProject(ctx, lineID)
	if err != nil {
		return err
	}
	if _, err := s.policy.Authorize(ctx, userID, projectID, access.CapabilityEditContent); err != nil {
		return err
	}
	return s.dialogues.DeleteLine(ctx, lineID)
}

func (s *DialogueService) lineWithProject(ctx context.Context, lineID uint) (*models.DialogueLine, uint, error) {
	line, err := s.dialogues.GetLine(ctx, lineID)
	if err != nil {
		return nil, 0, err
	}
	dialogue, err := s.dialogues.GetByID(ctx, line.DialogueID)
	if err != nil {
		return nil, 0, err
	}
	return line, dialogue.ProjectID, nil
}

// validateLine checks every character and mood reference against the
// project cast. A mood bound to a slot must belong to that slot's character.
func (s *DialogueService) validateLine(ctx context.Context, projectID uint, f LineFields) (*models.DialogueLine, error) {
	text, err := requireText(f.Text, "Text", maxTextLen)
	if err != nil {
		return nil, err
	}
	mode, err := models.ParseDisplayMode(f.DisplayMode)
	if err != nil {
		return nil, err
	}

	characters, err := s.cast.ListCharacters(ctx, projectID)
	if err != nil {
		return nil, err
	}
	cast := newCastIndex(characters)

	for _, id := range []*uint{f.CharacterID, f.DisplayedCharacterID, f.LeftCharacterID, f.RightCharacterID} {
		if id != nil && !cast.hasCharacter(*id) {
			return nil, models.NewNotFoundError("Character", *id)
		}
	}

	displayed := f.DisplayedCharacterID
	if displayed == nil {
		displayed = f.CharacterID
	}
	slots := []struct {
		name      string
		character *uint
		mood      *uint
	}{
		{"displayed", displayed, f.DisplayedMoodID},
		{"left", f.LeftCharacterID, f.LeftMoodID},
		{"right", f.RightCharacterID, f.RightMoodID},
	}
	for _, slot := range slots {
		if slot.mood == nil {
			continue
		}
		mood, ok := cast.moods[*slot.mood]
		if !ok {
			return nil, models.NewNotFoundError("Mood", *slot.mood)
		}
		if slot.character != nil && mood.CharacterID != *slot.character {
			return nil, models.NewValidationError(fmt.Sprintf(
				"Mood %q does not belong to the %s character", mood.Name, slot.name))
		}
	}

	return &models.DialogueLine{
		CharacterID:          f.CharacterID,
		Text:                 text,
		Order:                f.Order,
		DisplayMode:          mode,
		DisplayedCharacterID: f.DisplayedCharacterID,
		DisplayedMoodID:      f.DisplayedMoodID,
		LeftCharacterID:      f.LeftCharacterID,
		LeftMoodID:           f.LeftMoodID,
		RightCharacterID:     f.RightCharacterID,
		RightMoodID:          f.RightMoodID,
	}, nil
}

func (s *DialogueService) CreateChoice(ctx context.Context, in CreateChoiceInput) (*models.DialogueChoice, error) {
	line, projectID, err := s.lineWithProject(ctx, in.LineID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, projectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	choice, err := s.validateChoice(ctx, projectID, in.Choice)
	if err != nil {
		return nil, err
	}
	choice.LineID = line.ID
	if err := s.dialogues.CreateChoice(ctx, choice); err != nil {
		return nil, err
	}
	return choice, nil
}

func (s *DialogueService) UpdateChoice(ctx context.Context, in UpdateChoiceInput) (*models.DialogueChoice, error) {
	existing, err := s.dialogues.GetChoice(ctx, in.ChoiceID)
	if err != nil {
		return nil, err
	}
	_, projectID, err := s.lineWithProject(ctx, existing.LineID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, projectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	choice, err := s.validateChoice(ctx, projectID, in.Choice)
	if err != nil {
		return nil, err
	}
	choice.ID = existing.ID
	choice.LineID = existing.LineID
	choice.CreatedAt = existing.CreatedAt
	if err := s.dialogues.UpdateChoice(ctx, choice); err != nil {
		return nil, err
	}
	return choice, nil
}

func (s *DialogueService) DeleteChoice(ctx context.Context, userID, choiceID uint) error {
	choice, err := s.dialogues.GetChoice(ctx, choiceID)
	if err != nil {
		return err
	}
	_, projectID, err := s.lineWithProject(ctx, choice.LineID)
	if err != nil {
		return err
	}
	if _, err := s.policy.Authorize(ctx, userID, projectID, access.CapabilityEditContent); err != nil {
		return err
	}
	return s.dialogues.DeleteChoice(ctx, choiceID)
}

// validateChoice requires text and, when a target is given, a dialogue of the
// same project. Targets may form cycles.
func (s *DialogueService) validateChoice(ctx context.Context, projectID uint, f ChoiceFields) (*models.DialogueChoice, error) {
	text, err := requireText(f.Text, "Text", maxTextLen)
	if err != nil {
		return nil, err
	}
	if f.NextDialogueID != nil {
		ok, err := s.dialogues.ExistsInProject(ctx, projectID, *f.NextDialogueID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, models.NewNotFoundError("Dialogue", *f.NextDialogueID)
		}
	}
	return &models.DialogueChoice{Text: text, NextDialogueID: f.NextDialogueID}, nil
}

// castIndex looks up a project's characters and moods by id.
type castIndex struct {
	characters map[uint]struct{}
	moods      map[uint]models.Mood
}

func newCastIndex(characters []models.Character) castIndex {
	idx := castIndex{
		characters: make(map[uint]struct{}, len(characters)),
		moods:      make(map[uint]models.Mood),
	}
	for _, c := range characters {
		idx.characters[c.ID] = struct{}{}
		for _, m := range c.Moods {
			idx.moods[m.ID] = m
		}
	}
	return idx
}

func (c castIndex) hasCharacter(id uint) bool {
	_, ok := c.characters[id]
	return ok
}
