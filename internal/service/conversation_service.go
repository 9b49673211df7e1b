package service

import (
	"context"
	"strings"
	"time"

	"storyloom/internal/access"
	"storyloom/internal/models"
	"storyloom/internal/repository"
	"storyloom/internal/validation"
)

// ConversationService manages simulated text-message threads.
type ConversationService struct {
	conversations repository.ConversationRepository
	folders       repository.FolderRepository
	cast          repository.CastRepository
	policy        Authorizer
	now           func() time.Time
}

type ConversationFields struct {
	Name        string
	FolderID    *uint
	IsGroupChat bool
}

type CreateConversationInput struct {
	UserID         uint
	ProjectID      uint
	Conversation   ConversationFields
	ParticipantIDs []uint
}

type UpdateConversationInput struct {
	UserID         uint
	ConversationID uint
	Conversation   ConversationFields
}

type SetParticipantsInput struct {
	UserID         uint
	ConversationID uint
	CharacterIDs   []uint
}

// MessageFields describes a message. A nil Timestamp means now; a nil
// CharacterID means a system message.
type MessageFields struct {
	CharacterID   *uint
	Text          string
	Timestamp     *time.Time
	IsRead        bool
	Type          string
	AttachmentURL string
}

type CreateMessageInput struct {
	UserID         uint
	ConversationID uint
	Message        MessageFields
}

type UpdateMessageInput struct {
	UserID    uint
	MessageID uint
	Message   MessageFields
}

func NewConversationService(
	conversations repository.ConversationRepository,
	folders repository.FolderRepository,
	cast repository.CastRepository,
	policy Authorizer,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		folders:       folders,
		cast:          cast,
		policy:        policy,
		now:           time.Now,
	}
}

func (s *ConversationService) CreateConversation(ctx context.Context, in CreateConversationInput) (*models.Conversation, error) {
	if _, err := s.policy.Authorize(ctx, in.UserID, in.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	conversation, err := s.validateConversation(ctx, in.ProjectID, in.Conversation)
	if err != nil {
		return nil, err
	}
	participants, err := s.projectCharacters(ctx, in.ProjectID, in.ParticipantIDs)
	if err != nil {
		return nil, err
	}
	conversation.Participants = participants

	if err := s.conversations.Create(ctx, conversation); err != nil {
		return nil, err
	}
	return s.conversations.GetByID(ctx, conversation.ID)
}

// GetConversation returns the conversation with its participants and the
// full message thread.
func (s *ConversationService) GetConversation(ctx context.Context, userID, conversationID uint) (*models.Conversation, error) {
	conversation, err := s.conversations.GetWithMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, userID, conversation.ProjectID, access.CapabilityRead); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (s *ConversationService) ListConversations(ctx context.Context, userID, projectID uint) ([]models.Conversation, error) {
	if _, err := s.policy.Authorize(ctx, userID, projectID, access.CapabilityRead); err != nil {
		return nil, err
	}
	return s.conversations.ListByProject(ctx, projectID)
}

func (s *ConversationService) UpdateConversation(ctx context.Context, in UpdateConversationInput) (*models.Conversation, error) {
	existing, err := s.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, existing.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	conversation, err := s.validateConversation(ctx, existing.ProjectID, in.Conversation)
	if err != nil {
		return nil, err
	}
	conversation.ID = existing.ID
	if err := s.conversations.Update(ctx, conversation); err != nil {
		return nil, err
	}
	return s.conversations.GetByID(ctx, conversation.ID)
}

// SetParticipants replaces the participant list in full.
func (s *ConversationService) SetParticipants(ctx context.Context, in SetParticipantsInput) (*models.Conversation, error) {
	conversation, err := s.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, conversation.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	participants, err := s.projectCharacters(ctx, conversation.ProjectID, in.CharacterIDs)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
	}
	if err := s.conversations.ReplaceParticipants(ctx, conversation.ID, ids); err != nil {
		return nil, err
	}
	return s.conversations.GetByID(ctx, conversation.ID)
}

// DeleteConversation removes the conversation with its messages, their
// questions and answers.
func (s *ConversationService) DeleteConversation(ctx context.Context, userID, conversationID uint) error {
	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if _, err := s.policy.Authorize(ctx, userID, conversation.ProjectID, access.CapabilityEditContent); err != nil {
		return err
	}
	return s.conversations.Delete(ctx, conversationID)
}

func (s *ConversationService) validateConversation(ctx context.Context, projectID uint, f ConversationFields) (*models.Conversation, error) {
	name, err := requireName(f.Name)
	if err != nil {
		return nil, err
	}
	if f.FolderID != nil {
		if _, err := folderForContent(ctx, s.folders, projectID, *f.FolderID, models.FolderKindSMS); err != nil {
			return nil, err
		}
	}
	return &models.Conversation{
		ProjectID:   projectID,
		FolderID:    f.FolderID,
		Name:        name,
		IsGroupChat: f.IsGroupChat,
	}, nil
}

// projectCharacters resolves ids against the project cast, dropping
// duplicates and keeping the first-seen order.
func (s *ConversationService) projectCharacters(ctx context.Context, projectID uint, ids []uint) ([]models.Character, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	characters, err := s.cast.ListCharacters(ctx, projectID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Character, len(characters))
	for _, c := range characters {
		byID[c.ID] = c
	}

	seen := make(map[uint]bool, len(ids))
	out := make([]models.Character, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		c, ok := byID[id]
		if !ok {
			return nil, models.NewNotFoundError("Character", id)
		}
		seen[id] = true
		out = append(out, c)
	}
	return out, nil
}

func (s *ConversationService) CreateMessage(ctx context.Context, in CreateMessageInput) (*models.Message, error) {
	conversation, err := s.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, conversation.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	message, err := s.validateMessage(ctx, conversation.ProjectID, in.Message)
	if err != nil {
		return nil, err
	}
	message.ConversationID = conversation.ID
	if err := s.conversations.CreateMessage(ctx, message); err != nil {
		return nil, err
	}
	return s.conversations.GetMessage(ctx, message.ID)
}

// UpdateMessage replaces every editable field of the message. A nil
// Timestamp keeps the stored one. Questions are kept.
func (s *ConversationService) UpdateMessage(ctx context.Context, in UpdateMessageInput) (*models.Message, error) {
	existing, projectID, err := s.messageWithProject(ctx, in.MessageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, projectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	fields := in.Message
	if fields.Timestamp == nil {
		fields.Timestamp = &existing.Timestamp
	}
	message, err := s.validateMessage(ctx, projectID, fields)
	if err != nil {
		return nil, err
	}
	message.ID = existing.ID
	message.ConversationID = existing.ConversationID
	if err := s.conversations.UpdateMessage(ctx, message); err != nil {
		return nil, err
	}
	return s.conversations.GetMessage(ctx, message.ID)
}

func (s *ConversationService) DeleteMessage(ctx context.Context, userID, messageID uint) error {
	_, projectID, err := s.messageWithProject(ctx, messageID)
	if err != nil {
		return err
	}
	if _, err := s.policy.Authorize(ctx, userID, projectID, access.CapabilityEditContent); err != nil {
		return err
	}
	return s.conversations.DeleteMessage(ctx, messageID)
}

func (s *ConversationService) messageWithProject(ctx context.Context, messageID uint) (*models.Message, uint, error) {
	message, err := s.conversations.GetMessage(ctx, messageID)
	if err != nil {
		return nil, 0, err
	}
	conversation, err := s.conversations.GetByID(ctx, message.ConversationID)
	if err != nil {
		return nil, 0, err
	}
	return message, conversation.ProjectID, nil
}

func (s *ConversationService) validateMessage(ctx context.Context, projectID uint, f MessageFields) (*models.Message, error) {
	text, err := requireText(f.Text, "Text", maxTextLen)
	if err != nil {
		return nil, err
	}
	messageType, err := models.ParseMessageType(f.Type)
	if err != nil {
		return nil, err
	}
	attachment := strings.TrimSpace(f.AttachmentURL)
	if attachment != "" {
		if err := validation.ValidateAssetURL(attachment); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	if f.CharacterID != nil {
		character, err := s.cast.GetCharacter(ctx, *f.CharacterID)
		if err != nil {
			return nil, err
		}
		if character.ProjectID != projectID {
			return nil, models.NewNotFoundError("Character", *f.CharacterID)
		}
	}

	sentAt := s.now().UTC()
	if f.Timestamp != nil {
		sentAt = f.Timestamp.UTC()
	}
	return &models.Message{
		CharacterID:   f.CharacterID,
		Text:          text,
		Timestamp:     sentAt,
		IsRead:        f.IsRead,
		Type:          messageType,
		AttachmentURL: attachment,
	}, nil
}
