package repository

import (
	"context"

	"storyloom/internal/models"
	"storyloom/internal/observability"

	"gorm.io/gorm"
)

// ConversationRepository defines persistence operations for simulated text
// conversations, their participants, and their messages.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	GetByID(ctx context.Context, id uint) (*models.Conversation, error)
	GetWithMessages(ctx context.Context, id uint) (*models.Conversation, error)
	ListByProject(ctx context.Context, projectID uint) ([]models.Conversation, error)
	Update(ctx context.Context, conversation *models.Conversation) error
	ReplaceParticipants(ctx context.Context, conversationID uint, characterIDs []uint) error
	Delete(ctx context.Context, id uint) error

	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessage(ctx context.Context, id uint) (*models.Message, error)
	UpdateMessage(ctx context.Context, message *models.Message) error
	DeleteMessage(ctx context.Context, id uint) error
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository returns a new ConversationRepository implementation.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// withThread preloads participants and messages in (timestamp, id) order
// with their questions and answers.
func withThread(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Participants", orderByID).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("sent_at ASC, id ASC")
		}).
		Preload("Messages.Character").
		Preload("Messages.Questions", orderByID).
		Preload("Messages.Questions.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answer_order ASC, id ASC")
		})
}

func (r *conversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Project", "Folder", "Participants", "Messages").Create(conversation).Error; err != nil {
			return err
		}
		if len(conversation.Participants) == 0 {
			return nil
		}
		return insertParticipants(tx, conversation.ID, participantIDs(conversation.Participants))
	})
	return TranslateError(err, "Project", conversation.ProjectID)
}

func (r *conversationRepository) GetByID(ctx context.Context, id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.WithContext(ctx).Preload("Participants", orderByID).First(&conversation, id).Error; err != nil {
		return nil, TranslateError(err, "Conversation", id)
	}
	return &conversation, nil
}

func (r *conversationRepository) GetWithMessages(ctx context.Context, id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := withThread(r.db.WithContext(ctx)).First(&conversation, id).Error; err != nil {
		return nil, TranslateError(err, "Conversation", id)
	}
	return &conversation, nil
}

func (r *conversationRepository) ListByProject(ctx context.Context, projectID uint) ([]models.Conversation, error) {
	defer observability.TrackQuery("list", "conversations")()

	var conversations []models.Conversation
	err := withThread(r.db.WithContext(ctx)).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&conversations).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return conversations, nil
}

func (r *conversationRepository) Update(ctx context.Context, conversation *models.Conversation) error {
	err := r.db.WithContext(ctx).Model(&models.Conversation{ID: conversation.ID}).Updates(map[string]interface{}{
		"name":          conversation.Name,
		"folder_id":     conversation.FolderID,
		"is_group_chat": conversation.IsGroupChat,
	}).Error
	return TranslateError(err, "Conversation", conversation.ID)
}

// ReplaceParticipants sets the participant list to exactly characterIDs.
func (r *conversationRepository) ReplaceParticipants(ctx context.Context, conversationID uint, characterIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM conversation_participants WHERE conversation_id = ?", conversationID).Error; err != nil {
			return err
		}
		return insertParticipants(tx, conversationID, characterIDs)
	})
	return TranslateError(err, "Character", characterIDs)
}

func (r *conversationRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Conversation{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return gorm.ErrRecordNotFound
		}
		return deleteConversationTree(tx, []uint{id})
	})
	return TranslateError(err, "Conversation", id)
}

func (r *conversationRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Omit("Character", "Questions").Create(message).Error; err != nil {
		return TranslateError(err, "Conversation", message.ConversationID)
	}
	return nil
}

func (r *conversationRepository) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).
		Preload("Questions", orderByID).
		Preload("Questions.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answer_order ASC, id ASC")
		}).
		First(&message, id).Error
	if err != nil {
		return nil, TranslateError(err, "Message", id)
	}
	return &message, nil
}

func (r *conversationRepository) UpdateMessage(ctx context.Context, message *models.Message) error {
	err := r.db.WithContext(ctx).Model(&models.Message{ID: message.ID}).Updates(map[string]interface{}{
		"character_id":   message.CharacterID,
		"text":           message.Text,
		"sent_at":        message.Timestamp,
		"is_read":        message.IsRead,
		"message_type":   message.Type,
		"attachment_url": message.AttachmentURL,
	}).Error
	return TranslateError(err, "Message", message.ID)
}

// DeleteMessage removes the message with its questions and answers.
func (r *conversationRepository) DeleteMessage(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Message{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return gorm.ErrRecordNotFound
		}
		return deleteMessageTree(tx, []uint{id})
	})
	return TranslateError(err, "Message", id)
}

func participantIDs(characters []models.Character) []uint {
	ids := make([]uint, 0, len(characters))
	for _, c := range characters {
		ids = append(ids, c.ID)
	}
	return ids
}

func insertParticipants(tx *gorm.DB, conversationID uint, characterIDs []uint) error {
	seen := make(map[uint]struct{}, len(characterIDs))
	for _, characterID := range characterIDs {
		if _, dup := seen[characterID]; dup {
			continue
		}
		seen[characterID] = struct{}{}
		if err := tx.Exec(
			"INSERT INTO conversation_participants (conversation_id, character_id) VALUES (?, ?)",
			conversationID, characterID,
		).Error; err != nil {
			return err
		}
	}
	return nil
}
