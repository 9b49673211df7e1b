package models

import (
	"strings"
	"time"
)

// MessageType is the content kind of a simulated text message.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeEmoji MessageType = "emoji"
)

// ParseMessageType parses a message type. Empty input means text.
func ParseMessageType(raw string) (MessageType, error) {
	t := MessageType(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case "":
		return MessageTypeText, nil
	case MessageTypeText, MessageTypeImage, MessageTypeEmoji:
		return t, nil
	}
	return "", NewValidationError("Invalid message type: must be text, image or emoji")
}

// Conversation is a simulated text-message thread between characters.
type Conversation struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	ProjectID    uint        `gorm:"not null;index" json:"project_id"`
	Project      *Project    `gorm:"foreignKey:ProjectID" json:"-"`
	FolderID     *uint       `gorm:"index" json:"folder_id"`
	Folder       *Folder     `gorm:"foreignKey:FolderID" json:"-"`
	Name         string      `gorm:"size:200;not null" json:"name"`
	IsGroupChat  bool        `gorm:"not null;default:false" json:"is_group_chat"`
	Participants []Character `gorm:"many2many:conversation_participants;" json:"participants,omitempty"`
	Messages     []Message   `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Message is one entry of a conversation. CharacterID nil means a system
// message.
type Message struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	ConversationID uint        `gorm:"not null;index" json:"conversation_id"`
	CharacterID    *uint       `gorm:"index" json:"character_id"`
	Character      *Character  `gorm:"foreignKey:CharacterID" json:"character,omitempty"`
	Text           string      `gorm:"type:text;not null" json:"text"`
	Timestamp      time.Time   `gorm:"column:sent_at;not null;index" json:"timestamp"`
	IsRead         bool        `gorm:"not null;default:false" json:"is_read"`
	Type           MessageType `gorm:"column:message_type;type:varchar(10);not null;default:'text'" json:"message_type"`
	AttachmentURL  string      `gorm:"size:1024" json:"attachment_url"`
	Questions      []Question  `gorm:"foreignKey:MessageID" json:"questions,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
