package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Question is a quiz attached to a message. Reaction sets are stored as JSON
// string lists and are only decoded at the edges.
type Question struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	MessageID         uint           `gorm:"not null;index" json:"message_id"`
	Content           string         `gorm:"type:text;not null" json:"content"`
	PositiveReactions datatypes.JSON `json:"positive_reactions"`
	NegativeReactions datatypes.JSON `json:"negative_reactions"`
	Answers           []Answer       `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Answer is one option of a question.
type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsCorrect  bool      `gorm:"not null;default:false" json:"is_correct"`
	Order      int       `gorm:"column:answer_order;not null;default:0" json:"order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EncodeReactions serializes a reaction list for storage.
func EncodeReactions(reactions []string) (datatypes.JSON, error) {
	if reactions == nil {
		reactions = []string{}
	}
	raw, err := json.Marshal(reactions)
	if err != nil {
		return nil, fmt.Errorf("encode reactions: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// DecodeReactions parses a stored reaction list. An empty blob is an empty list.
func DecodeReactions(blob datatypes.JSON) ([]string, error) {
	if len(blob) == 0 {
		return []string{}, nil
	}
	var reactions []string
	if err := json.Unmarshal(blob, &reactions); err != nil {
		return nil, fmt.Errorf("decode reactions: %w", err)
	}
	if reactions == nil {
		reactions = []string{}
	}
	return reactions, nil
}
