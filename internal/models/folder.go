package models

import (
	"strings"
	"time"
)

// FolderKind separates dialogue folders from text-message folders. A folder
// tree never mixes kinds.
type FolderKind string

const (
	FolderKindDialogue FolderKind = "dialogue"
	FolderKindSMS      FolderKind = "sms"
)

// ParseFolderKind parses a folder kind name.
func ParseFolderKind(raw string) (FolderKind, error) {
	kind := FolderKind(strings.ToLower(strings.TrimSpace(raw)))
	switch kind {
	case FolderKindDialogue, FolderKindSMS:
		return kind, nil
	}
	return "", NewValidationError("Invalid folder type: must be dialogue or sms")
}

// Folder groups dialogues or conversations. ParentID nil means root level.
type Folder struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ProjectID   uint       `gorm:"not null;index:idx_folder_project_kind" json:"project_id"`
	Project     *Project   `gorm:"foreignKey:ProjectID" json:"-"`
	Name        string     `gorm:"size:200;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Kind        FolderKind `gorm:"type:varchar(20);not null;index:idx_folder_project_kind" json:"type"`
	ParentID    *uint      `gorm:"index" json:"parent_id"`
	Parent      *Folder    `gorm:"foreignKey:ParentID" json:"-"`

	DialogueCount     int64 `gorm:"->;-:migration" json:"dialogue_count"`
	ConversationCount int64 `gorm:"->;-:migration" json:"conversation_count"`
	ChildCount        int64 `gorm:"->;-:migration" json:"child_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
