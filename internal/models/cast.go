package models

import "time"

// Character is a speaking role. Tag is the stable identifier used by the
// game runtime and is unique within a project.
type Character struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProjectID   uint      `gorm:"not null;uniqueIndex:idx_character_project_tag" json:"project_id"`
	Project     *Project  `gorm:"foreignKey:ProjectID" json:"-"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Tag         string    `gorm:"size:32;not null;uniqueIndex:idx_character_project_tag" json:"tag"`
	Color       string    `gorm:"size:20" json:"color"`
	Description string    `gorm:"type:text" json:"description"`
	Moods       []Mood    `gorm:"foreignKey:CharacterID" json:"moods,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Mood is a named expression owned by a character.
type Mood struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProjectID   uint      `gorm:"not null;index" json:"project_id"`
	CharacterID uint      `gorm:"not null;index" json:"character_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Background is a scene image reference. The image itself is stored elsewhere.
type Background struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;index" json:"project_id"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"-"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	ImageURL  string    `gorm:"size:1024;not null" json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
