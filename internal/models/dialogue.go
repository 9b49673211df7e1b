package models

import (
	"strings"
	"time"
)

// DisplayMode controls how a line presents characters on screen.
type DisplayMode string

const (
	// DisplayModeSingle shows one character, the speaker unless overridden.
	DisplayModeSingle DisplayMode = "single"
	// DisplayModeDual shows a left and a right character.
	DisplayModeDual DisplayMode = "dual"
)

// ParseDisplayMode parses a display mode. Empty input means single.
func ParseDisplayMode(raw string) (DisplayMode, error) {
	mode := DisplayMode(strings.ToLower(strings.TrimSpace(raw)))
	switch mode {
	case "":
		return DisplayModeSingle, nil
	case DisplayModeSingle, DisplayModeDual:
		return mode, nil
	}
	return "", NewValidationError("Invalid display mode: must be single or dual")
}

// Dialogue is a node of the branching story graph.
type Dialogue struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ProjectID       uint           `gorm:"not null;index" json:"project_id"`
	Project         *Project       `gorm:"foreignKey:ProjectID" json:"-"`
	FolderID        *uint          `gorm:"index" json:"folder_id"`
	Folder          *Folder        `gorm:"foreignKey:FolderID" json:"-"`
	BackgroundID    *uint          `gorm:"index" json:"background_id"`
	Background      *Background    `gorm:"foreignKey:BackgroundID" json:"background,omitempty"`
	Name            string         `gorm:"size:200;not null" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	IsStartDialogue bool           `gorm:"not null;default:false" json:"is_start_dialogue"`
	Lines           []DialogueLine `gorm:"foreignKey:DialogueID" json:"lines,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// DialogueLine is one utterance. CharacterID nil means narration.
type DialogueLine struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	DialogueID  uint        `gorm:"not null;index" json:"dialogue_id"`
	CharacterID *uint       `gorm:"index" json:"character_id"`
	Character   *Character  `gorm:"foreignKey:CharacterID" json:"character,omitempty"`
	Text        string      `gorm:"type:text;not null" json:"text"`
	Order       int         `gorm:"column:line_order;not null;default:0" json:"order"`
	DisplayMode DisplayMode `gorm:"type:varchar(10);not null;default:'single'" json:"display_mode"`

	DisplayedCharacterID *uint      `json:"displayed_character_id"`
	DisplayedCharacter   *Character `gorm:"foreignKey:DisplayedCharacterID" json:"-"`
	DisplayedMoodID      *uint      `json:"displayed_mood_id"`
	DisplayedMood        *Mood      `gorm:"foreignKey:DisplayedMoodID" json:"-"`
	LeftCharacterID      *uint      `json:"left_character_id"`
	LeftCharacter        *Character `gorm:"foreignKey:LeftCharacterID" json:"-"`
	LeftMoodID           *uint      `json:"left_mood_id"`
	LeftMood             *Mood      `gorm:"foreignKey:LeftMoodID" json:"-"`
	RightCharacterID     *uint      `json:"right_character_id"`
	RightCharacter       *Character `gorm:"foreignKey:RightCharacterID" json:"-"`
	RightMoodID          *uint      `json:"right_mood_id"`
	RightMood            *Mood      `gorm:"foreignKey:RightMoodID" json:"-"`

	Choices   []DialogueChoice `gorm:"foreignKey:LineID" json:"choices,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// DisplaySlot is one on-screen character position.
type DisplaySlot struct {
	CharacterID *uint
	MoodID      *uint
}

// LineDisplay is the resolved presentation of a line.
type LineDisplay struct {
	Mode      DisplayMode
	Displayed DisplaySlot
	Left      DisplaySlot
	Right     DisplaySlot
}

// EffectiveDisplay resolves the line's display binding. In single mode a line
// without an explicit displayed character shows its speaker.
func (l DialogueLine) EffectiveDisplay() LineDisplay {
	if l.DisplayMode == DisplayModeDual {
		return LineDisplay{
			Mode:  DisplayModeDual,
			Left:  DisplaySlot{CharacterID: l.LeftCharacterID, MoodID: l.LeftMoodID},
			Right: DisplaySlot{CharacterID: l.RightCharacterID, MoodID: l.RightMoodID},
		}
	}
	displayed := l.DisplayedCharacterID
	if displayed == nil {
		displayed = l.CharacterID
	}
	return LineDisplay{
		Mode:      DisplayModeSingle,
		Displayed: DisplaySlot{CharacterID: displayed, MoodID: l.DisplayedMoodID},
	}
}

// DialogueChoice is a directed edge to another dialogue. NextDialogueID has no
// foreign key: a choice may outlive its target.
type DialogueChoice struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	LineID         uint      `gorm:"not null;index" json:"line_id"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	NextDialogueID *uint     `gorm:"index" json:"next_dialogue_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
