// Package export flattens a project into the self-contained document the
// game runtime consumes. Build is pure and deterministic: the same snapshot
// always yields the same document and, through Encode, the same bytes.
package export

// FormatVersion is bumped whenever the document shape changes incompatibly.
const FormatVersion = 1

// WarningDanglingChoice marks a choice whose next dialogue no longer exists.
const WarningDanglingChoice = "dangling_choice"

// Document is the exported project.
type Document struct {
	Metadata      Metadata       `json:"metadata" yaml:"metadata"`
	Characters    []Character    `json:"characters" yaml:"characters"`
	Folders       []Folder       `json:"folders,omitempty" yaml:"folders,omitempty"`
	Dialogues     []Dialogue     `json:"dialogues" yaml:"dialogues"`
	Conversations []Conversation `json:"conversations" yaml:"conversations"`
	Warnings      []Warning      `json:"warnings" yaml:"warnings"`
}

type Metadata struct {
	ProjectName   string `json:"projectName" yaml:"projectName"`
	FormatVersion int    `json:"formatVersion" yaml:"formatVersion"`
}

type Character struct {
	Tag   string   `json:"tag" yaml:"tag"`
	Name  string   `json:"name" yaml:"name"`
	Color string   `json:"color" yaml:"color"`
	Moods []string `json:"moods" yaml:"moods"`
}

// Folder is exported with its slash-joined path from the root.
type Folder struct {
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"`
	Path string `json:"path" yaml:"path"`
}

type Dialogue struct {
	ID              uint    `json:"id" yaml:"id"`
	Name            string  `json:"name" yaml:"name"`
	IsStartDialogue bool    `json:"isStartDialogue" yaml:"isStartDialogue"`
	BackgroundName  *string `json:"backgroundName" yaml:"backgroundName"`
	BackgroundImage *string `json:"backgroundImage" yaml:"backgroundImage"`
	Lines           []Line  `json:"lines" yaml:"lines"`
}

type Line struct {
	Order          int            `json:"order" yaml:"order"`
	CharacterTag   *string        `json:"characterTag" yaml:"characterTag"`
	Text           string         `json:"text" yaml:"text"`
	DisplayBinding DisplayBinding `json:"displayBinding" yaml:"displayBinding"`
	Choices        []Choice       `json:"choices" yaml:"choices"`
}

// DisplayBinding carries Displayed in single mode and Left/Right in dual mode.
type DisplayBinding struct {
	Mode      string       `json:"mode" yaml:"mode"`
	Displayed *SlotBinding `json:"displayed,omitempty" yaml:"displayed,omitempty"`
	Left      *SlotBinding `json:"left,omitempty" yaml:"left,omitempty"`
	Right     *SlotBinding `json:"right,omitempty" yaml:"right,omitempty"`
}

type SlotBinding struct {
	CharacterTag *string `json:"characterTag" yaml:"characterTag"`
	Mood         *string `json:"mood" yaml:"mood"`
}

// Choice passes NextDialogueID through even when it no longer resolves;
// NextDialogueName is only set when it does.
type Choice struct {
	Text             string  `json:"text" yaml:"text"`
	NextDialogueID   *uint   `json:"nextDialogueId" yaml:"nextDialogueId"`
	NextDialogueName *string `json:"nextDialogueName,omitempty" yaml:"nextDialogueName,omitempty"`
}

type Conversation struct {
	ID           uint        `json:"id" yaml:"id"`
	Name         string      `json:"name" yaml:"name"`
	IsGroupChat  bool        `json:"isGroupChat" yaml:"isGroupChat"`
	Participants []Character `json:"participants" yaml:"participants"`
	Messages     []Message   `json:"messages" yaml:"messages"`
}

type Message struct {
	CharacterTag  *string    `json:"characterTag" yaml:"characterTag"`
	Text          string     `json:"text" yaml:"text"`
	Timestamp     string     `json:"timestamp" yaml:"timestamp"`
	IsRead        bool       `json:"isRead" yaml:"isRead"`
	Type          string     `json:"type" yaml:"type"`
	AttachmentURL *string    `json:"attachmentUrl" yaml:"attachmentUrl"`
	Questions     []Question `json:"questions" yaml:"questions"`
}

type Question struct {
	Content   string    `json:"content" yaml:"content"`
	Reactions Reactions `json:"reactions" yaml:"reactions"`
	Answers   []Answer  `json:"answers" yaml:"answers"`
}

type Reactions struct {
	Positive []string `json:"positive" yaml:"positive"`
	Negative []string `json:"negative" yaml:"negative"`
}

type Answer struct {
	Content   string `json:"content" yaml:"content"`
	IsCorrect bool   `json:"isCorrect" yaml:"isCorrect"`
	Order     int    `json:"order" yaml:"order"`
}

// Warning reports a tolerated problem found while exporting.
type Warning struct {
	Kind           string `json:"kind" yaml:"kind"`
	DialogueID     uint   `json:"dialogueId" yaml:"dialogueId"`
	Dialogue       string `json:"dialogue" yaml:"dialogue"`
	ChoiceText     string `json:"choiceText" yaml:"choiceText"`
	NextDialogueID uint   `json:"nextDialogueId" yaml:"nextDialogueId"`
}
