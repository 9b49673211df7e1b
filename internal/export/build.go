package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"storyloom/internal/models"
)

// Snapshot is everything Build reads. Slices may arrive in any order.
type Snapshot struct {
	Project        models.Project
	Characters     []models.Character
	Folders        []models.Folder
	IncludeFolders bool
	Dialogues      []models.Dialogue
	Conversations  []models.Conversation
}

// Build turns a snapshot into a Document. The snapshot is not modified.
func Build(s Snapshot) (*Document, error) {
	b := newResolver(s)

	doc := &Document{
		Metadata: Metadata{
			ProjectName:   s.Project.Name,
			FormatVersion: FormatVersion,
		},
		Characters:    make([]Character, 0, len(s.Characters)),
		Dialogues:     make([]Dialogue, 0, len(s.Dialogues)),
		Conversations: make([]Conversation, 0, len(s.Conversations)),
		Warnings:      []Warning{},
	}

	characters := append([]models.Character(nil), s.Characters...)
	sort.SliceStable(characters, func(i, j int) bool { return characters[i].ID < characters[j].ID })
	for _, c := range characters {
		doc.Characters = append(doc.Characters, exportCharacter(c))
	}

	if s.IncludeFolders {
		doc.Folders = b.folderList()
	}

	dialogues := append([]models.Dialogue(nil), s.Dialogues...)
	sort.SliceStable(dialogues, func(i, j int) bool { return dialogues[i].ID < dialogues[j].ID })
	for _, d := range dialogues {
		out, warnings := b.dialogue(d)
		doc.Dialogues = append(doc.Dialogues, out)
		doc.Warnings = append(doc.Warnings, warnings...)
	}

	conversations := append([]models.Conversation(nil), s.Conversations...)
	sort.SliceStable(conversations, func(i, j int) bool { return conversations[i].ID < conversations[j].ID })
	for _, c := range conversations {
		out, err := b.conversation(c)
		if err != nil {
			return nil, err
		}
		doc.Conversations = append(doc.Conversations, out)
	}

	return doc, nil
}

// resolver holds id-keyed lookups over the snapshot.
type resolver struct {
	folders     []models.Folder
	characters  map[uint]*models.Character
	moods       map[uint]string
	dialogueIDs map[uint]string
}

func newResolver(s Snapshot) *resolver {
	r := &resolver{
		folders:     s.Folders,
		characters:  make(map[uint]*models.Character, len(s.Characters)),
		moods:       make(map[uint]string),
		dialogueIDs: make(map[uint]string, len(s.Dialogues)),
	}
	for i := range s.Characters {
		c := &s.Characters[i]
		r.characters[c.ID] = c
		for _, m := range c.Moods {
			r.moods[m.ID] = m.Name
		}
	}
	for _, d := range s.Dialogues {
		r.dialogueIDs[d.ID] = d.Name
	}
	return r
}

func (r *resolver) tag(id *uint) *string {
	if id == nil {
		return nil
	}
	c, ok := r.characters[*id]
	if !ok {
		return nil
	}
	tag := c.Tag
	return &tag
}

func (r *resolver) mood(id *uint) *string {
	if id == nil {
		return nil
	}
	name, ok := r.moods[*id]
	if !ok {
		return nil
	}
	return &name
}

func (r *resolver) slot(slot models.DisplaySlot) *SlotBinding {
	return &SlotBinding{CharacterTag: r.tag(slot.CharacterID), Mood: r.mood(slot.MoodID)}
}

func (r *resolver) folderList() []Folder {
	byID := make(map[uint]*models.Folder, len(r.folders))
	for i := range r.folders {
		byID[r.folders[i].ID] = &r.folders[i]
	}

	sorted := append([]models.Folder(nil), r.folders...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	out := make([]Folder, 0, len(sorted))
	for _, f := range sorted {
		out = append(out, Folder{Name: f.Name, Kind: string(f.Kind), Path: folderPath(byID, f)})
	}
	return out
}

// folderPath joins ancestor names from the root. The walk is bounded by the
// number of folders, so a corrupted parent chain still terminates.
func folderPath(byID map[uint]*models.Folder, f models.Folder) string {
	parts := []string{f.Name}
	parent := f.ParentID
	for steps := 0; parent != nil && steps < len(byID); steps++ {
		p, ok := byID[*parent]
		if !ok {
			break
		}
		parts = append(parts, p.Name)
		parent = p.ParentID
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

func (r *resolver) dialogue(d models.Dialogue) (Dialogue, []Warning) {
	out := Dialogue{
		ID:              d.ID,
		Name:            d.Name,
		IsStartDialogue: d.IsStartDialogue,
		Lines:           make([]Line, 0, len(d.Lines)),
	}
	if d.Background != nil {
		name, image := d.Background.Name, d.Background.ImageURL
		out.BackgroundName = &name
		out.BackgroundImage = &image
	}

	lines := append([]models.DialogueLine(nil), d.Lines...)
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Order != lines[j].Order {
			return lines[i].Order < lines[j].Order
		}
		return lines[i].ID < lines[j].ID
	})

	var warnings []Warning
	for _, l := range lines {
		line := Line{
			Order:          l.Order,
			CharacterTag:   r.tag(l.CharacterID),
			Text:           l.Text,
			DisplayBinding: r.binding(l.EffectiveDisplay()),
			Choices:        make([]Choice, 0, len(l.Choices)),
		}

		choices := append([]models.DialogueChoice(nil), l.Choices...)
		sort.SliceStable(choices, func(i, j int) bool { return choices[i].ID < choices[j].ID })
		for _, c := range choices {
			choice := Choice{Text: c.Text, NextDialogueID: c.NextDialogueID}
			if c.NextDialogueID != nil {
				if name, ok := r.dialogueIDs[*c.NextDialogueID]; ok {
					choice.NextDialogueName = &name
				} else {
					warnings = append(warnings, Warning{
						Kind:           WarningDanglingChoice,
						DialogueID:     d.ID,
						Dialogue:       d.Name,
						ChoiceText:     c.Text,
						NextDialogueID: *c.NextDialogueID,
					})
				}
			}
			line.Choices = append(line.Choices, choice)
		}
		out.Lines = append(out.Lines, line)
	}
	return out, warnings
}

func (r *resolver) binding(display models.LineDisplay) DisplayBinding {
	binding := DisplayBinding{Mode: string(display.Mode)}
	if display.Mode == models.DisplayModeDual {
		binding.Left = r.slot(display.Left)
		binding.Right = r.slot(display.Right)
		return binding
	}
	binding.Displayed = r.slot(display.Displayed)
	return binding
}

func (r *resolver) conversation(c models.Conversation) (Conversation, error) {
	out := Conversation{
		ID:           c.ID,
		Name:         c.Name,
		IsGroupChat:  c.IsGroupChat,
		Participants: make([]Character, 0, len(c.Participants)),
		Messages:     make([]Message, 0, len(c.Messages)),
	}

	participants := append([]models.Character(nil), c.Participants...)
	sort.SliceStable(participants, func(i, j int) bool { return participants[i].ID < participants[j].ID })
	for _, p := range participants {
		if full, ok := r.characters[p.ID]; ok {
			p = *full
		}
		out.Participants = append(out.Participants, exportCharacter(p))
	}

	messages := append([]models.Message(nil), c.Messages...)
	sort.SliceStable(messages, func(i, j int) bool {
		if !messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].Timestamp.Before(messages[j].Timestamp)
		}
		return messages[i].ID < messages[j].ID
	})
	for _, m := range messages {
		msg, err := r.message(m)
		if err != nil {
			return Conversation{}, fmt.Errorf("conversation %d: %w", c.ID, err)
		}
		out.Messages = append(out.Messages, msg)
	}
	return out, nil
}

func (r *resolver) message(m models.Message) (Message, error) {
	out := Message{
		CharacterTag: r.tag(m.CharacterID),
		Text:         m.Text,
		Timestamp:    m.Timestamp.UTC().Format(time.RFC3339Nano),
		IsRead:       m.IsRead,
		Type:         string(m.Type),
		Questions:    make([]Question, 0, len(m.Questions)),
	}
	if m.AttachmentURL != "" {
		url := m.AttachmentURL
		out.AttachmentURL = &url
	}

	questions := append([]models.Question(nil), m.Questions...)
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	for _, q := range questions {
		question, err := exportQuestion(q)
		if err != nil {
			return Message{}, fmt.Errorf("message %d: %w", m.ID, err)
		}
		out.Questions = append(out.Questions, question)
	}
	return out, nil
}

func exportQuestion(q models.Question) (Question, error) {
	positive, err := models.DecodeReactions(q.PositiveReactions)
	if err != nil {
		return Question{}, fmt.Errorf("question %d: %w", q.ID, err)
	}
	negative, err := models.DecodeReactions(q.NegativeReactions)
	if err != nil {
		return Question{}, fmt.Errorf("question %d: %w", q.ID, err)
	}

	answers := append([]models.Answer(nil), q.Answers...)
	sort.SliceStable(answers, func(i, j int) bool {
		if answers[i].Order != answers[j].Order {
			return answers[i].Order < answers[j].Order
		}
		return answers[i].ID < answers[j].ID
	})

	out := Question{
		Content:   q.Content,
		Reactions: Reactions{Positive: positive, Negative: negative},
		Answers:   make([]Answer, 0, len(answers)),
	}
	for _, a := range answers {
		out.Answers = append(out.Answers, Answer{Content: a.Content, IsCorrect: a.IsCorrect, Order: a.Order})
	}
	return out, nil
}

func exportCharacter(c models.Character) Character {
	moods := append([]models.Mood(nil), c.Moods...)
	sort.SliceStable(moods, func(i, j int) bool { return moods[i].ID < moods[j].ID })

	out := Character{Tag: c.Tag, Name: c.Name, Color: c.Color, Moods: make([]string, 0, len(moods))}
	for _, m := range moods {
		out.Moods = append(out.Moods, m.Name)
	}
	return out
}
