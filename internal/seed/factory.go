// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storyloom/internal/models"
	"storyloom/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds narrative entities and persists them to the database.
// It is a thin helper used by the demo preset and tests.
type Factory struct {
	db    *gorm.DB
	users repository.UserRepository
	faker *gofakeit.Faker
	// epoch anchors generated message timestamps
	epoch time.Time
}

// NewFactory returns a Factory whose generated content is fully determined
// by seed.
func NewFactory(db *gorm.DB, seed int64) *Factory {
	return &Factory{
		db:    db,
		users: repository.NewUserRepository(db),
		faker: gofakeit.New(seed),
		epoch: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// EnsureUser returns the user with email, creating it when missing.
func (f *Factory) EnsureUser(email string) (*models.User, error) {
	user, err := f.users.Ensure(context.Background(), email, f.faker.Name())
	if err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", email, err)
	}
	return user, nil
}

// CreateProject inserts a project owned by owner together with the owner
// membership row.
func (f *Factory) CreateProject(owner *models.User, name string) (*models.Project, error) {
	project := &models.Project{
		Name:        name,
		Description: f.faker.Sentence(10),
		UserID:      owner.ID,
	}
	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User").Create(project).Error; err != nil {
			return err
		}
		member := &models.ProjectMember{ProjectID: project.ID, UserID: owner.ID, Role: models.ProjectRoleOwner}
		return tx.Omit("Project", "User").Create(member).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

// AddMember grants user a role in project.
func (f *Factory) AddMember(project *models.Project, user *models.User, role models.ProjectRole) error {
	member := &models.ProjectMember{ProjectID: project.ID, UserID: user.ID, Role: role}
	return f.db.Omit("Project", "User").Create(member).Error
}

// CreateCharacter inserts a character with a tag derived from its name and
// index, plus the named moods.
func (f *Factory) CreateCharacter(project *models.Project, index int, moods ...string) (*models.Character, error) {
	name := f.faker.FirstName()
	character := &models.Character{
		ProjectID:   project.ID,
		Name:        name,
		Tag:         characterTag(name, index),
		Color:       f.faker.HexColor(),
		Description: f.faker.Sentence(8),
	}
	if err := f.db.Omit("Project", "Moods").Create(character).Error; err != nil {
		return nil, fmt.Errorf("create character: %w", err)
	}
	for _, m := range moods {
		mood := models.Mood{ProjectID: project.ID, CharacterID: character.ID, Name: m}
		if err := f.db.Create(&mood).Error; err != nil {
			return nil, fmt.Errorf("create mood: %w", err)
		}
		character.Moods = append(character.Moods, mood)
	}
	return character, nil
}

// characterTag keeps the ASCII letters of name and appends index, so tags
// stay unique and valid.
func characterTag(name string, index int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "character"
	}
	if len(base) > 24 {
		base = base[:24]
	}
	return fmt.Sprintf("%s%d", base, index)
}

func (f *Factory) CreateBackground(project *models.Project) (*models.Background, error) {
	background := &models.Background{
		ProjectID: project.ID,
		Name:      "Scene: " + f.faker.Noun(),
		ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%s/1280/720", f.faker.UUID()),
	}
	if err := f.db.Omit("Project").Create(background).Error; err != nil {
		return nil, fmt.Errorf("create background: %w", err)
	}
	return background, nil
}

func (f *Factory) CreateFolder(project *models.Project, kind models.FolderKind, name string, parent *models.Folder) (*models.Folder, error) {
	folder := &models.Folder{ProjectID: project.ID, Kind: kind, Name: name}
	if parent != nil {
		folder.ParentID = &parent.ID
	}
	if err := f.db.Omit("Project", "Parent").Create(folder).Error; err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	return folder, nil
}

// CreateDialogue inserts a dialogue with lineCount lines spoken in turn by
// cast. Every line shows its speaker with the speaker's first mood.
func (f *Factory) CreateDialogue(project *models.Project, folder *models.Folder, background *models.Background, cast []*models.Character, lineCount int) (*models.Dialogue, error) {
	dialogue := &models.Dialogue{
		ProjectID:   project.ID,
		Name:        f.faker.HipsterSentence(3),
		Description: f.faker.Sentence(6),
	}
	if folder != nil {
		dialogue.FolderID = &folder.ID
	}
	if background != nil {
		dialogue.BackgroundID = &background.ID
	}
	if err := f.db.Omit("Project", "Folder", "Background", "Lines").Create(dialogue).Error; err != nil {
		return nil, fmt.Errorf("create dialogue: %w", err)
	}

	for i := 0; i < lineCount; i++ {
		line := models.DialogueLine{
			DialogueID:  dialogue.ID,
			Text:        f.faker.Sentence(f.faker.Number(4, 12)),
			Order:       i,
			DisplayMode: models.DisplayModeSingle,
		}
		if len(cast) > 0 {
			speaker := cast[i%len(cast)]
			line.CharacterID = &speaker.ID
			if len(speaker.Moods) > 0 {
				line.DisplayedMoodID = &speaker.Moods[0].ID
			}
		}
		if err := f.db.Omit("Character", "Choices").Create(&line).Error; err != nil {
			return nil, fmt.Errorf("create line: %w", err)
		}
		dialogue.Lines = append(dialogue.Lines, line)
	}
	return dialogue, nil
}

// LinkChoice adds a choice on the last line of from that leads to next
// (nil for an ending).
func (f *Factory) LinkChoice(from *models.Dialogue, next *models.Dialogue) error {
	if len(from.Lines) == 0 {
		return fmt.Errorf("dialogue %d has no lines", from.ID)
	}
	choice := models.DialogueChoice{
		LineID: from.Lines[len(from.Lines)-1].ID,
		Text:   f.faker.HipsterSentence(4),
	}
	if next != nil {
		choice.NextDialogueID = &next.ID
	}
	return f.db.Create(&choice).Error
}

// CreateConversation inserts a chat between cast with messageCount messages
// a few minutes apart.
func (f *Factory) CreateConversation(project *models.Project, folder *models.Folder, cast []*models.Character, messageCount int) (*models.Conversation, error) {
	conversation := &models.Conversation{
		ProjectID:   project.ID,
		Name:        f.faker.BuzzWord(),
		IsGroupChat: len(cast) > 2,
	}
	if folder != nil {
		conversation.FolderID = &folder.ID
	}
	for _, c := range cast {
		conversation.Participants = append(conversation.Participants, models.Character{ID: c.ID})
	}
	if err := f.db.Omit("Project", "Folder", "Participants.*", "Messages").Create(conversation).Error; err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	sentAt := f.epoch.Add(time.Duration(f.faker.Number(0, 30*24)) * time.Hour)
	for i := 0; i < messageCount; i++ {
		message := models.Message{
			ConversationID: conversation.ID,
			Text:           f.faker.Sentence(f.faker.Number(2, 10)),
			Timestamp:      sentAt,
			IsRead:         i < messageCount-1,
			Type:           models.MessageTypeText,
		}
		if len(cast) > 0 {
			message.CharacterID = &cast[i%len(cast)].ID
		}
		if err := f.db.Omit("Character", "Questions").Create(&message).Error; err != nil {
			return nil, fmt.Errorf("create message: %w", err)
		}
		conversation.Messages = append(conversation.Messages, message)
		sentAt = sentAt.Add(time.Duration(f.faker.Number(1, 15)) * time.Minute)
	}
	return conversation, nil
}

// CreateQuestion attaches a quiz with three answers, the first correct, to
// message.
func (f *Factory) CreateQuestion(message *models.Message) (*models.Question, error) {
	positive, err := models.EncodeReactions([]string{f.faker.Emoji(), "Nice!"})
	if err != nil {
		return nil, err
	}
	negative, err := models.EncodeReactions([]string{f.faker.Emoji(), "Not quite."})
	if err != nil {
		return nil, err
	}

	question := &models.Question{
		MessageID:         message.ID,
		Content:           f.faker.Question(),
		PositiveReactions: positive,
		NegativeReactions: negative,
	}
	for i := 0; i < 3; i++ {
		question.Answers = append(question.Answers, models.Answer{
			Content:   f.faker.HipsterWord(),
			IsCorrect: i == 0,
			Order:     i,
		})
	}
	if err := f.db.Create(question).Error; err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return question, nil
}
