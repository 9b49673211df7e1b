package service

import (
	"context"
	"testing"
	"time"

	"storyloom/internal/models"
	"storyloom/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationService_ParticipantsAndMessages(t *testing.T) {
	env := newTestEnv(t, "")
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	env.conversations.now = func() time.Time { return fixed }
	ctx := context.Background()

	owner := testutil.CreateUser(t, env.db, testutil.Email(1))
	project := testutil.CreateProject(t, env.db, owner, "Harbor")
	other := testutil.CreateProject(t, env.db, owner, "Elsewhere")
	mara := testutil.CreateCharacter(t, env.db, project, "mara")
	jon := testutil.CreateCharacter(t, env.db, project, "jon")
	stranger := testutil.CreateCharacter(t, env.db, other, "stranger")
	texts := testutil.CreateFolder(t, env.db, project, models.FolderKindSMS, "Texts", nil)

	_, err := env.conversations.CreateConversation(ctx, CreateConversationInput{
		UserID: owner.ID, ProjectID: project.ID,
		Conversation:   ConversationFields{Name: "Group"},
		ParticipantIDs: []uint{mara.ID, stranger.ID},
	})
	assertCode(t, err, models.CodeNotFound)

	conversation, err := env.conversations.CreateConversation(ctx, CreateConversationInput{
		UserID: owner.ID, ProjectID: project.ID,
		Conversation:   ConversationFields{Name: "Group", FolderID: &texts.ID, IsGroupChat: true},
		ParticipantIDs: []uint{jon.ID, mara.ID, jon.ID},
	})
	require.NoError(t, err)
	require.Len(t, conversation.Participants, 2)

	conversation, err = env.conversations.SetParticipants(ctx, SetParticipantsInput{
		UserID: owner.ID, ConversationID: conversation.ID, CharacterIDs: []uint{mara.ID},
	})
	require.NoError(t, err)
	require.Len(t, conversation.Participants, 1)
	assert.Equal(t, mara.ID, conversation.Participants[0].ID)

	_, err = env.conversations.CreateMessage(ctx, CreateMessageInput{
		UserID: owner.ID, ConversationID: conversation.ID, Message: MessageFields{Text: "Hi", Type: "video"},
	})
	assertValidationError(t, err)
	_, err = env.conversations.CreateMessage(ctx, CreateMessageInput{
		UserID: owner.ID, ConversationID: conversation.ID, Message: MessageFields{Text: "Hi", CharacterID: &stranger.ID},
	})
	assertCode(t, err, models.CodeNotFound)
	_, err = env.conversations.CreateMessage(ctx, CreateMessageInput{
		UserID: owner.ID, ConversationID: conversation.ID, Message: MessageFields{Text: "Pic", Type: "image", AttachmentURL: "pic.png"},
	})
	assertValidationError(t, err)

	first, err := env.conversations.CreateMessage(ctx, CreateMessageInput{
		UserID: owner.ID, ConversationID: conversation.ID, Message: MessageFields{Text: "Hi", CharacterID: &mara.ID},
	})
	require.NoError(t, err)
	assert.True(t, fixed.Equal(first.Timestamp))
	assert.Equal(t, models.MessageTypeText, first.Type)

	earlier := fixed.Add(-time.Hour)
	second, err := env.conversations.CreateMessage(ctx, CreateMessageInput{
		UserID: owner.ID, ConversationID: conversation.ID, Message: MessageFields{Text: "Earlier", Timestamp: &earlier},
	})
	require.NoError(t, err)

	thread, err := env.conversations.GetConversation(ctx, owner.ID, conversation.ID)
	require.NoError(t, err)
	require.Len(t, thread.Messages, 2)
	assert.Equal(t, second.ID, thread.Messages[0].ID, "messages are ordered by timestamp")

	edited, err := env.conversations.UpdateMessage(ctx, UpdateMessageInput{
		UserID: owner.ID, MessageID: first.ID, Message: MessageFields{Text: "Hello", IsRead: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", edited.Text)
	assert.Nil(t, edited.CharacterID)
	assert.True(t, fixed.Equal(edited.Timestamp), "timestamp is kept when not given")

	require.NoError(t, env.conversations.DeleteConversation(ctx, owner.ID, conversation.ID))
	_, err = env.conversations.GetConversation(ctx, owner.ID, conversation.ID)
	assertCode(t, err, models.CodeNotFound)
}

func TestCastService_CharactersAndMoods(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, testutil.Email(1))
	project := testutil.CreateProject(t, env.db, owner, "Harbor")

	_, err := env.cast.CreateCharacter(ctx, CreateCharacterInput{
		UserID: owner.ID, ProjectID: project.ID, Character: CharacterFields{Name: "Mara", Tag: "Mara"},
	})
	assertValidationError(t, err)
	_, err = env.cast.CreateCharacter(ctx, CreateCharacterInput{
		UserID: owner.ID, ProjectID: project.ID, Character: CharacterFields{Name: "Mara", Tag: "mara", Color: "red"},
	})
	assertValidationError(t, err)

	mara, err := env.cast.CreateCharacter(ctx, CreateCharacterInput{
		UserID: owner.ID, ProjectID: project.ID, Character: CharacterFields{Name: "Mara", Tag: "mara", Color: "#a1b2c3"},
	})
	require.NoError(t, err)

	_, err = env.cast.CreateCharacter(ctx, CreateCharacterInput{
		UserID: owner.ID, ProjectID: project.ID, Character: CharacterFields{Name: "Other Mara", Tag: "mara"},
	})
	assertCode(t, err, models.CodeConflict)

	mood, err := env.cast.CreateMood(ctx, CreateMoodInput{UserID: owner.ID, CharacterID: mara.ID, Name: "happy"})
	require.NoError(t, err)
	assert.Equal(t, project.ID, mood.ProjectID)

	renamed, err := env.cast.UpdateMood(ctx, UpdateMoodInput{UserID: owner.ID, MoodID: mood.ID, Name: "joyful"})
	require.NoError(t, err)
	assert.Equal(t, "joyful", renamed.Name)

	loaded, err := env.cast.GetCharacter(ctx, owner.ID, mara.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Moods, 1)
	assert.Equal(t, "joyful", loaded.Moods[0].Name)

	require.NoError(t, env.cast.DeleteCharacter(ctx, owner.ID, mara.ID))
	moods, err := env.cast.ListMoods(ctx, owner.ID, project.ID)
	require.NoError(t, err)
	assert.Empty(t, moods)
}

func TestCastService_Backgrounds(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, testutil.Email(1))
	project := testutil.CreateProject(t, env.db, owner, "Harbor")

	_, err := env.cast.CreateBackground(ctx, CreateBackgroundInput{
		UserID: owner.ID, ProjectID: project.ID, Background: BackgroundFields{Name: "Forest"},
	})
	assertValidationError(t, err)

	background, err := env.cast.CreateBackground(ctx, CreateBackgroundInput{
		UserID: owner.ID, ProjectID: project.ID,
		Background: BackgroundFields{Name: "Forest", ImageURL: "https://cdn.example.com/forest.png"},
	})
	require.NoError(t, err)

	dialogue, err := env.dialogues.CreateDialogue(ctx, CreateDialogueInput{
		UserID: owner.ID, ProjectID: project.ID, Dialogue: DialogueFields{Name: "Walk", BackgroundID: &background.ID},
	})
	require.NoError(t, err)
	require.NotNil(t, dialogue.Background)

	require.NoError(t, env.cast.DeleteBackground(ctx, owner.ID, background.ID))
	reloaded, err := env.dialogues.GetDialogue(ctx, owner.ID, dialogue.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.BackgroundID)
}
