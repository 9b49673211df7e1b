package service

import (
	"context"
	"testing"

	"storyloom/internal/models"
	"storyloom/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialogueService_LineBindings(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, testutil.Email(1))
	project := testutil.CreateProject(t, env.db, owner, "Harbor")
	other := testutil.CreateProject(t, env.db, owner, "Elsewhere")

	mara := testutil.CreateCharacter(t, env.db, project, "mara")
	jon := testutil.CreateCharacter(t, env.db, project, "jon")
	stranger := testutil.CreateCharacter(t, env.db, other, "stranger")
	maraHappy := testutil.CreateMood(t, env.db, mara, "happy")
	jonAngry := testutil.CreateMood(t, env.db, jon, "angry")

	dialogue, err := env.dialogues.CreateDialogue(ctx, CreateDialogueInput{
		UserID: owner.ID, ProjectID: project.ID, Dialogue: DialogueFields{Name: "Dock"},
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		line LineFields
		code string
	}{
		{"empty text", LineFields{Text: "  "}, models.CodeValidation},
		{"bad mode", LineFields{Text: "Hi", DisplayMode: "triple"}, models.CodeValidation},
		{"foreign speaker", LineFields{Text: "Hi", CharacterID: &stranger.ID}, models.CodeNotFound},
		{"missing mood", LineFields{Text: "Hi", DisplayedMoodID: uintPtr(9999)}, models.CodeNotFound},
		{
			"speaker mood mismatch",
			LineFields{Text: "Hi", CharacterID: &mara.ID, DisplayedMoodID: &jonAngry.ID},
			models.CodeValidation,
		},
		{
			"right slot mood mismatch",
			LineFields{Text: "Hi", DisplayMode: "dual", LeftCharacterID: &mara.ID, RightCharacterID: &jon.ID, RightMoodID: &maraHappy.ID},
			models.CodeValidation,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.dialogues.CreateLine(ctx, CreateLineInput{UserID: owner.ID, DialogueID: dialogue.ID, Line: tc.line})
			assertCode(t, err, tc.code)
		})
	}

	single, err := env.dialogues.CreateLine(ctx, CreateLineInput{UserID: owner.ID, DialogueID: dialogue.ID, Line: LineFields{
		Text: "Hi", Order: 1, CharacterID: &mara.ID, DisplayedMoodID: &maraHappy.ID,
	}})
	require.NoError(t, err)
	assert.Equal(t, models.DisplayModeSingle, single.DisplayMode)
	display := single.EffectiveDisplay()
	require.NotNil(t, display.Displayed.CharacterID)
	assert.Equal(t, mara.ID, *display.Displayed.CharacterID)

	dual, err := env.dialogues.CreateLine(ctx, CreateLineInput{UserID: owner.ID, DialogueID: dialogue.ID, Line: LineFields{
		Text: "Hey", Order: 0, DisplayMode: "dual",
		LeftCharacterID: &mara.ID, LeftMoodID: &maraHappy.ID, RightCharacterID: &jon.ID, RightMoodID: &jonAngry.ID,
	}})
	require.NoError(t, err)
	assert.Equal(t, models.DisplayModeDual, dual.DisplayMode)

	loaded, err := env.dialogues.GetDialogue(ctx, owner.ID, dialogue.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 2)
	assert.Equal(t, dual.ID, loaded.Lines[0].ID, "lines are ordered by order then id")

	updated, err := env.dialogues.UpdateLine(ctx, UpdateLineInput{UserID: owner.ID, LineID: single.ID, Line: LineFields{Text: "Narration"}})
	require.NoError(t, err)
	assert.Nil(t, updated.CharacterID)
	assert.Nil(t, updated.DisplayedMoodID)
	assert.Equal(t, "Narration", updated.Text)
}

func TestDialogueService_DialogueReferences(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, testutil.Email(1))
	project := testutil.CreateProject(t, env.db, owner, "Harbor")
	other := testutil.CreateProject(t, env.db, owner, "Elsewhere")

	texts := testutil.CreateFolder(t, env.db, project, models.FolderKindSMS, "Texts", nil)
	foreignFolder := testutil.CreateFolder(t, env.db, other, models.FolderKindDialogue, "Scenes", nil)
	foreignBackground, err := env.cast.CreateBackground(ctx, CreateBackgroundInput{
		UserID: owner.ID, ProjectID: other.ID,
		Background: BackgroundFields{Name: "Forest", ImageURL: "https://cdn.example.com/forest.png"},
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		fields DialogueFields
		code   string
	}{
		{"empty name", DialogueFields{Name: " "}, models.CodeValidation},
		{"sms folder", DialogueFields{Name: "Dock", FolderID: &texts.ID}, models.CodeIntegrity},
		{"foreign folder", DialogueFields{Name: "Dock", FolderID: &foreignFolder.ID}, models.CodeNotFound},
		{"foreign background", DialogueFields{Name: "Dock", BackgroundID: &foreignBackground.ID}, models.CodeNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.dialogues.CreateDialogue(ctx, CreateDialogueInput{UserID: owner.ID, ProjectID: project.ID, Dialogue: tc.fields})
			assertCode(t, err, tc.code)
		})
	}
}

func TestDialogueService_ChoicesAndDanglingTargets(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, testutil.Email(1))
	project := testutil.CreateProject(t, env.db, owner, "Harbor")
	other := testutil.CreateProject(t, env.db, owner, "Elsewhere")

	start := testutil.CreateDialogue(t, env.db, project, "Start", nil)
	end := testutil.CreateDialogue(t, env.db, project, "End", nil)
	foreign := testutil.CreateDialogue(t, env.db, other, "Foreign", nil)

	line, err := env.dialogues.CreateLine(ctx, CreateLineInput{UserID: owner.ID, DialogueID: start.ID, Line: LineFields{Text: "Where to?"}})
	require.NoError(t, err)

	_, err = env.dialogues.CreateChoice(ctx, CreateChoiceInput{UserID: owner.ID, LineID: line.ID, Choice: ChoiceFields{Text: "Away", NextDialogueID: &foreign.ID}})
	assertCode(t, err, models.CodeNotFound)
	_, err = env.dialogues.CreateChoice(ctx, CreateChoiceInput{UserID: owner.ID, LineID: line.ID, Choice: ChoiceFields{Text: ""}})
	assertValidationError(t, err)

	loop, err := env.dialogues.CreateChoice(ctx, CreateChoiceInput{UserID: owner.ID, LineID: line.ID, Choice: ChoiceFields{Text: "Again", NextDialogueID: &start.ID}})
	require.NoError(t, err, "a choice may lead back to its own dialogue")
	assert.Equal(t, start.ID, *loop.NextDialogueID)

	forward, err := env.dialogues.CreateChoice(ctx, CreateChoiceInput{UserID: owner.ID, LineID: line.ID, Choice: ChoiceFields{Text: "Onward", NextDialogueID: &end.ID}})
	require.NoError(t, err)

	require.NoError(t, env.dialogues.DeleteDialogue(ctx, owner.ID, end.ID))

	loaded, err := env.dialogues.GetDialogue(ctx, owner.ID, start.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 1)
	require.Len(t, loaded.Lines[0].Choices, 2)
	assert.Equal(t, forward.ID, loaded.Lines[0].Choices[1].ID)
	require.NotNil(t, loaded.Lines[0].Choices[1].NextDialogueID)
	assert.Equal(t, end.ID, *loaded.Lines[0].Choices[1].NextDialogueID, "dangling target is kept")

	cleared, err := env.dialogues.UpdateChoice(ctx, UpdateChoiceInput{UserID: owner.ID, ChoiceID: forward.ID, Choice: ChoiceFields{Text: "Stay"}})
	require.NoError(t, err)
	assert.Nil(t, cleared.NextDialogueID)

	require.NoError(t, env.dialogues.DeleteLine(ctx, owner.ID, line.ID))
	assertCode(t, env.dialogues.DeleteChoice(ctx, owner.ID, loop.ID), models.CodeNotFound)
}

func TestDialogueService_MemberCanEditViewerCannot(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, testutil.Email(1))
	writer := testutil.CreateUser(t, env.db, testutil.Email(2))
	viewer := testutil.CreateUser(t, env.db, testutil.Email(3))
	project := testutil.CreateProject(t, env.db, owner, "Harbor")
	testutil.AddMember(t, env.db, project, writer, models.ProjectRoleMember)
	testutil.AddMember(t, env.db, project, viewer, models.ProjectRoleViewer)

	created, err := env.dialogues.CreateDialogue(ctx, CreateDialogueInput{UserID: writer.ID, ProjectID: project.ID, Dialogue: DialogueFields{Name: "Dock"}})
	require.NoError(t, err)

	_, err = env.dialogues.UpdateDialogue(ctx, UpdateDialogueInput{UserID: viewer.ID, DialogueID: created.ID, Dialogue: DialogueFields{Name: "Pier"}})
	assertCode(t, err, models.CodeForbidden)

	list, err := env.dialogues.ListDialogues(ctx, viewer.ID, project.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Dock", list[0].Name)
}
