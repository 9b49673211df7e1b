package export

import (
	"strings"
	"testing"
	"time"

	"storyloom/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func ptr(v uint) *uint { return &v }

func reactions(t *testing.T, values ...string) datatypes.JSON {
	t.Helper()
	blob, err := models.EncodeReactions(values)
	require.NoError(t, err)
	return blob
}

// sampleSnapshot returns a small project with its slices deliberately out of
// id order.
func sampleSnapshot(t *testing.T) Snapshot {
	t.Helper()
	mara := models.Character{ID: 1, Name: "Mara", Tag: "mara", Color: "#ff0000",
		Moods: []models.Mood{{ID: 12, Name: "sad"}, {ID: 11, Name: "happy"}}}
	jon := models.Character{ID: 2, Name: "Jon", Tag: "jon"}
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	return Snapshot{
		Project:    models.Project{ID: 7, Name: "Harbor"},
		Characters: []models.Character{jon, mara},
		Folders: []models.Folder{
			{ID: 21, Name: "Intro", Kind: models.FolderKindDialogue, ParentID: ptr(20)},
			{ID: 20, Name: "Act I", Kind: models.FolderKindDialogue},
		},
		Dialogues: []models.Dialogue{
			{ID: 31, Name: "End"},
			{ID: 30, Name: "Start", IsStartDialogue: true,
				Background: &models.Background{Name: "Dock", ImageURL: "https://cdn.example.com/dock.png"},
				Lines: []models.DialogueLine{
					{ID: 42, Order: 1, Text: "Both", DisplayMode: models.DisplayModeDual,
						LeftCharacterID: ptr(1), LeftMoodID: ptr(11), RightCharacterID: ptr(2)},
					{ID: 41, Order: 0, Text: "Hi", CharacterID: ptr(1), DisplayMode: models.DisplayModeSingle,
						Choices: []models.DialogueChoice{
							{ID: 52, Text: "Vanish", NextDialogueID: ptr(99)},
							{ID: 51, Text: "End it", NextDialogueID: ptr(31)},
							{ID: 53, Text: "Stay"},
						}},
				}},
		},
		Conversations: []models.Conversation{{
			ID: 60, Name: "Texts",
			Participants: []models.Character{{ID: 2}, {ID: 1}},
			Messages: []models.Message{
				{ID: 72, Text: "later", Timestamp: base.Add(time.Minute), Type: models.MessageTypeText},
				{ID: 71, Text: "first", CharacterID: ptr(2), Timestamp: base, Type: models.MessageTypeText,
					Questions: []models.Question{{
						ID: 80, Content: "Trust him?",
						PositiveReactions: reactions(t, "yay"),
						NegativeReactions: reactions(t, "boo"),
						Answers: []models.Answer{
							{ID: 92, Content: "No", Order: 1},
							{ID: 91, Content: "Yes", Order: 0, IsCorrect: true},
						},
					}}},
			},
		}},
	}
}

func TestBuild_OrdersAndResolves(t *testing.T) {
	t.Parallel()

	doc, err := Build(sampleSnapshot(t))
	require.NoError(t, err)

	assert.Equal(t, Metadata{ProjectName: "Harbor", FormatVersion: FormatVersion}, doc.Metadata)
	require.Len(t, doc.Characters, 2)
	assert.Equal(t, "mara", doc.Characters[0].Tag)
	assert.Equal(t, []string{"happy", "sad"}, doc.Characters[0].Moods)
	assert.Nil(t, doc.Folders)

	require.Len(t, doc.Dialogues, 2)
	start := doc.Dialogues[0]
	assert.Equal(t, "Start", start.Name)
	require.NotNil(t, start.BackgroundName)
	assert.Equal(t, "Dock", *start.BackgroundName)
	require.Len(t, start.Lines, 2)

	spoken := start.Lines[0]
	assert.Equal(t, "Hi", spoken.Text)
	require.NotNil(t, spoken.CharacterTag)
	assert.Equal(t, "mara", *spoken.CharacterTag)
	assert.Equal(t, "single", spoken.DisplayBinding.Mode)
	require.NotNil(t, spoken.DisplayBinding.Displayed)
	assert.Equal(t, "mara", *spoken.DisplayBinding.Displayed.CharacterTag)
	assert.Nil(t, spoken.DisplayBinding.Left)

	require.Len(t, spoken.Choices, 3)
	assert.Equal(t, "End it", spoken.Choices[0].Text)
	require.NotNil(t, spoken.Choices[0].NextDialogueName)
	assert.Equal(t, "End", *spoken.Choices[0].NextDialogueName)
	assert.Nil(t, spoken.Choices[1].NextDialogueName)
	assert.Nil(t, spoken.Choices[2].NextDialogueID)

	dual := start.Lines[1]
	assert.Nil(t, dual.CharacterTag)
	assert.Nil(t, dual.DisplayBinding.Displayed)
	require.NotNil(t, dual.DisplayBinding.Left)
	assert.Equal(t, "happy", *dual.DisplayBinding.Left.Mood)
	assert.Equal(t, "jon", *dual.DisplayBinding.Right.CharacterTag)
	assert.Nil(t, dual.DisplayBinding.Right.Mood)

	assert.Equal(t, []Warning{{
		Kind: WarningDanglingChoice, DialogueID: 30, Dialogue: "Start", ChoiceText: "Vanish", NextDialogueID: 99,
	}}, doc.Warnings)

	require.Len(t, doc.Conversations, 1)
	conversation := doc.Conversations[0]
	require.Len(t, conversation.Participants, 2)
	assert.Equal(t, "mara", conversation.Participants[0].Tag)
	assert.Equal(t, "Jon", conversation.Participants[1].Name)

	require.Len(t, conversation.Messages, 2)
	first := conversation.Messages[0]
	assert.Equal(t, "first", first.Text)
	assert.Equal(t, "2026-05-01T12:00:00Z", first.Timestamp)
	assert.Nil(t, conversation.Messages[1].CharacterTag)

	require.Len(t, first.Questions, 1)
	question := first.Questions[0]
	assert.Equal(t, Reactions{Positive: []string{"yay"}, Negative: []string{"boo"}}, question.Reactions)
	require.Len(t, question.Answers, 2)
	assert.Equal(t, "Yes", question.Answers[0].Content)
	assert.True(t, question.Answers[0].IsCorrect)
}

func TestBuild_FolderPaths(t *testing.T) {
	t.Parallel()

	s := sampleSnapshot(t)
	s.IncludeFolders = true
	doc, err := Build(s)
	require.NoError(t, err)

	assert.Equal(t, []Folder{
		{Name: "Act I", Kind: "dialogue", Path: "Act I"},
		{Name: "Intro", Kind: "dialogue", Path: "Act I/Intro"},
	}, doc.Folders)
}

func TestBuild_CorruptFolderChainTerminates(t *testing.T) {
	t.Parallel()

	doc, err := Build(Snapshot{
		IncludeFolders: true,
		Folders: []models.Folder{
			{ID: 1, Name: "a", ParentID: ptr(2)},
			{ID: 2, Name: "b", ParentID: ptr(1)},
		},
	})
	require.NoError(t, err)
	require.Len(t, doc.Folders, 2)
	assert.True(t, strings.HasSuffix(doc.Folders[0].Path, "b/a"))
}

func TestBuild_BadReactionBlob(t *testing.T) {
	t.Parallel()

	_, err := Build(Snapshot{Conversations: []models.Conversation{{
		ID: 1,
		Messages: []models.Message{{ID: 2, Questions: []models.Question{{
			ID: 3, PositiveReactions: datatypes.JSON(`{"not":"a list"}`),
		}}}},
	}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question 3")
}

func TestBuild_EmptyProject(t *testing.T) {
	t.Parallel()

	doc, err := Build(Snapshot{Project: models.Project{Name: "Empty"}})
	require.NoError(t, err)

	raw, err := Encode(doc, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"dialogues": []`)
	assert.Contains(t, string(raw), `"warnings": []`)
	assert.NotContains(t, string(raw), "folders")
}

func TestEncode_Deterministic(t *testing.T) {
	t.Parallel()

	for _, format := range []string{FormatJSON, FormatYAML} {
		format := format
		t.Run(format, func(t *testing.T) {
			t.Parallel()

			first, err := Build(sampleSnapshot(t))
			require.NoError(t, err)
			shuffled := sampleSnapshot(t)
			shuffled.Characters[0], shuffled.Characters[1] = shuffled.Characters[1], shuffled.Characters[0]
			shuffled.Dialogues[0], shuffled.Dialogues[1] = shuffled.Dialogues[1], shuffled.Dialogues[0]
			second, err := Build(shuffled)
			require.NoError(t, err)

			a, err := Encode(first, format)
			require.NoError(t, err)
			b, err := Encode(second, format)
			require.NoError(t, err)
			assert.Equal(t, string(a), string(b))
		})
	}
}

func TestEncode_NullNextDialogue(t *testing.T) {
	t.Parallel()

	doc := &Document{Dialogues: []Dialogue{{Lines: []Line{{Choices: []Choice{{Text: "Leave"}}}}}}}

	raw, err := Encode(doc, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"nextDialogueId": null`)

	raw, err = Encode(doc, FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "nextDialogueId: null")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{raw: "", want: FormatJSON, ok: true},
		{raw: "JSON", want: FormatJSON, ok: true},
		{raw: "yml", want: FormatYAML, ok: true},
		{raw: " yaml ", want: FormatYAML, ok: true},
		{raw: "xml"},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.raw)
		if !tc.ok {
			assert.Error(t, err, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got)
		assert.NotEmpty(t, ContentType(got))
	}
}
