package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"storyloom/internal/config"
	"storyloom/internal/models"
	"storyloom/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	apiTestSecret = "test-secret-key-12345678901234567890123456789012"
	apiTestIssuer = "storyloom-identity"
)

type testAPI struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := testutil.NewTestDB(t)
	cfg := &config.Config{
		JWTSecret: apiTestSecret,
		JWTIssuer: apiTestIssuer,
		Env:       "test",
	}
	s, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	return &testAPI{app: s.NewApp(), db: db}
}

func bearer(t *testing.T, userID uint) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": apiTestIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(apiTestSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

// call sends a request as userID (0 means anonymous) and returns the
// response with its body already read.
func (a *testAPI) call(t *testing.T, userID uint, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("Authorization", bearer(t, userID))
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeID(t *testing.T, raw []byte) uint {
	t.Helper()
	var body struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.NotZero(t, body.ID, string(raw))
	return body.ID
}

func TestAPI_RequiresBearerToken(t *testing.T) {
	api := newTestAPI(t)

	resp, raw := api.call(t, 0, http.MethodGet, "/api/projects", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(raw), "UNAUTHORIZED")

	resp, _ = api.call(t, 0, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_AuthorDialogueAndExport(t *testing.T) {
	api := newTestAPI(t)
	owner := testutil.CreateUser(t, api.db, testutil.Email(1))

	resp, raw := api.call(t, owner.ID, http.MethodPost, "/api/projects", fiber.Map{"name": "Harbor Lights"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	projectID := decodeID(t, raw)
	base := fmt.Sprintf("/api/projects/%d", projectID)

	resp, raw = api.call(t, owner.ID, http.MethodPost, base+"/characters",
		fiber.Map{"name": "Mara", "tag": "mara", "color": "#ff8800"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	maraID := decodeID(t, raw)

	resp, raw = api.call(t, owner.ID, http.MethodPost, fmt.Sprintf("/api/characters/%d/moods", maraID),
		fiber.Map{"name": "happy"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	happyID := decodeID(t, raw)

	resp, raw = api.call(t, owner.ID, http.MethodPost, base+"/folders",
		fiber.Map{"name": "Act I", "type": "dialogue"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	folderID := decodeID(t, raw)

	resp, raw = api.call(t, owner.ID, http.MethodPost, base+"/dialogues",
		fiber.Map{"name": "Intro", "folder_id": folderID, "is_start_dialogue": true})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	dialogueID := decodeID(t, raw)

	resp, raw = api.call(t, owner.ID, http.MethodPost, fmt.Sprintf("/api/dialogues/%d/lines", dialogueID), fiber.Map{
		"character_id":           maraID,
		"text":                   "Hello",
		"display_mode":           "single",
		"displayed_character_id": maraID,
		"displayed_mood_id":      happyID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	lineID := decodeID(t, raw)

	resp, raw = api.call(t, owner.ID, http.MethodPost, fmt.Sprintf("/api/lines/%d/choices", lineID),
		fiber.Map{"text": "Continue"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = api.call(t, owner.ID, http.MethodGet, base+"/export?download=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "application/json")
	assert.Equal(t, fmt.Sprintf(`attachment; filename="project-%d.json"`, projectID),
		resp.Header.Get(fiber.HeaderContentDisposition))

	var doc struct {
		Dialogues []struct {
			Name  string `json:"name"`
			Lines []struct {
				CharacterTag *string `json:"characterTag"`
				Choices      []struct {
					Text           string `json:"text"`
					NextDialogueID *uint  `json:"nextDialogueId"`
				} `json:"choices"`
			} `json:"lines"`
		} `json:"dialogues"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc.Dialogues, 1)
	require.Len(t, doc.Dialogues[0].Lines, 1)
	line := doc.Dialogues[0].Lines[0]
	require.NotNil(t, line.CharacterTag)
	assert.Equal(t, "mara", *line.CharacterTag)
	require.Len(t, line.Choices, 1)
	assert.Equal(t, "Continue", line.Choices[0].Text)
	assert.Nil(t, line.Choices[0].NextDialogueID)

	resp, raw = api.call(t, owner.ID, http.MethodGet, base+"/export?format=yaml", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "application/yaml")
	assert.Empty(t, resp.Header.Get(fiber.HeaderContentDisposition))
	assert.Contains(t, string(raw), "characterTag: mara")
}

func TestAPI_ViewerCannotEdit(t *testing.T) {
	api := newTestAPI(t)
	owner := testutil.CreateUser(t, api.db, testutil.Email(1))
	viewer := testutil.CreateUser(t, api.db, testutil.Email(2))
	project := testutil.CreateProject(t, api.db, owner, "Harbor Lights")
	testutil.AddMember(t, api.db, project, viewer, models.ProjectRoleViewer)
	testutil.CreateCharacter(t, api.db, project, "mara")
	base := fmt.Sprintf("/api/projects/%d", project.ID)

	resp, raw := api.call(t, viewer.ID, http.MethodGet, base+"/characters", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Contains(t, string(raw), `"tag":"mara"`)

	resp, raw = api.call(t, viewer.ID, http.MethodPost, base+"/characters",
		fiber.Map{"name": "Ivo", "tag": "ivo"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(raw), models.CodeForbidden)

	var count int64
	require.NoError(t, api.db.Model(&models.Character{}).Where("project_id = ?", project.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAPI_ErrorCodes(t *testing.T) {
	api := newTestAPI(t)
	owner := testutil.CreateUser(t, api.db, testutil.Email(1))
	project := testutil.CreateProject(t, api.db, owner, "Harbor Lights")
	testutil.CreateCharacter(t, api.db, project, "mara")
	base := fmt.Sprintf("/api/projects/%d", project.ID)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{name: "missing dialogue", method: http.MethodGet, path: "/api/dialogues/999", status: http.StatusNotFound, code: models.CodeNotFound},
		{name: "bad id", method: http.MethodGet, path: "/api/dialogues/abc", status: http.StatusBadRequest, code: models.CodeValidation},
		{name: "invalid tag", method: http.MethodPost, path: base + "/characters", body: fiber.Map{"name": "X", "tag": "Bad Tag"}, status: http.StatusBadRequest, code: models.CodeValidation},
		{name: "duplicate tag", method: http.MethodPost, path: base + "/characters", body: fiber.Map{"name": "Mara", "tag": "mara"}, status: http.StatusConflict, code: models.CodeConflict},
		{name: "unknown export format", method: http.MethodGet, path: base + "/export?format=xml", status: http.StatusBadRequest, code: models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := api.call(t, owner.ID, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(raw))

			var body models.ErrorResponse
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestAPI_FolderPatchAndDeleteRescue(t *testing.T) {
	api := newTestAPI(t)
	owner := testutil.CreateUser(t, api.db, testutil.Email(1))
	project := testutil.CreateProject(t, api.db, owner, "Harbor Lights")
	root := testutil.CreateFolder(t, api.db, project, models.FolderKindDialogue, "Act I", nil)
	child := testutil.CreateFolder(t, api.db, project, models.FolderKindDialogue, "Scenes", root)
	dialogue := testutil.CreateDialogue(t, api.db, project, "Intro", child)

	// Renaming without parent_id leaves the folder where it is.
	resp, raw := api.call(t, owner.ID, http.MethodPut, fmt.Sprintf("/api/folders/%d", child.ID),
		fiber.Map{"name": "Scenes (draft)"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var reloaded models.Folder
	require.NoError(t, api.db.First(&reloaded, child.ID).Error)
	assert.Equal(t, "Scenes (draft)", reloaded.Name)
	require.NotNil(t, reloaded.ParentID)
	assert.Equal(t, root.ID, *reloaded.ParentID)

	// Moving a folder under its own descendant is refused.
	resp, _ = api.call(t, owner.ID, http.MethodPut, fmt.Sprintf("/api/folders/%d/move", root.ID),
		fiber.Map{"parent_id": child.ID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, raw = api.call(t, owner.ID, http.MethodDelete, fmt.Sprintf("/api/folders/%d", child.ID), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode, string(raw))

	var rescued models.Dialogue
	require.NoError(t, api.db.First(&rescued, dialogue.ID).Error)
	require.NotNil(t, rescued.FolderID)
	assert.Equal(t, root.ID, *rescued.FolderID)

	// An explicit null moves the folder to the root.
	sub := testutil.CreateFolder(t, api.db, project, models.FolderKindDialogue, "Epilogue", root)
	resp, raw = api.call(t, owner.ID, http.MethodPut, fmt.Sprintf("/api/folders/%d", sub.ID),
		map[string]interface{}{"parent_id": nil})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var moved models.Folder
	require.NoError(t, api.db.First(&moved, sub.ID).Error)
	assert.Nil(t, moved.ParentID)

	resp, raw = api.call(t, owner.ID, http.MethodGet, fmt.Sprintf("/api/projects/%d/folders?type=dialogue", project.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Contains(t, string(raw), "Act I")
	assert.Contains(t, string(raw), "Epilogue")
}

func TestAPI_QuizLifecycle(t *testing.T) {
	api := newTestAPI(t)
	owner := testutil.CreateUser(t, api.db, testutil.Email(1))
	project := testutil.CreateProject(t, api.db, owner, "Harbor Lights")
	mara := testutil.CreateCharacter(t, api.db, project, "mara")
	conversation := testutil.CreateConversation(t, api.db, project, "Group chat", nil)

	resp, raw := api.call(t, owner.ID, http.MethodPost, fmt.Sprintf("/api/conversations/%d/messages", conversation.ID),
		fiber.Map{"character_id": mara.ID, "text": "Guess where I am?"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	messageID := decodeID(t, raw)

	question := fiber.Map{
		"content": "Where is Mara?",
		"answers": []fiber.Map{
			{"content": "Harbor", "is_correct": true},
			{"content": "Market"},
		},
		"positive_reactions": []string{"Yes!"},
		"negative_reactions": []string{"Nope."},
	}
	resp, raw = api.call(t, owner.ID, http.MethodPost, fmt.Sprintf("/api/messages/%d/questions", messageID), question)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	questionID := decodeID(t, raw)

	question["answers"] = []fiber.Map{{"content": "Harbor"}, {"content": "Market"}}
	resp, _ = api.call(t, owner.ID, http.MethodPut, fmt.Sprintf("/api/questions/%d", questionID), question)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = api.call(t, owner.ID, http.MethodGet, fmt.Sprintf("/api/questions/%d", questionID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"is_correct":true`)

	resp, _ = api.call(t, owner.ID, http.MethodDelete, fmt.Sprintf("/api/questions/%d", questionID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
