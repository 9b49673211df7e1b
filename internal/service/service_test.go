package service

import (
	"errors"
	"testing"

	"storyloom/internal/access"
	"storyloom/internal/featureflags"
	"storyloom/internal/models"
	"storyloom/internal/repository"
	"storyloom/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv wires every service to one in-memory database.
type testEnv struct {
	db            *gorm.DB
	projects      *ProjectService
	members       *MemberService
	folders       *FolderService
	cast          *CastService
	dialogues     *DialogueService
	conversations *ConversationService
	quiz          *QuizService
	export        *ExportService
}

func newTestEnv(t *testing.T, flags string) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	projectRepo := repository.NewProjectRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	userRepo := repository.NewUserRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	castRepo := repository.NewCastRepository(db)
	dialogueRepo := repository.NewDialogueRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	policy := access.NewPolicy(memberRepo)

	return &testEnv{
		db:            db,
		projects:      NewProjectService(projectRepo, policy),
		members:       NewMemberService(memberRepo, userRepo, policy),
		folders:       NewFolderService(folderRepo, dialogueRepo, conversationRepo, policy),
		cast:          NewCastService(castRepo, policy),
		dialogues:     NewDialogueService(dialogueRepo, folderRepo, castRepo, policy),
		conversations: NewConversationService(conversationRepo, folderRepo, castRepo, policy),
		quiz:          NewQuizService(quizRepo, conversationRepo, policy),
		export: NewExportService(projectRepo, castRepo, folderRepo, dialogueRepo, conversationRepo,
			policy, featureflags.NewManager(flags)),
	}
}

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }

// assertCode asserts that err is an AppError with the given code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}
