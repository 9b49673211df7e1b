// Package testutil provides shared test databases and fixtures for backend tests.
package testutil

import (
	"fmt"
	"testing"

	"storyloom/internal/database"
	"storyloom/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB returns a migrated in-memory SQLite database with foreign keys
// enforced. It is held to one connection, so code under test must run every
// statement of a transaction on the transaction handle.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// CreateUser inserts an identity user with the given email.
func CreateUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Name: email, Email: email}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateProject inserts a project owned by owner together with the owner
// membership row.
func CreateProject(t *testing.T, db *gorm.DB, owner *models.User, name string) *models.Project {
	t.Helper()
	project := &models.Project{Name: name, UserID: owner.ID}
	require.NoError(t, db.Omit("User").Create(project).Error)
	AddMember(t, db, project, owner, models.ProjectRoleOwner)
	return project
}

// AddMember inserts a membership row.
func AddMember(t *testing.T, db *gorm.DB, project *models.Project, user *models.User, role models.ProjectRole) *models.ProjectMember {
	t.Helper()
	member := &models.ProjectMember{ProjectID: project.ID, UserID: user.ID, Role: role}
	require.NoError(t, db.Omit("Project", "User").Create(member).Error)
	return member
}

// CreateCharacter inserts a character with a tag derived from name.
func CreateCharacter(t *testing.T, db *gorm.DB, project *models.Project, tag string) *models.Character {
	t.Helper()
	character := &models.Character{ProjectID: project.ID, Name: tag, Tag: tag}
	require.NoError(t, db.Omit("Project", "Moods").Create(character).Error)
	return character
}

// CreateMood inserts a mood owned by character.
func CreateMood(t *testing.T, db *gorm.DB, character *models.Character, name string) *models.Mood {
	t.Helper()
	mood := &models.Mood{ProjectID: character.ProjectID, CharacterID: character.ID, Name: name}
	require.NoError(t, db.Create(mood).Error)
	return mood
}

// CreateFolder inserts a folder under parent (nil for a root folder).
func CreateFolder(t *testing.T, db *gorm.DB, project *models.Project, kind models.FolderKind, name string, parent *models.Folder) *models.Folder {
	t.Helper()
	folder := &models.Folder{ProjectID: project.ID, Kind: kind, Name: name}
	if parent != nil {
		folder.ParentID = &parent.ID
	}
	require.NoError(t, db.Omit("Project", "Parent").Create(folder).Error)
	return folder
}

// CreateDialogue inserts an empty dialogue, optionally inside folder.
func CreateDialogue(t *testing.T, db *gorm.DB, project *models.Project, name string, folder *models.Folder) *models.Dialogue {
	t.Helper()
	dialogue := &models.Dialogue{ProjectID: project.ID, Name: name}
	if folder != nil {
		dialogue.FolderID = &folder.ID
	}
	require.NoError(t, db.Omit("Project", "Folder", "Background", "Lines").Create(dialogue).Error)
	return dialogue
}

// CreateConversation inserts an empty conversation, optionally inside folder.
func CreateConversation(t *testing.T, db *gorm.DB, project *models.Project, name string, folder *models.Folder) *models.Conversation {
	t.Helper()
	conversation := &models.Conversation{ProjectID: project.ID, Name: name}
	if folder != nil {
		conversation.FolderID = &folder.ID
	}
	require.NoError(t, db.Omit("Project", "Folder", "Participants", "Messages").Create(conversation).Error)
	return conversation
}

// Email returns a unique address for the n-th fixture user of a test.
func Email(n int) string {
	return fmt.Sprintf("writer%d@example.com", n)
}
