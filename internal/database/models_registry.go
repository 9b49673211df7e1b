package database

import "storyloom/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Parents come before children so AutoMigrate can create foreign keys in order.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Folder{},
		&models.Character{},
		&models.Mood{},
		&models.Background{},
		&models.Dialogue{},
		&models.DialogueLine{},
		&models.DialogueChoice{},
		&models.Conversation{},
		&models.Message{},
		&models.Question{},
		&models.Answer{},
	}
}
