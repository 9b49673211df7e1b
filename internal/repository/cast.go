package repository

import (
	"context"

	"storyloom/internal/models"

	"gorm.io/gorm"
)

// CastRepository defines persistence operations for characters, their moods,
// and backgrounds.
type CastRepository interface {
	CreateCharacter(ctx context.Context, character *models.Character) error
	GetCharacter(ctx context.Context, id uint) (*models.Character, error)
	ListCharacters(ctx context.Context, projectID uint) ([]models.Character, error)
	UpdateCharacter(ctx context.Context, character *models.Character) error
	DeleteCharacter(ctx context.Context, id uint) error

	CreateMood(ctx context.Context, mood *models.Mood) error
	GetMood(ctx context.Context, id uint) (*models.Mood, error)
	ListMoods(ctx context.Context, projectID uint) ([]models.Mood, error)
	UpdateMood(ctx context.Context, mood *models.Mood) error
	DeleteMood(ctx context.Context, id uint) error

	CreateBackground(ctx context.Context, background *models.Background) error
	GetBackground(ctx context.Context, id uint) (*models.Background, error)
	ListBackgrounds(ctx context.Context, projectID uint) ([]models.Background, error)
	UpdateBackground(ctx context.Context, background *models.Background) error
	DeleteBackground(ctx context.Context, id uint) error
}

type castRepository struct {
	db *gorm.DB
}

// NewCastRepository returns a new CastRepository implementation.
func NewCastRepository(db *gorm.DB) CastRepository {
	return &castRepository{db: db}
}

// displaySlotColumns are the character/mood column pairs of a line's display binding.
var displaySlotColumns = []struct{ character, mood string }{
	{"displayed_character_id", "displayed_mood_id"},
	{"left_character_id", "left_mood_id"},
	{"right_character_id", "right_mood_id"},
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func (r *castRepository) CreateCharacter(ctx context.Context, character *models.Character) error {
	if err := r.db.WithContext(ctx).Omit("Project", "Moods").Create(character).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A character with this tag already exists in the project")
		}
		return TranslateError(err, "Project", character.ProjectID)
	}
	return nil
}

func (r *castRepository) GetCharacter(ctx context.Context, id uint) (*models.Character, error) {
	var character models.Character
	if err := r.db.WithContext(ctx).Preload("Moods", orderByID).First(&character, id).Error; err != nil {
		return nil, TranslateError(err, "Character", id)
	}
	return &character, nil
}

func (r *castRepository) ListCharacters(ctx context.Context, projectID uint) ([]models.Character, error) {
	var characters []models.Character
	err := r.db.WithContext(ctx).
		Preload("Moods", orderByID).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&characters).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return characters, nil
}

func (r *castRepository) UpdateCharacter(ctx context.Context, character *models.Character) error {
	err := r.db.WithContext(ctx).Model(&models.Character{ID: character.ID}).Updates(map[string]interface{}{
		"name":        character.Name,
		"tag":         character.Tag,
		"color":       character.Color,
		"description": character.Description,
	}).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A character with this tag already exists in the project")
		}
		return TranslateError(err, "Character", character.ID)
	}
	return nil
}

// DeleteCharacter removes the character and its moods. Lines keep existing
// with every reference to the character or its moods cleared, messages become
// narrator messages, and conversations drop the participant.
func (r *castRepository) DeleteCharacter(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		moodIDs := tx.Model(&models.Mood{}).Select("id").Where("character_id = ?", id)

		if err := tx.Model(&models.DialogueLine{}).Where("character_id = ?", id).
			Update("character_id", nil).Error; err != nil {
			return err
		}
		for _, slot := range displaySlotColumns {
			if err := tx.Model(&models.DialogueLine{}).Where(slot.character+" = ?", id).
				Update(slot.character, nil).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.DialogueLine{}).Where(slot.mood+" IN (?)", moodIDs).
				Update(slot.mood, nil).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Message{}).Where("character_id = ?", id).Update("character_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM conversation_participants WHERE character_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("character_id = ?", id).Delete(&models.Mood{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.Character{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return TranslateError(err, "Character", id)
}

func (r *castRepository) CreateMood(ctx context.Context, mood *models.Mood) error {
	if err := r.db.WithContext(ctx).Create(mood).Error; err != nil {
		return TranslateError(err, "Character", mood.CharacterID)
	}
	return nil
}

func (r *castRepository) GetMood(ctx context.Context, id uint) (*models.Mood, error) {
	var mood models.Mood
	if err := r.db.WithContext(ctx).First(&mood, id).Error; err != nil {
		return nil, TranslateError(err, "Mood", id)
	}
	return &mood, nil
}

func (r *castRepository) ListMoods(ctx context.Context, projectID uint) ([]models.Mood, error) {
	var moods []models.Mood
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id ASC").Find(&moods).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return moods, nil
}

func (r *castRepository) UpdateMood(ctx context.Context, mood *models.Mood) error {
	if err := r.db.WithContext(ctx).Model(&models.Mood{ID: mood.ID}).Update("name", mood.Name).Error; err != nil {
		return TranslateError(err, "Mood", mood.ID)
	}
	return nil
}

// DeleteMood removes the mood and clears it from every display slot.
func (r *castRepository) DeleteMood(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, slot := range displaySlotColumns {
			if err := tx.Model(&models.DialogueLine{}).Where(slot.mood+" = ?", id).Update(slot.mood, nil).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Mood{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return TranslateError(err, "Mood", id)
}

func (r *castRepository) CreateBackground(ctx context.Context, background *models.Background) error {
	if err := r.db.WithContext(ctx).Omit("Project").Create(background).Error; err != nil {
		return TranslateError(err, "Project", background.ProjectID)
	}
	return nil
}

func (r *castRepository) GetBackground(ctx context.Context, id uint) (*models.Background, error) {
	var background models.Background
	if err := r.db.WithContext(ctx).First(&background, id).Error; err != nil {
		return nil, TranslateError(err, "Background", id)
	}
	return &background, nil
}

func (r *castRepository) ListBackgrounds(ctx context.Context, projectID uint) ([]models.Background, error) {
	var backgrounds []models.Background
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id ASC").Find(&backgrounds).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return backgrounds, nil
}

func (r *castRepository) UpdateBackground(ctx context.Context, background *models.Background) error {
	err := r.db.WithContext(ctx).Model(&models.Background{ID: background.ID}).Updates(map[string]interface{}{
		"name":      background.Name,
		"image_url": background.ImageURL,
	}).Error
	return TranslateError(err, "Background", background.ID)
}

// DeleteBackground removes the background and unsets it on dialogues.
func (r *castRepository) DeleteBackground(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Dialogue{}).Where("background_id = ?", id).Update("background_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Background{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return TranslateError(err, "Background", id)
}
