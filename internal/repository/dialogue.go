package repository

import (
	"context"

	"storyloom/internal/models"
	"storyloom/internal/observability"

	"gorm.io/gorm"
)

// DialogueRepository defines persistence operations for the dialogue graph:
// dialogues, their ordered lines, and the choices that link dialogues.
type DialogueRepository interface {
	Create(ctx context.Context, dialogue *models.Dialogue) error
	GetByID(ctx context.Context, id uint) (*models.Dialogue, error)
	GetWithLines(ctx context.Context, id uint) (*models.Dialogue, error)
	ListByProject(ctx context.Context, projectID uint) ([]models.Dialogue, error)
	ExistsInProject(ctx context.Context, projectID, dialogueID uint) (bool, error)
	Update(ctx context.Context, dialogue *models.Dialogue) error
	Delete(ctx context.Context, id uint) error

	CreateLine(ctx context.Context, line *models.DialogueLine) error
	GetLine(ctx context.Context, id uint) (*models.DialogueLine, error)
	UpdateLine(ctx context.Context, line *models.DialogueLine) error
	DeleteLine(ctx context.Context, id uint) error

	CreateChoice(ctx context.Context, choice *models.DialogueChoice) error
	GetChoice(ctx context.Context, id uint) (*models.DialogueChoice, error)
	UpdateChoice(ctx context.Context, choice *models.DialogueChoice) error
	DeleteChoice(ctx context.Context, id uint) error
}

type dialogueRepository struct {
	db *gorm.DB
}

// NewDialogueRepository returns a new DialogueRepository implementation.
func NewDialogueRepository(db *gorm.DB) DialogueRepository {
	return &dialogueRepository{db: db}
}

// withGraph preloads lines in (order, id) order with their speaker and
// choices in id order.
func withGraph(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Background").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_order ASC, id ASC")
		}).
		Preload("Lines.Character").
		Preload("Lines.Choices", orderByID)
}

func (r *dialogueRepository) Create(ctx context.Context, dialogue *models.Dialogue) error {
	if err := r.db.WithContext(ctx).Omit("Project", "Folder", "Background", "Lines").Create(dialogue).Error; err != nil {
		return TranslateError(err, "Project", dialogue.ProjectID)
	}
	return nil
}

func (r *dialogueRepository) GetByID(ctx context.Context, id uint) (*models.Dialogue, error) {
	var dialogue models.Dialogue
	if err := r.db.WithContext(ctx).First(&dialogue, id).Error; err != nil {
		return nil, TranslateError(err, "Dialogue", id)
	}
	return &dialogue, nil
}

func (r *dialogueRepository) GetWithLines(ctx context.Context, id uint) (*models.Dialogue, error) {
	var dialogue models.Dialogue
	if err := withGraph(r.db.WithContext(ctx)).First(&dialogue, id).Error; err != nil {
		return nil, TranslateError(err, "Dialogue", id)
	}
	return &dialogue, nil
}

func (r *dialogueRepository) ListByProject(ctx context.Context, projectID uint) ([]models.Dialogue, error) {
	defer observability.TrackQuery("list", "dialogues")()

	var dialogues []models.Dialogue
	err := withGraph(r.db.WithContext(ctx)).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&dialogues).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return dialogues, nil
}

// ExistsInProject reports whether dialogueID names a dialogue of projectID.
func (r *dialogueRepository) ExistsInProject(ctx context.Context, projectID, dialogueID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Dialogue{}).
		Where("id = ? AND project_id = ?", dialogueID, projectID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *dialogueRepository) Update(ctx context.Context, dialogue *models.Dialogue) error {
	err := r.db.WithContext(ctx).Model(&models.Dialogue{ID: dialogue.ID}).Updates(map[string]interface{}{
		"name":              dialogue.Name,
		"description":       dialogue.Description,
		"folder_id":         dialogue.FolderID,
		"background_id":     dialogue.BackgroundID,
		"is_start_dialogue": dialogue.IsStartDialogue,
	}).Error
	return TranslateError(err, "Dialogue", dialogue.ID)
}

// Delete removes the dialogue with its lines and their choices. Choices in
// other dialogues that target it are left dangling.
func (r *dialogueRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Dialogue{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return gorm.ErrRecordNotFound
		}
		return deleteDialogueTree(tx, []uint{id})
	})
	return TranslateError(err, "Dialogue", id)
}

func (r *dialogueRepository) CreateLine(ctx context.Context, line *models.DialogueLine) error {
	if err := r.db.WithContext(ctx).Omit("Character", "Choices").Create(line).Error; err != nil {
		return TranslateError(err, "Dialogue", line.DialogueID)
	}
	return nil
}

func (r *dialogueRepository) GetLine(ctx context.Context, id uint) (*models.DialogueLine, error) {
	var line models.DialogueLine
	if err := r.db.WithContext(ctx).Preload("Choices", orderByID).First(&line, id).Error; err != nil {
		return nil, TranslateError(err, "DialogueLine", id)
	}
	return &line, nil
}

func (r *dialogueRepository) UpdateLine(ctx context.Context, line *models.DialogueLine) error {
	err := r.db.WithContext(ctx).Model(&models.DialogueLine{ID: line.ID}).Updates(map[string]interface{}{
		"character_id":           line.CharacterID,
		"text":                   line.Text,
		"line_order":             line.Order,
		"display_mode":           line.DisplayMode,
		"displayed_character_id": line.DisplayedCharacterID,
		"displayed_mood_id":      line.DisplayedMoodID,
		"left_character_id":      line.LeftCharacterID,
		"left_mood_id":           line.LeftMoodID,
		"right_character_id":     line.RightCharacterID,
		"right_mood_id":          line.RightMoodID,
	}).Error
	return TranslateError(err, "DialogueLine", line.ID)
}

// DeleteLine removes the line and its choices.
func (r *dialogueRepository) DeleteLine(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("line_id = ?", id).Delete(&models.DialogueChoice{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.DialogueLine{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return TranslateError(err, "DialogueLine", id)
}

func (r *dialogueRepository) CreateChoice(ctx context.Context, choice *models.DialogueChoice) error {
	if err := r.db.WithContext(ctx).Create(choice).Error; err != nil {
		return TranslateError(err, "DialogueLine", choice.LineID)
	}
	return nil
}

func (r *dialogueRepository) GetChoice(ctx context.Context, id uint) (*models.DialogueChoice, error) {
	var choice models.DialogueChoice
	if err := r.db.WithContext(ctx).First(&choice, id).Error; err != nil {
		return nil, TranslateError(err, "DialogueChoice", id)
	}
	return &choice, nil
}

func (r *dialogueRepository) UpdateChoice(ctx context.Context, choice *models.DialogueChoice) error {
	err := r.db.WithContext(ctx).Model(&models.DialogueChoice{ID: choice.ID}).Updates(map[string]interface{}{
		"text":             choice.Text,
		"next_dialogue_id": choice.NextDialogueID,
	}).Error
	return TranslateError(err, "DialogueChoice", choice.ID)
}

func (r *dialogueRepository) DeleteChoice(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.DialogueChoice{}, id)
	if res.Error != nil {
		return TranslateError(res.Error, "DialogueChoice", id)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("DialogueChoice", id)
	}
	return nil
}
