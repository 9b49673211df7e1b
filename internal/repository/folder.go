package repository

import (
	"context"
	"log/slog"

	"storyloom/internal/models"
	"storyloom/internal/observability"

	"gorm.io/gorm"
)

// FolderRepository defines persistence operations for folders and the
// placement of content inside them.
type FolderRepository interface {
	Create(ctx context.Context, folder *models.Folder) error
	GetByID(ctx context.Context, id uint) (*models.Folder, error)
	ListByProject(ctx context.Context, projectID uint, kind *models.FolderKind) ([]models.Folder, error)
	ListChildren(ctx context.Context, folderID uint) ([]models.Folder, error)
	ListContents(ctx context.Context, folderID uint) ([]models.Dialogue, []models.Conversation, error)
	Update(ctx context.Context, folder *models.Folder) error
	DeleteAndRescue(ctx context.Context, folder *models.Folder) error
	SetDialogueFolder(ctx context.Context, dialogueID uint, folderID *uint) error
	SetConversationFolder(ctx context.Context, conversationID uint, folderID *uint) error
}

type folderRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewFolderRepository returns a new FolderRepository implementation.
func NewFolderRepository(db *gorm.DB) FolderRepository {
	return &folderRepository{db: db, log: observability.NewRepoLogger("folders")}
}

const folderCountsSelect = "folders.*, " +
	"(SELECT COUNT(*) FROM dialogues WHERE dialogues.folder_id = folders.id) AS dialogue_count, " +
	"(SELECT COUNT(*) FROM conversations WHERE conversations.folder_id = folders.id) AS conversation_count, " +
	"(SELECT COUNT(*) FROM folders AS children WHERE children.parent_id = folders.id) AS child_count"

func (r *folderRepository) Create(ctx context.Context, folder *models.Folder) error {
	if err := r.db.WithContext(ctx).Omit("Project", "Parent").Create(folder).Error; err != nil {
		return TranslateError(err, "Folder", derefID(folder.ParentID))
	}
	return nil
}

func (r *folderRepository) GetByID(ctx context.Context, id uint) (*models.Folder, error) {
	var folder models.Folder
	err := r.db.WithContext(ctx).Model(&models.Folder{}).
		Select(folderCountsSelect).
		Where("folders.id = ?", id).
		First(&folder).Error
	if err != nil {
		return nil, TranslateError(err, "Folder", id)
	}
	return &folder, nil
}

// ListByProject returns the project's folders with their counts in creation
// order. kind nil means every kind.
func (r *folderRepository) ListByProject(ctx context.Context, projectID uint, kind *models.FolderKind) ([]models.Folder, error) {
	defer observability.TrackQuery("list", "folders")()

	var folders []models.Folder
	query := r.db.WithContext(ctx).Model(&models.Folder{}).
		Select(folderCountsSelect).
		Where("folders.project_id = ?", projectID)
	if kind != nil {
		query = query.Where("folders.kind = ?", *kind)
	}
	if err := query.Order("folders.created_at ASC, folders.id ASC").Find(&folders).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return folders, nil
}

func (r *folderRepository) ListChildren(ctx context.Context, folderID uint) ([]models.Folder, error) {
	var folders []models.Folder
	err := r.db.WithContext(ctx).Model(&models.Folder{}).
		Select(folderCountsSelect).
		Where("folders.parent_id = ?", folderID).
		Order("folders.created_at ASC, folders.id ASC").
		Find(&folders).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return folders, nil
}

// ListContents returns the dialogues and conversations filed directly in the
// folder, in id order.
func (r *folderRepository) ListContents(ctx context.Context, folderID uint) ([]models.Dialogue, []models.Conversation, error) {
	var dialogues []models.Dialogue
	if err := r.db.WithContext(ctx).Where("folder_id = ?", folderID).Order("id ASC").Find(&dialogues).Error; err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	var conversations []models.Conversation
	if err := r.db.WithContext(ctx).Where("folder_id = ?", folderID).Order("id ASC").Find(&conversations).Error; err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	return dialogues, conversations, nil
}

func (r *folderRepository) Update(ctx context.Context, folder *models.Folder) error {
	err := r.db.WithContext(ctx).Model(&models.Folder{ID: folder.ID}).Updates(map[string]interface{}{
		"name":        folder.Name,
		"description": folder.Description,
		"parent_id":   folder.ParentID,
	}).Error
	if err != nil {
		return TranslateError(err, "Folder", folder.ID)
	}
	return nil
}

// DeleteAndRescue deletes folder after moving its child folders, dialogues,
// and conversations to the folder's parent (nil parent means root).
func (r *folderRepository) DeleteAndRescue(ctx context.Context, folder *models.Folder) error {
	var rescued struct{ folders, dialogues, conversations int64 }

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Folder{}).Where("parent_id = ?", folder.ID).Update("parent_id", folder.ParentID)
		if res.Error != nil {
			return res.Error
		}
		rescued.folders = res.RowsAffected

		res = tx.Model(&models.Dialogue{}).Where("folder_id = ?", folder.ID).Update("folder_id", folder.ParentID)
		if res.Error != nil {
			return res.Error
		}
		rescued.dialogues = res.RowsAffected

		res = tx.Model(&models.Conversation{}).Where("folder_id = ?", folder.ID).Update("folder_id", folder.ParentID)
		if res.Error != nil {
			return res.Error
		}
		rescued.conversations = res.RowsAffected

		res = tx.Delete(&models.Folder{}, folder.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		r.log.Failure(ctx, "delete", err)
		return TranslateError(err, "Folder", folder.ID)
	}

	observability.FolderRescues.WithLabelValues("folder").Add(float64(rescued.folders))
	observability.FolderRescues.WithLabelValues("dialogue").Add(float64(rescued.dialogues))
	observability.FolderRescues.WithLabelValues("conversation").Add(float64(rescued.conversations))
	r.log.Mutation(ctx, "delete",
		slog.Uint64("folder_id", uint64(folder.ID)),
		slog.Uint64("rescued_to", uint64(derefID(folder.ParentID))),
		slog.Int64("rescued_folders", rescued.folders),
		slog.Int64("rescued_dialogues", rescued.dialogues),
		slog.Int64("rescued_conversations", rescued.conversations),
	)
	return nil
}

func (r *folderRepository) SetDialogueFolder(ctx context.Context, dialogueID uint, folderID *uint) error {
	res := r.db.WithContext(ctx).Model(&models.Dialogue{}).Where("id = ?", dialogueID).Update("folder_id", folderID)
	if res.Error != nil {
		return TranslateError(res.Error, "Folder", derefID(folderID))
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Dialogue", dialogueID)
	}
	return nil
}

func (r *folderRepository) SetConversationFolder(ctx context.Context, conversationID uint, folderID *uint) error {
	res := r.db.WithContext(ctx).Model(&models.Conversation{}).Where("id = ?", conversationID).Update("folder_id", folderID)
	if res.Error != nil {
		return TranslateError(res.Error, "Folder", derefID(folderID))
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Conversation", conversationID)
	}
	return nil
}
