package repository

import (
	"context"

	"storyloom/internal/cache"
	"storyloom/internal/models"

	"gorm.io/gorm"
)

// ProjectRepository defines persistence operations for projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uint) (*models.Project, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uint) error
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository returns a new ProjectRepository implementation.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

// Create inserts the project and its owner membership in one transaction.
func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User").Create(project).Error; err != nil {
			return err
		}
		owner := &models.ProjectMember{
			ProjectID: project.ID,
			UserID:    project.UserID,
			Role:      models.ProjectRoleOwner,
		}
		return tx.Omit("Project", "User").Create(owner).Error
	})
	return TranslateError(err, "User", project.UserID)
}

func (r *projectRepository) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := cache.Aside(ctx, cache.ProjectKey(id), &project, cache.ProjectTTL, func() error {
		return r.db.WithContext(ctx).First(&project, id).Error
	})
	if err != nil {
		return nil, TranslateError(err, "Project", id)
	}
	return &project, nil
}

// ListForUser returns every project the user is a member of, oldest first.
func (r *projectRepository) ListForUser(ctx context.Context, userID uint) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.user_id = ?", userID).
		Order("projects.created_at ASC, projects.id ASC").
		Find(&projects).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	err := r.db.WithContext(ctx).Model(project).
		Select("name", "description").
		Updates(map[string]interface{}{"name": project.Name, "description": project.Description}).Error
	if err != nil {
		return TranslateError(err, "Project", project.ID)
	}
	cache.InvalidateProject(ctx, project.ID)
	return nil
}

// Delete removes the project and everything it owns in one transaction.
func (r *projectRepository) Delete(ctx context.Context, id uint) error {
	var memberUserIDs []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ProjectMember{}).Where("project_id = ?", id).
			Pluck("user_id", &memberUserIDs).Error; err != nil {
			return err
		}
		if err := deleteConversationTree(tx, projectConversationIDs(tx, id)); err != nil {
			return err
		}
		if err := deleteDialogueTree(tx, projectDialogueIDs(tx, id)); err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Background{}).Error; err != nil {
			return err
		}
		characterIDs := tx.Model(&models.Character{}).Select("id").Where("project_id = ?", id)
		if err := tx.Where("character_id IN (?)", characterIDs).Delete(&models.Mood{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Character{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Folder{}).Where("project_id = ?", id).Update("parent_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Folder{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Project{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return TranslateError(err, "Project", id)
	}
	cache.InvalidateProject(ctx, id)
	for _, userID := range memberUserIDs {
		cache.InvalidateMember(ctx, id, userID)
	}
	return nil
}
