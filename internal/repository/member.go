package repository

import (
	"context"

	"storyloom/internal/cache"
	"storyloom/internal/models"

	"gorm.io/gorm"
)

// MemberRepository defines persistence operations for project memberships.
type MemberRepository interface {
	Find(ctx context.Context, projectID, userID uint) (*models.ProjectMember, error)
	GetByID(ctx context.Context, id uint) (*models.ProjectMember, error)
	ListByProject(ctx context.Context, projectID uint) ([]models.ProjectMember, error)
	Create(ctx context.Context, member *models.ProjectMember) error
	UpdateRole(ctx context.Context, member *models.ProjectMember, role models.ProjectRole) error
	Delete(ctx context.Context, member *models.ProjectMember) error
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository returns a new MemberRepository implementation.
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// Find returns the membership of userID in projectID. It is read on every
// authorized request, so the row is cached briefly and invalidated on change.
func (r *memberRepository) Find(ctx context.Context, projectID, userID uint) (*models.ProjectMember, error) {
	var member models.ProjectMember
	err := cache.Aside(ctx, cache.MemberKey(projectID, userID), &member, cache.MemberTTL, func() error {
		return r.db.WithContext(ctx).
			Where("project_id = ? AND user_id = ?", projectID, userID).
			First(&member).Error
	})
	if err != nil {
		return nil, TranslateError(err, "ProjectMember", userID)
	}
	return &member, nil
}

func (r *memberRepository) GetByID(ctx context.Context, id uint) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := r.db.WithContext(ctx).Preload("User").First(&member, id).Error; err != nil {
		return nil, TranslateError(err, "ProjectMember", id)
	}
	return &member, nil
}

func (r *memberRepository) ListByProject(ctx context.Context, projectID uint) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&members).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return members, nil
}

func (r *memberRepository) Create(ctx context.Context, member *models.ProjectMember) error {
	if err := r.db.WithContext(ctx).Omit("Project", "User").Create(member).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User is already a member of this project")
		}
		return TranslateError(err, "User", member.UserID)
	}
	cache.InvalidateMember(ctx, member.ProjectID, member.UserID)
	return nil
}

func (r *memberRepository) UpdateRole(ctx context.Context, member *models.ProjectMember, role models.ProjectRole) error {
	if err := r.db.WithContext(ctx).Model(member).Update("role", role).Error; err != nil {
		return TranslateError(err, "ProjectMember", member.ID)
	}
	member.Role = role
	cache.InvalidateMember(ctx, member.ProjectID, member.UserID)
	return nil
}

func (r *memberRepository) Delete(ctx context.Context, member *models.ProjectMember) error {
	if err := r.db.WithContext(ctx).Delete(&models.ProjectMember{}, member.ID).Error; err != nil {
		return TranslateError(err, "ProjectMember", member.ID)
	}
	cache.InvalidateMember(ctx, member.ProjectID, member.UserID)
	return nil
}
