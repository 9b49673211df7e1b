// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"strings"

	"storyloom/internal/models"

	"gorm.io/gorm"
)

// UserRepository resolves identity-provider accounts to local rows. Emails
// are matched case-insensitively.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Ensure(ctx context.Context, email, name string) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, TranslateError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, TranslateError(err, "User", email)
	}
	return &user, nil
}

// Ensure returns the user with email, creating it with name when absent.
// Concurrent callers for the same address settle on one row.
func (r *userRepository) Ensure(ctx context.Context, email, name string) (*models.User, error) {
	email = normalizeEmail(email)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	var user models.User
	err := r.db.WithContext(ctx).
		Where(models.User{Email: email}).
		Attrs(models.User{Name: name}).
		FirstOrCreate(&user).Error
	if err != nil && isUniqueConstraintError(err) {
		err = r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	}
	if err != nil {
		return nil, TranslateError(err, "User", email)
	}
	return &user, nil
}
