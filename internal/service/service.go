// Package service holds the business rules of the authoring API. Every
// operation resolves the project that owns its target and authorizes the
// caller before anything is written.
package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"storyloom/internal/access"
	"storyloom/internal/models"
	"storyloom/internal/repository"
)

// Authorizer gates project operations by the caller's role.
type Authorizer interface {
	Authorize(ctx context.Context, userID, projectID uint, capability access.Capability) (*models.ProjectMember, error)
}

const (
	maxNameLen = 200
	maxTextLen = 20000
)

// requireText trims raw and rejects it when empty or longer than limit runes.
func requireText(raw, field string, limit int) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", models.NewValidationError(field + " is required")
	}
	if utf8.RuneCountInString(value) > limit {
		return "", models.NewValidationError(fmt.Sprintf("%s too long (max %d characters)", field, limit))
	}
	return value, nil
}

func requireName(raw string) (string, error) {
	return requireText(raw, "Name", maxNameLen)
}

// folderForContent loads folderID for filing content of kind in projectID.
// A folder of another project is reported as missing.
func folderForContent(ctx context.Context, folders repository.FolderRepository, projectID, folderID uint, kind models.FolderKind) (*models.Folder, error) {
	folder, err := folders.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.ProjectID != projectID {
		return nil, models.NewNotFoundError("Folder", folderID)
	}
	if folder.Kind != kind {
		return nil, models.NewIntegrityError(fmt.Sprintf("Folder %d holds %s content, not %s", folderID, folder.Kind, kind))
	}
	return folder, nil
}
