package models

import (
	"strings"
	"time"
)

// ProjectRole defines a member's role in a project.
type ProjectRole string

const (
	// ProjectRoleOwner is held by exactly one member, the project creator.
	ProjectRoleOwner ProjectRole = "owner"
	// ProjectRoleAdmin can manage members and project settings.
	ProjectRoleAdmin ProjectRole = "admin"
	// ProjectRoleMember can edit content.
	ProjectRoleMember ProjectRole = "member"
	// ProjectRoleViewer has read-only access.
	ProjectRoleViewer ProjectRole = "viewer"
)

// ParseProjectRole parses a role name. Unknown names are a validation error.
func ParseProjectRole(raw string) (ProjectRole, error) {
	role := ProjectRole(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case ProjectRoleOwner, ProjectRoleAdmin, ProjectRoleMember, ProjectRoleViewer:
		return role, nil
	}
	return "", NewValidationError("Invalid role: must be one of owner, admin, member, viewer")
}

// Project is the tenant boundary for all narrative content.
type Project struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectMember maps users to projects and tracks role.
type ProjectMember struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	ProjectID uint        `gorm:"not null;uniqueIndex:idx_project_user" json:"project_id"`
	Project   *Project    `gorm:"foreignKey:ProjectID" json:"-"`
	UserID    uint        `gorm:"not null;uniqueIndex:idx_project_user" json:"user_id"`
	User      *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      ProjectRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
