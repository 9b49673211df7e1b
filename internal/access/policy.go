// Package access decides what a project member may do.
package access

import (
	"context"
	"fmt"
	"log/slog"

	"storyloom/internal/middleware"
	"storyloom/internal/models"
	"storyloom/internal/observability"
)

// Capability is an action class gated by project role.
type Capability string

const (
	CapabilityRead          Capability = "read"
	CapabilityEditContent   Capability = "edit_content"
	CapabilityManageMembers Capability = "manage_members"
	CapabilityManageProject Capability = "manage_project"
	CapabilityDeleteProject Capability = "delete_project"
)

// Can reports whether role grants capability. Unknown roles grant nothing.
func Can(role models.ProjectRole, capability Capability) bool {
	switch role {
	case models.ProjectRoleOwner:
		return true
	case models.ProjectRoleAdmin:
		return capability != CapabilityDeleteProject
	case models.ProjectRoleMember:
		return capability == CapabilityRead || capability == CapabilityEditContent
	case models.ProjectRoleViewer:
		return capability == CapabilityRead
	default:
		return false
	}
}

// MemberLookup loads one membership row. A missing row is a NotFound AppError.
type MemberLookup interface {
	Find(ctx context.Context, projectID, userID uint) (*models.ProjectMember, error)
}

// Policy authorizes operations against a project.
type Policy struct {
	members MemberLookup
}

// NewPolicy creates a Policy backed by the given membership lookup.
func NewPolicy(members MemberLookup) *Policy {
	return &Policy{members: members}
}

// Authorize returns the caller's membership when it grants capability on the
// project. Non-members and insufficient roles get a Forbidden AppError.
func (p *Policy) Authorize(ctx context.Context, userID, projectID uint, capability Capability) (*models.ProjectMember, error) {
	member, err := p.members.Find(ctx, projectID, userID)
	if err != nil {
		if models.IsNotFound(err) {
			deny(ctx, projectID, capability, "not a member")
			return nil, models.NewForbiddenError("Access denied: not a member of this project")
		}
		return nil, fmt.Errorf("load membership: %w", err)
	}

	if !Can(member.Role, capability) {
		deny(ctx, projectID, capability, string(member.Role))
		return nil, models.NewForbiddenError(fmt.Sprintf("Access denied: role %s cannot %s", member.Role, capability))
	}
	return member, nil
}

// CheckMemberChange guards role changes and removals. newRole is nil for a
// removal. The owner row is immutable and ownership is never granted.
func CheckMemberChange(target *models.ProjectMember, newRole *models.ProjectRole) error {
	if target.Role == models.ProjectRoleOwner {
		return models.NewOwnerImmutableError()
	}
	if newRole != nil && *newRole == models.ProjectRoleOwner {
		return models.NewForbiddenError("Ownership cannot be assigned")
	}
	return nil
}

func deny(ctx context.Context, projectID uint, capability Capability, reason string) {
	observability.AuthorizationDenials.WithLabelValues(string(capability)).Inc()
	middleware.Logger.WarnContext(ctx, "authorization denied",
		slog.Uint64("project_id", uint64(projectID)),
		slog.String("capability", string(capability)),
		slog.String("reason", reason),
	)
}
