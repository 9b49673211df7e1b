package service

import (
	"context"
	"strings"

	"storyloom/internal/access"
	"storyloom/internal/models"
	"storyloom/internal/repository"
	"storyloom/internal/validation"
)

type MemberService struct {
	members repository.MemberRepository
	users   repository.UserRepository
	policy  Authorizer
}

type AddMemberInput struct {
	UserID    uint
	ProjectID uint
	Email     string
	Role      string
}

type UpdateMemberRoleInput struct {
	UserID    uint
	ProjectID uint
	MemberID  uint
	Role      string
}

type RemoveMemberInput struct {
	UserID    uint
	ProjectID uint
	MemberID  uint
}

func NewMemberService(members repository.MemberRepository, users repository.UserRepository, policy Authorizer) *MemberService {
	return &MemberService{members: members, users: users, policy: policy}
}

func (s *MemberService) ListMembers(ctx context.Context, userID, projectID uint) ([]models.ProjectMember, error) {
	if _, err := s.policy.Authorize(ctx, userID, projectID, access.CapabilityRead); err != nil {
		return nil, err
	}
	return s.members.ListByProject(ctx, projectID)
}

// AddMember invites an existing user by email. The role defaults to member
// and can never be owner.
func (s *MemberService) AddMember(ctx context.Context, in AddMemberInput) (*models.ProjectMember, error) {
	if _, err := s.policy.Authorize(ctx, in.UserID, in.ProjectID, access.CapabilityManageMembers); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	role := models.ProjectRoleMember
	if strings.TrimSpace(in.Role) != "" {
		parsed, err := models.ParseProjectRole(in.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}
	if err := access.CheckMemberChange(&models.ProjectMember{}, &role); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	member := &models.ProjectMember{ProjectID: in.ProjectID, UserID: user.ID, Role: role}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, err
	}
	return s.members.GetByID(ctx, member.ID)
}

// UpdateMemberRole changes a member's role. The owner row is immutable.
func (s *MemberService) UpdateMemberRole(ctx context.Context, in UpdateMemberRoleInput) (*models.ProjectMember, error) {
	if _, err := s.policy.Authorize(ctx, in.UserID, in.ProjectID, access.CapabilityManageMembers); err != nil {
		return nil, err
	}
	member, err := s.memberOfProject(ctx, in.ProjectID, in.MemberID)
	if err != nil {
		return nil, err
	}

	role, err := models.ParseProjectRole(in.Role)
	if err != nil {
		return nil, err
	}
	if err := access.CheckMemberChange(member, &role); err != nil {
		return nil, err
	}

	if err := s.members.UpdateRole(ctx, member, role); err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember deletes a membership. The owner cannot be removed.
func (s *MemberService) RemoveMember(ctx context.Context, in RemoveMemberInput) error {
	if _, err := s.policy.Authorize(ctx, in.UserID, in.ProjectID, access.CapabilityManageMembers); err != nil {
		return err
	}
	member, err := s.memberOfProject(ctx, in.ProjectID, in.MemberID)
	if err != nil {
		return err
	}
	if err := access.CheckMemberChange(member, nil); err != nil {
		return err
	}
	return s.members.Delete(ctx, member)
}

func (s *MemberService) memberOfProject(ctx context.Context, projectID, memberID uint) (*models.ProjectMember, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.ProjectID != projectID {
		return nil, models.NewNotFoundError("ProjectMember", memberID)
	}
	return member, nil
}
