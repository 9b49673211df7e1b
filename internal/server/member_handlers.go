package server

import (
	"storyloom/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListMembers handles GET /api/projects/:projectId/members
// @Summary List project members
// @Tags members
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {array} models.ProjectMember
// @Security BearerAuth
// @Router /projects/{projectId}/members [get]
func (s *Server) ListMembers(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}

	members, err := s.members.ListMembers(c.UserContext(), currentUserID(c), projectID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(members)
}

// AddMember handles POST /api/projects/:projectId/members
// @Summary Add project member
// @Description Adds an existing user by email. Role defaults to member.
// @Tags members
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param request body object{email=string,role=string} true "Member"
// @Success 201 {object} models.ProjectMember
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectId}/members [post]
func (s *Server) AddMember(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	member, err := s.members.AddMember(c.UserContext(), service.AddMemberInput{
		UserID:    currentUserID(c),
		ProjectID: projectID,
		Email:     req.Email,
		Role:      req.Role,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

// UpdateMemberRole handles PUT /api/projects/:projectId/members/:memberId
// @Summary Change member role
// @Description The owner's membership is immutable.
// @Tags members
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param memberId path int true "Member ID"
// @Param request body object{role=string} true "Role"
// @Success 200 {object} models.ProjectMember
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectId}/members/{memberId} [put]
func (s *Server) UpdateMemberRole(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}
	memberID, err := s.parseID(c, "memberId")
	if err != nil {
		return nil
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	member, err := s.members.UpdateMemberRole(c.UserContext(), service.UpdateMemberRoleInput{
		UserID:    currentUserID(c),
		ProjectID: projectID,
		MemberID:  memberID,
		Role:      req.Role,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(member)
}

// RemoveMember handles DELETE /api/projects/:projectId/members/:memberId
func (s *Server) RemoveMember(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}
	memberID, err := s.parseID(c, "memberId")
	if err != nil {
		return nil
	}

	err = s.members.RemoveMember(c.UserContext(), service.RemoveMemberInput{
		UserID:    currentUserID(c),
		ProjectID: projectID,
		MemberID:  memberID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
