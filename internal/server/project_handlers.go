package server

import (
	"fmt"

	"storyloom/internal/service"

	"github.com/gofiber/fiber/v2"
)

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GetMe handles GET /api/me
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.userRepo.GetByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ListProjects handles GET /api/projects
// @Summary List projects
// @Description Projects the caller owns or is a member of.
// @Tags projects
// @Produce json
// @Success 200 {array} models.Project
// @Security BearerAuth
// @Router /projects [get]
func (s *Server) ListProjects(c *fiber.Ctx) error {
	projects, err := s.projects.ListProjects(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(projects)
}

// CreateProject handles POST /api/projects
// @Summary Create project
// @Description The caller becomes the project owner.
// @Tags projects
// @Accept json
// @Produce json
// @Param request body projectRequest true "Project"
// @Success 201 {object} models.Project
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /projects [post]
func (s *Server) CreateProject(c *fiber.Ctx) error {
	var req projectRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	project, err := s.projects.CreateProject(c.UserContext(), service.CreateProjectInput{
		UserID:      currentUserID(c),
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// GetProject handles GET /api/projects/:projectId
func (s *Server) GetProject(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}

	project, err := s.projects.GetProject(c.UserContext(), currentUserID(c), projectID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

// UpdateProject handles PUT /api/projects/:projectId
// @Summary Update project
// @Tags projects
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param request body projectRequest true "Project"
// @Success 200 {object} models.Project
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectId} [put]
func (s *Server) UpdateProject(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}
	var req projectRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	project, err := s.projects.UpdateProject(c.UserContext(), service.UpdateProjectInput{
		UserID:      currentUserID(c),
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

// DeleteProject handles DELETE /api/projects/:projectId
// @Summary Delete project
// @Description Owner only. Removes every folder, dialogue, conversation and cast member.
// @Tags projects
// @Param projectId path int true "Project ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectId} [delete]
func (s *Server) DeleteProject(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}

	if err := s.projects.DeleteProject(c.UserContext(), currentUserID(c), projectID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ExportProject handles GET /api/projects/:projectId/export?format=json|yaml
// @Summary Export project
// @Description Deterministic runtime document of the whole project.
// @Tags export
// @Produce json
// @Produce application/yaml
// @Param projectId path int true "Project ID"
// @Param format query string false "json (default) or yaml"
// @Param download query bool false "Send as attachment"
// @Success 200 {object} export.Document
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectId}/export [get]
func (s *Server) ExportProject(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}

	payload, contentType, err := s.export.ExportEncoded(c.UserContext(), currentUserID(c), projectID, c.Query("format"))
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, contentType+"; charset=utf-8")
	if c.QueryBool("download") {
		ext := "json"
		if contentType != "application/json" {
			ext = "yaml"
		}
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="project-%d.%s"`, projectID, ext))
	}
	return c.Send(payload)
}
