package service

import (
	"context"
	"strings"

	"storyloom/internal/access"
	"storyloom/internal/models"
	"storyloom/internal/repository"
)

type ProjectService struct {
	projects repository.ProjectRepository
	policy   Authorizer
}

type CreateProjectInput struct {
	UserID      uint
	Name        string
	Description string
}

type UpdateProjectInput struct {
	UserID      uint
	ProjectID   uint
	Name        string
	Description string
}

func NewProjectService(projects repository.ProjectRepository, policy Authorizer) *ProjectService {
	return &ProjectService{projects: projects, policy: policy}
}

// CreateProject creates a project owned by the caller.
func (s *ProjectService) CreateProject(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	name, err := requireName(in.Name)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		UserID:      in.UserID,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// ListProjects returns the projects the user belongs to with any role.
func (s *ProjectService) ListProjects(ctx context.Context, userID uint) ([]models.Project, error) {
	return s.projects.ListForUser(ctx, userID)
}

func (s *ProjectService) GetProject(ctx context.Context, userID, projectID uint) (*models.Project, error) {
	if _, err := s.policy.Authorize(ctx, userID, projectID, access.CapabilityRead); err != nil {
		return nil, err
	}
	return s.projects.GetByID(ctx, projectID)
}

func (s *ProjectService) UpdateProject(ctx context.Context, in UpdateProjectInput) (*models.Project, error) {
	if _, err := s.policy.Authorize(ctx, in.UserID, in.ProjectID, access.CapabilityManageProject); err != nil {
		return nil, err
	}
	name, err := requireName(in.Name)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	project.Name = name
	project.Description = strings.TrimSpace(in.Description)
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject removes the project and all of its content. Owner only.
func (s *ProjectService) DeleteProject(ctx context.Context, userID, projectID uint) error {
	if _, err := s.policy.Authorize(ctx, userID, projectID, access.CapabilityDeleteProject); err != nil {
		return err
	}
	return s.projects.Delete(ctx, projectID)
}
