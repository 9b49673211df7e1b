package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags handles GET /api/projects/:projectId/feature-flags and
// returns every configured flag evaluated for the project. Any member may
// read them.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}
	if _, err := s.projects.GetProject(c.UserContext(), currentUserID(c), projectID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"project_id": projectID,
		"flags":      s.featureFlags.Snapshot(projectID),
	})
}
