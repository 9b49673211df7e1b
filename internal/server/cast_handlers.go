package server

import (
	"storyloom/internal/service"

	"github.com/gofiber/fiber/v2"
)

type characterRequest struct {
	Name        string `json:"name"`
	Tag         string `json:"tag"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

func (r characterRequest) fields() service.CharacterFields {
	return service.CharacterFields{Name: r.Name, Tag: r.Tag, Color: r.Color, Description: r.Description}
}

type nameRequest struct {
	Name string `json:"name"`
}

type backgroundRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// ListCharacters handles GET /api/projects/:projectId/characters
// @Summary List characters
// @Description Characters with their moods, in creation order.
// @Tags cast
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {array} models.Character
// @Security BearerAuth
// @Router /projects/{projectId}/characters [get]
func (s *Server) ListCharacters(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}

	characters, err := s.cast.ListCharacters(c.UserContext(), currentUserID(c), projectID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(characters)
}

// CreateCharacter handles POST /api/projects/:projectId/characters
// @Summary Create character
// @Tags cast
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param request body characterRequest true "Character"
// @Success 201 {object} models.Character
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectId}/characters [post]
func (s *Server) CreateCharacter(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}
	var req characterRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	character, err := s.cast.CreateCharacter(c.UserContext(), service.CreateCharacterInput{
		UserID:    currentUserID(c),
		ProjectID: projectID,
		Character: req.fields(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(character)
}

// GetCharacter handles GET /api/characters/:id
func (s *Server) GetCharacter(c *fiber.Ctx) error {
	characterID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	character, err := s.cast.GetCharacter(c.UserContext(), currentUserID(c), characterID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(character)
}

// UpdateCharacter handles PUT /api/characters/:id
func (s *Server) UpdateCharacter(c *fiber.Ctx) error {
	characterID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req characterRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	character, err := s.cast.UpdateCharacter(c.UserContext(), service.UpdateCharacterInput{
		UserID:      currentUserID(c),
		CharacterID: characterID,
		Character:   req.fields(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(character)
}

// DeleteCharacter handles DELETE /api/characters/:id
// @Summary Delete character
// @Description Lines and messages keep existing with the speaker cleared.
// @Tags cast
// @Param id path int true "Character ID"
// @Success 204
// @Security BearerAuth
// @Router /characters/{id} [delete]
func (s *Server) DeleteCharacter(c *fiber.Ctx) error {
	characterID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.cast.DeleteCharacter(c.UserContext(), currentUserID(c), characterID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListMoods handles GET /api/projects/:projectId/moods
func (s *Server) ListMoods(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}

	moods, err := s.cast.ListMoods(c.UserContext(), currentUserID(c), projectID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(moods)
}

// CreateMood handles POST /api/characters/:id/moods
func (s *Server) CreateMood(c *fiber.Ctx) error {
	characterID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req nameRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	mood, err := s.cast.CreateMood(c.UserContext(), service.CreateMoodInput{
		UserID:      currentUserID(c),
		CharacterID: characterID,
		Name:        req.Name,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(mood)
}

// UpdateMood handles PUT /api/moods/:id
func (s *Server) UpdateMood(c *fiber.Ctx) error {
	moodID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req nameRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	mood, err := s.cast.UpdateMood(c.UserContext(), service.UpdateMoodInput{
		UserID: currentUserID(c),
		MoodID: moodID,
		Name:   req.Name,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(mood)
}

// DeleteMood handles DELETE /api/moods/:id
func (s *Server) DeleteMood(c *fiber.Ctx) error {
	moodID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.cast.DeleteMood(c.UserContext(), currentUserID(c), moodID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListBackgrounds handles GET /api/projects/:projectId/backgrounds
func (s *Server) ListBackgrounds(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}

	backgrounds, err := s.cast.ListBackgrounds(c.UserContext(), currentUserID(c), projectID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(backgrounds)
}

// CreateBackground handles POST /api/projects/:projectId/backgrounds
// @Summary Create background
// @Tags cast
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param request body backgroundRequest true "Background"
// @Success 201 {object} models.Background
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectId}/backgrounds [post]
func (s *Server) CreateBackground(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}
	var req backgroundRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	background, err := s.cast.CreateBackground(c.UserContext(), service.CreateBackgroundInput{
		UserID:     currentUserID(c),
		ProjectID:  projectID,
		Background: service.BackgroundFields{Name: req.Name, ImageURL: req.ImageURL},
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(background)
}

// UpdateBackground handles PUT /api/backgrounds/:id
func (s *Server) UpdateBackground(c *fiber.Ctx) error {
	backgroundID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req backgroundRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	background, err := s.cast.UpdateBackground(c.UserContext(), service.UpdateBackgroundInput{
		UserID:       currentUserID(c),
		BackgroundID: backgroundID,
		Background:   service.BackgroundFields{Name: req.Name, ImageURL: req.ImageURL},
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(background)
}

// DeleteBackground handles DELETE /api/backgrounds/:id
func (s *Server) DeleteBackground(c *fiber.Ctx) error {
	backgroundID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.cast.DeleteBackground(c.UserContext(), currentUserID(c), backgroundID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
