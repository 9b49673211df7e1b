package server

import (
	"storyloom/internal/service"

	"github.com/gofiber/fiber/v2"
)

type dialogueRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	FolderID        *uint  `json:"folder_id"`
	BackgroundID    *uint  `json:"background_id"`
	IsStartDialogue bool   `json:"is_start_dialogue"`
}

func (r dialogueRequest) fields() service.DialogueFields {
	return service.DialogueFields{
		Name:            r.Name,
		Description:     r.Description,
		FolderID:        r.FolderID,
		BackgroundID:    r.BackgroundID,
		IsStartDialogue: r.IsStartDialogue,
	}
}

type lineRequest struct {
	CharacterID          *uint  `json:"character_id"`
	Text                 string `json:"text"`
	Order                int    `json:"order"`
	DisplayMode          string `json:"display_mode"`
	DisplayedCharacterID *uint  `json:"displayed_character_id"`
	DisplayedMoodID      *uint  `json:"displayed_mood_id"`
	LeftCharacterID      *uint  `json:"left_character_id"`
	LeftMoodID           *uint  `json:"left_mood_id"`
	RightCharacterID     *uint  `json:"right_character_id"`
	RightMoodID          *uint  `json:"right_mood_id"`
}

func (r lineRequest) fields() service.LineFields {
	return service.LineFields{
		CharacterID:          r.CharacterID,
		Text:                 r.Text,
		Order:                r.Order,
		DisplayMode:          r.DisplayMode,
		DisplayedCharacterID: r.DisplayedCharacterID,
		DisplayedMoodID:      r.DisplayedMoodID,
		LeftCharacterID:      r.LeftCharacterID,
		LeftMoodID:           r.LeftMoodID,
		RightCharacterID:     r.RightCharacterID,
		RightMoodID:          r.RightMoodID,
	}
}

type choiceRequest struct {
	Text           string `json:"text"`
	NextDialogueID *uint  `json:"next_dialogue_id"`
}

func (r choiceRequest) fields() service.ChoiceFields {
	return service.ChoiceFields{Text: r.Text, NextDialogueID: r.NextDialogueID}
}

// ListDialogues handles GET /api/projects/:projectId/dialogues
func (s *Server) ListDialogues(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}

	dialogues, err := s.dialogues.ListDialogues(c.UserContext(), currentUserID(c), projectID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dialogues)
}

// CreateDialogue handles POST /api/projects/:projectId/dialogues
// @Summary Create dialogue
// @Tags dialogues
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param request body dialogueRequest true "Dialogue"
// @Success 201 {object} models.Dialogue
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectId}/dialogues [post]
func (s *Server) CreateDialogue(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}
	var req dialogueRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	dialogue, err := s.dialogues.CreateDialogue(c.UserContext(), service.CreateDialogueInput{
		UserID:    currentUserID(c),
		ProjectID: projectID,
		Dialogue:  req.fields(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dialogue)
}

// GetDialogue handles GET /api/dialogues/:id
// @Summary Get dialogue
// @Description Dialogue with its lines in order and each line's choices.
// @Tags dialogues
// @Produce json
// @Param id path int true "Dialogue ID"
// @Success 200 {object} models.Dialogue
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dialogues/{id} [get]
func (s *Server) GetDialogue(c *fiber.Ctx) error {
	dialogueID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	dialogue, err := s.dialogues.GetDialogue(c.UserContext(), currentUserID(c), dialogueID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dialogue)
}

// UpdateDialogue handles PUT /api/dialogues/:id
func (s *Server) UpdateDialogue(c *fiber.Ctx) error {
	dialogueID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req dialogueRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	dialogue, err := s.dialogues.UpdateDialogue(c.UserContext(), service.UpdateDialogueInput{
		UserID:     currentUserID(c),
		DialogueID: dialogueID,
		Dialogue:   req.fields(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dialogue)
}

// DeleteDialogue handles DELETE /api/dialogues/:id
func (s *Server) DeleteDialogue(c *fiber.Ctx) error {
	dialogueID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.dialogues.DeleteDialogue(c.UserContext(), currentUserID(c), dialogueID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateLine handles POST /api/dialogues/:id/lines
// @Summary Add dialogue line
// @Description display_mode is single (uses displayed_*) or dual (uses left_* and right_*).
// @Tags dialogues
// @Accept json
// @Produce json
// @Param id path int true "Dialogue ID"
// @Param request body lineRequest true "Line"
// @Success 201 {object} models.DialogueLine
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dialogues/{id}/lines [post]
func (s *Server) CreateLine(c *fiber.Ctx) error {
	dialogueID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req lineRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	line, err := s.dialogues.CreateLine(c.UserContext(), service.CreateLineInput{
		UserID:     currentUserID(c),
		DialogueID: dialogueID,
		Line:       req.fields(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(line)
}

// UpdateLine handles PUT /api/lines/:id
func (s *Server) UpdateLine(c *fiber.Ctx) error {
	lineID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req lineRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	line, err := s.dialogues.UpdateLine(c.UserContext(), service.UpdateLineInput{
		UserID: currentUserID(c),
		LineID: lineID,
		Line:   req.fields(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(line)
}

// DeleteLine handles DELETE /api/lines/:id
func (s *Server) DeleteLine(c *fiber.Ctx) error {
	lineID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.dialogues.DeleteLine(c.UserContext(), currentUserID(c), lineID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateChoice handles POST /api/lines/:id/choices
// @Summary Add choice
// @Description next_dialogue_id must name a dialogue in the same project, or be null to end the branch.
// @Tags dialogues
// @Accept json
// @Produce json
// @Param id path int true "Line ID"
// @Param request body choiceRequest true "Choice"
// @Success 201 {object} models.DialogueChoice
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /lines/{id}/choices [post]
func (s *Server) CreateChoice(c *fiber.Ctx) error {
	lineID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req choiceRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	choice, err := s.dialogues.CreateChoice(c.UserContext(), service.CreateChoiceInput{
		UserID: currentUserID(c),
		LineID: lineID,
		Choice: req.fields(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(choice)
}

// UpdateChoice handles PUT /api/choices/:id
func (s *Server) UpdateChoice(c *fiber.Ctx) error {
	choiceID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req choiceRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	choice, err := s.dialogues.UpdateChoice(c.UserContext(), service.UpdateChoiceInput{
		UserID:   currentUserID(c),
		ChoiceID: choiceID,
		Choice:   req.fields(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(choice)
}

// DeleteChoice handles DELETE /api/choices/:id
func (s *Server) DeleteChoice(c *fiber.Ctx) error {
	choiceID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.dialogues.DeleteChoice(c.UserContext(), currentUserID(c), choiceID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
