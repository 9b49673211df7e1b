package server

import (
	"storyloom/internal/service"

	"github.com/gofiber/fiber/v2"
)

type answerRequest struct {
	Content   string `json:"content"`
	IsCorrect bool   `json:"is_correct"`
	Order     *int   `json:"order"`
}

type questionRequest struct {
	Content           string          `json:"content"`
	Answers           []answerRequest `json:"answers"`
	PositiveReactions []string        `json:"positive_reactions"`
	NegativeReactions []string        `json:"negative_reactions"`
}

func (r questionRequest) input() service.QuestionInput {
	answers := make([]service.AnswerInput, 0, len(r.Answers))
	for _, a := range r.Answers {
		answers = append(answers, service.AnswerInput{Content: a.Content, IsCorrect: a.IsCorrect, Order: a.Order})
	}
	return service.QuestionInput{
		Content:           r.Content,
		Answers:           answers,
		PositiveReactions: r.PositiveReactions,
		NegativeReactions: r.NegativeReactions,
	}
}

// AddQuestion handles POST /api/messages/:id/questions
// @Summary Attach quiz question
// @Description Needs at least two answers with one correct, and at least one reaction of each polarity.
// @Tags quiz
// @Accept json
// @Produce json
// @Param id path int true "Message ID"
// @Param request body questionRequest true "Question"
// @Success 201 {object} models.Question
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /messages/{id}/questions [post]
func (s *Server) AddQuestion(c *fiber.Ctx) error {
	messageID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req questionRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	question, err := s.quiz.AddQuestion(c.UserContext(), service.AddQuestionInput{
		UserID:    currentUserID(c),
		MessageID: messageID,
		Question:  req.input(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(question)
}

// GetQuestion handles GET /api/questions/:id
func (s *Server) GetQuestion(c *fiber.Ctx) error {
	questionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	question, err := s.quiz.GetQuestion(c.UserContext(), currentUserID(c), questionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(question)
}

// UpdateQuestion handles PUT /api/questions/:id
// @Summary Replace quiz question
// @Description Replaces content, reactions and the whole answer set in one transaction.
// @Tags quiz
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param request body questionRequest true "Question"
// @Success 200 {object} models.Question
// @Security BearerAuth
// @Router /questions/{id} [put]
func (s *Server) UpdateQuestion(c *fiber.Ctx) error {
	questionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req questionRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	question, err := s.quiz.UpdateQuestion(c.UserContext(), service.UpdateQuestionInput{
		UserID:     currentUserID(c),
		QuestionID: questionID,
		Question:   req.input(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(question)
}

// DeleteQuestion handles DELETE /api/questions/:id
func (s *Server) DeleteQuestion(c *fiber.Ctx) error {
	questionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.quiz.DeleteQuestion(c.UserContext(), currentUserID(c), questionID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
