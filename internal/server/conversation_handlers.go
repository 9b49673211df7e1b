package server

import (
	"time"

	"storyloom/internal/service"

	"github.com/gofiber/fiber/v2"
)

type conversationRequest struct {
	Name           string `json:"name"`
	FolderID       *uint  `json:"folder_id"`
	IsGroupChat    bool   `json:"is_group_chat"`
	ParticipantIDs []uint `json:"participant_ids"`
}

func (r conversationRequest) fields() service.ConversationFields {
	return service.ConversationFields{Name: r.Name, FolderID: r.FolderID, IsGroupChat: r.IsGroupChat}
}

type messageRequest struct {
	CharacterID   *uint      `json:"character_id"`
	Text          string     `json:"text"`
	Timestamp     *time.Time `json:"timestamp"`
	IsRead        bool       `json:"is_read"`
	MessageType   string     `json:"message_type"`
	AttachmentURL string     `json:"attachment_url"`
}

func (r messageRequest) fields() service.MessageFields {
	return service.MessageFields{
		CharacterID:   r.CharacterID,
		Text:          r.Text,
		Timestamp:     r.Timestamp,
		IsRead:        r.IsRead,
		Type:          r.MessageType,
		AttachmentURL: r.AttachmentURL,
	}
}

// ListConversations handles GET /api/projects/:projectId/conversations
func (s *Server) ListConversations(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}

	conversations, err := s.conversations.ListConversations(c.UserContext(), currentUserID(c), projectID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(conversations)
}

// CreateConversation handles POST /api/projects/:projectId/conversations
// @Summary Create conversation
// @Tags conversations
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param request body conversationRequest true "Conversation"
// @Success 201 {object} models.Conversation
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectId}/conversations [post]
func (s *Server) CreateConversation(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}
	var req conversationRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	conversation, err := s.conversations.CreateConversation(c.UserContext(), service.CreateConversationInput{
		UserID:         currentUserID(c),
		ProjectID:      projectID,
		Conversation:   req.fields(),
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(conversation)
}

// GetConversation handles GET /api/conversations/:id
// @Summary Get conversation
// @Description Conversation with participants and messages in timestamp order.
// @Tags conversations
// @Produce json
// @Param id path int true "Conversation ID"
// @Success 200 {object} models.Conversation
// @Security BearerAuth
// @Router /conversations/{id} [get]
func (s *Server) GetConversation(c *fiber.Ctx) error {
	conversationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	conversation, err := s.conversations.GetConversation(c.UserContext(), currentUserID(c), conversationID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(conversation)
}

// UpdateConversation handles PUT /api/conversations/:id
func (s *Server) UpdateConversation(c *fiber.Ctx) error {
	conversationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req conversationRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	conversation, err := s.conversations.UpdateConversation(c.UserContext(), service.UpdateConversationInput{
		UserID:         currentUserID(c),
		ConversationID: conversationID,
		Conversation:   req.fields(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(conversation)
}

// SetParticipants handles PUT /api/conversations/:id/participants
func (s *Server) SetParticipants(c *fiber.Ctx) error {
	conversationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		CharacterIDs []uint `json:"character_ids"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	conversation, err := s.conversations.SetParticipants(c.UserContext(), service.SetParticipantsInput{
		UserID:         currentUserID(c),
		ConversationID: conversationID,
		CharacterIDs:   req.CharacterIDs,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(conversation)
}

// DeleteConversation handles DELETE /api/conversations/:id
func (s *Server) DeleteConversation(c *fiber.Ctx) error {
	conversationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.conversations.DeleteConversation(c.UserContext(), currentUserID(c), conversationID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateMessage handles POST /api/conversations/:id/messages
// @Summary Add message
// @Description A null character_id is a system message. timestamp defaults to now.
// @Tags conversations
// @Accept json
// @Produce json
// @Param id path int true "Conversation ID"
// @Param request body messageRequest true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /conversations/{id}/messages [post]
func (s *Server) CreateMessage(c *fiber.Ctx) error {
	conversationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req messageRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	message, err := s.conversations.CreateMessage(c.UserContext(), service.CreateMessageInput{
		UserID:         currentUserID(c),
		ConversationID: conversationID,
		Message:        req.fields(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// UpdateMessage handles PUT /api/messages/:id
func (s *Server) UpdateMessage(c *fiber.Ctx) error {
	messageID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req messageRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	message, err := s.conversations.UpdateMessage(c.UserContext(), service.UpdateMessageInput{
		UserID:    currentUserID(c),
		MessageID: messageID,
		Message:   req.fields(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(message)
}

// DeleteMessage handles DELETE /api/messages/:id
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	messageID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.conversations.DeleteMessage(c.UserContext(), currentUserID(c), messageID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
