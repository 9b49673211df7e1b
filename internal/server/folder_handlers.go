package server

import (
	"storyloom/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListFolderTree handles GET /api/projects/:projectId/folders?type=dialogue|sms
// @Summary Folder tree
// @Description Folders nested under their parents, with child, dialogue and conversation counts.
// @Tags folders
// @Produce json
// @Param projectId path int true "Project ID"
// @Param type query string false "dialogue or sms; empty lists both"
// @Success 200 {array} service.FolderNode
// @Security BearerAuth
// @Router /projects/{projectId}/folders [get]
func (s *Server) ListFolderTree(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}

	tree, err := s.folders.ListTree(c.UserContext(), service.ListTreeInput{
		UserID:    currentUserID(c),
		ProjectID: projectID,
		Kind:      c.Query("type"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tree)
}

// CreateFolder handles POST /api/projects/:projectId/folders
// @Summary Create folder
// @Tags folders
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param request body object{name=string,description=string,type=string,parent_id=int} true "Folder"
// @Success 201 {object} models.Folder
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /projects/{projectId}/folders [post]
func (s *Server) CreateFolder(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Type        string `json:"type"`
		ParentID    *uint  `json:"parent_id"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	folder, err := s.folders.CreateFolder(c.UserContext(), service.CreateFolderInput{
		UserID:      currentUserID(c),
		ProjectID:   projectID,
		Kind:        req.Type,
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(folder)
}

// GetFolder handles GET /api/folders/:id
func (s *Server) GetFolder(c *fiber.Ctx) error {
	folderID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.folders.GetFolder(c.UserContext(), currentUserID(c), folderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// UpdateFolder handles PUT /api/folders/:id
// @Summary Update folder
// @Description Absent fields are left alone. An explicit "parent_id": null moves the folder to the root.
// @Tags folders
// @Accept json
// @Produce json
// @Param id path int true "Folder ID"
// @Param request body object{name=string,description=string,parent_id=int} true "Patch"
// @Success 200 {object} models.Folder
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /folders/{id} [put]
func (s *Server) UpdateFolder(c *fiber.Ctx) error {
	folderID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Name        *string    `json:"name"`
		Description *string    `json:"description"`
		ParentID    optionalID `json:"parent_id"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	folder, err := s.folders.UpdateFolder(c.UserContext(), service.UpdateFolderInput{
		UserID:   currentUserID(c),
		FolderID: folderID,
		Patch: service.FolderPatch{
			Name:        req.Name,
			Description: req.Description,
			SetParent:   req.ParentID.Set,
			ParentID:    req.ParentID.Value,
		},
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(folder)
}

// MoveFolder handles PUT /api/folders/:id/move
func (s *Server) MoveFolder(c *fiber.Ctx) error {
	folderID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		ParentID *uint `json:"parent_id"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	folder, err := s.folders.MoveFolder(c.UserContext(), service.MoveFolderInput{
		UserID:   currentUserID(c),
		FolderID: folderID,
		ParentID: req.ParentID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(folder)
}

// DeleteFolder handles DELETE /api/folders/:id
// @Summary Delete folder
// @Description Subfolders and content move up to the deleted folder's parent.
// @Tags folders
// @Param id path int true "Folder ID"
// @Success 204
// @Security BearerAuth
// @Router /folders/{id} [delete]
func (s *Server) DeleteFolder(c *fiber.Ctx) error {
	folderID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.folders.DeleteFolder(c.UserContext(), currentUserID(c), folderID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type moveItemRequest struct {
	FolderID *uint `json:"folder_id"`
}

// MoveDialogue handles PUT /api/dialogues/:id/folder
func (s *Server) MoveDialogue(c *fiber.Ctx) error {
	dialogueID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req moveItemRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	dialogue, err := s.folders.MoveDialogue(c.UserContext(), service.MoveItemInput{
		UserID:   currentUserID(c),
		ItemID:   dialogueID,
		FolderID: req.FolderID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dialogue)
}

// MoveConversation handles PUT /api/conversations/:id/folder
func (s *Server) MoveConversation(c *fiber.Ctx) error {
	conversationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req moveItemRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	conversation, err := s.folders.MoveConversation(c.UserContext(), service.MoveItemInput{
		UserID:   currentUserID(c),
		ItemID:   conversationID,
		FolderID: req.FolderID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(conversation)
}
