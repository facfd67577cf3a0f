package server

import (
	"fmt"

	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Home handles GET /: the home feed for an authenticated identity, the
// anonymous landing view otherwise.
func (s *Server) Home(c *fiber.Ctx) error {
	currentID, ok := s.currentUserID(c)
	if !ok {
		return s.render(c, "home-anon", nil)
	}

	messages, err := s.messageService.Feed(c.Context(), currentID)
	if err != nil {
		return err
	}
	return s.render(c, "home", fiber.Map{"Messages": messages})
}

// NewMessagePage handles GET /messages/new
func (s *Server) NewMessagePage(c *fiber.Ctx) error {
	return s.render(c, "messages/new", nil)
}

// CreateMessage handles POST /messages/new
func (s *Server) CreateMessage(c *fiber.Ctx) error {
	currentID := c.Locals("userID").(uint)
	text := c.FormValue("text")

	if _, err := s.messageService.Post(c.Context(), currentID, text); err != nil {
		if models.ErrorCode(err) == models.CodeValidation {
			s.setFlash(c, "danger", err.Error())
			return s.render(c, "messages/new", fiber.Map{"FormText": text})
		}
		return err
	}
	return c.Redirect(fmt.Sprintf("/users/%d", currentID), fiber.StatusFound)
}

// ShowMessage handles GET /messages/:id. Publicly visible.
func (s *Server) ShowMessage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	currentID, _ := s.currentUserID(c)
	message, err := s.messageService.Get(c.Context(), id, currentID)
	if err != nil {
		return s.serviceError(c, err)
	}

	return s.render(c, "messages/show", fiber.Map{
		"Message": message,
		"IsOwner": currentID != 0 && currentID == message.UserID,
	})
}

// DeleteMessage handles POST /messages/:id/delete. Only the owner may
// delete; any other identity gets the uniform unauthorized outcome and the
// message stays.
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	currentID := c.Locals("userID").(uint)
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := s.messageService.Delete(c.Context(), currentID, id); err != nil {
		return s.serviceError(c, err)
	}
	return c.Redirect(fmt.Sprintf("/users/%d", currentID), fiber.StatusFound)
}
