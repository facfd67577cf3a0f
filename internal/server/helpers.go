package server

import (
	"strings"

	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Session keys. The session holds one opaque user id plus at most one
// pending flash notice.
const (
	sessionUserKey  = "user_id"
	sessionFlashKey = "flash"
)

// Flash is a one-shot notice rendered on the next page view.
type Flash struct {
	Category string
	Message  string
}

// currentUserID returns the authenticated user's id, from locals when the
// auth gate already ran, from the session otherwise.
func (s *Server) currentUserID(c *fiber.Ctx) (uint, bool) {
	if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
		return uid, true
	}

	sess, err := s.sessions.Get(c)
	if err != nil {
		return 0, false
	}
	uid, ok := sess.Get(sessionUserKey).(uint)
	if !ok || uid == 0 {
		return 0, false
	}
	return uid, true
}

// loginSession regenerates the session id and binds it to the user.
func (s *Server) loginSession(c *fiber.Ctx, userID uint) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(sessionUserKey, userID)
	return sess.Save()
}

// logoutSession destroys the session, anonymizing the requester.
func (s *Server) logoutSession(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}

// setFlash stores a one-shot notice in the session.
func (s *Server) setFlash(c *fiber.Ctx, category, message string) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return
	}
	sess.Set(sessionFlashKey, category+"|"+message)
	_ = sess.Save()
}

// popFlash removes and returns the pending flash notice, if any.
func (s *Server) popFlash(c *fiber.Ctx) *Flash {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return nil
	}
	raw, ok := sess.Get(sessionFlashKey).(string)
	if !ok || raw == "" {
		return nil
	}
	sess.Delete(sessionFlashKey)
	_ = sess.Save()

	parts := strings.SplitN(raw, "|", 2)
	if len(parts) != 2 {
		return nil
	}
	return &Flash{Category: parts[0], Message: parts[1]}
}

// flashAndRedirect sets a notice and redirects with 302.
func (s *Server) flashAndRedirect(c *fiber.Ctx, category, message, location string) error {
	s.setFlash(c, category, message)
	return c.Redirect(location, fiber.StatusFound)
}

// render renders a view through the main layout, adding the pending flash
// and the current user to the binding.
func (s *Server) render(c *fiber.Ctx, name string, bind fiber.Map) error {
	if bind == nil {
		bind = fiber.Map{}
	}
	if flash := s.popFlash(c); flash != nil {
		bind["Flash"] = flash
	}
	if uid, ok := s.currentUserID(c); ok {
		if user, err := s.userService.Get(c.Context(), uid); err == nil {
			bind["CurrentUser"] = user
		}
	}
	return c.Render(name, bind)
}

// AuthRequired is the authorization gate applied to every state-mutating or
// privacy-sensitive route: without an authenticated identity the request is
// redirected to the landing page with a notice, and no state changes.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := s.currentUserID(c)
		if !ok {
			return s.flashAndRedirect(c, "danger", "Access unauthorized.", "/")
		}
		c.Locals("userID", uid)
		return c.Next()
	}
}

// parseID extracts a route parameter as a positive uint; anything else is a
// standard not-found.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

// serviceError translates an application error into the uniform HTML
// outcomes: not-found renders 404, unauthorized flashes and redirects to
// the landing page, anything else propagates to the error handler.
func (s *Server) serviceError(c *fiber.Ctx, err error) error {
	switch models.ErrorCode(err) {
	case models.CodeNotFound:
		return fiber.ErrNotFound
	case models.CodeUnauthorized:
		return s.flashAndRedirect(c, "danger", "Access unauthorized.", "/")
	default:
		return err
	}
}
