package server

import (
	"fmt"

	"warbler/internal/models"
	"warbler/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SignupPage handles GET /signup
func (s *Server) SignupPage(c *fiber.Ctx) error {
	if _, ok := s.currentUserID(c); ok {
		return c.Redirect("/", fiber.StatusFound)
	}
	return s.render(c, "users/signup", nil)
}

// Signup handles POST /signup: create the account, log the user in, and
// redirect home. On failure the form is re-presented with the prior input,
// except the password which is never echoed back.
func (s *Server) Signup(c *fiber.Ctx) error {
	in := service.SignupInput{
		Username: c.FormValue("username"),
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
		ImageURL: c.FormValue("image_url"),
	}

	user, err := s.userService.Signup(c.Context(), in)
	if err != nil {
		switch models.ErrorCode(err) {
		case models.CodeConflict:
			s.setFlash(c, "danger", "Username already taken")
		case models.CodeValidation:
			s.setFlash(c, "danger", err.Error())
		default:
			return err
		}
		return s.render(c, "users/signup", fiber.Map{
			"FormUsername": in.Username,
			"FormEmail":    in.Email,
			"FormImageURL": in.ImageURL,
		})
	}

	if err := s.loginSession(c, user.ID); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// LoginPage handles GET /login
func (s *Server) LoginPage(c *fiber.Ctx) error {
	if _, ok := s.currentUserID(c); ok {
		return c.Redirect("/", fiber.StatusFound)
	}
	return s.render(c, "users/login", nil)
}

// Login handles POST /login. A wrong password and an unknown username are
// indistinguishable to the requester.
func (s *Server) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	user, err := s.userService.Authenticate(c.Context(), username, password)
	if err != nil {
		return err
	}
	if user == nil {
		s.setFlash(c, "danger", "Invalid credentials.")
		return s.render(c, "users/login", fiber.Map{
			"FormUsername": username,
		})
	}

	if err := s.loginSession(c, user.ID); err != nil {
		return err
	}
	return s.flashAndRedirect(c, "success", fmt.Sprintf("Hello, %s!", user.Username), "/")
}

// Logout handles GET /logout
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.logoutSession(c); err != nil {
		return err
	}
	return s.flashAndRedirect(c, "success", "You have logged out.", "/")
}
