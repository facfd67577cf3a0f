package server

import (
	"fmt"

	"warbler/internal/models"
	"warbler/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListUsers handles GET /users?q=: a listing of all users, or a
// case-sensitive username substring search when q is present.
func (s *Server) ListUsers(c *fiber.Ctx) error {
	users, err := s.userService.Search(c.Context(), c.Query("q"))
	if err != nil {
		return err
	}
	return s.render(c, "users/index", fiber.Map{"Users": users})
}

// ShowUser handles GET /users/:id: profile plus the user's most recent
// messages.
func (s *Server) ShowUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	user, err := s.userService.Get(c.Context(), id)
	if err != nil {
		return s.serviceError(c, err)
	}

	currentID, _ := s.currentUserID(c)
	messages, err := s.messageService.ByUser(c.Context(), id, currentID)
	if err != nil {
		return err
	}

	isFollowing := false
	if currentID != 0 && currentID != id {
		isFollowing, err = s.followService.IsFollowing(c.Context(), currentID, id)
		if err != nil {
			return err
		}
	}

	return s.render(c, "users/show", fiber.Map{
		"User":        user,
		"Messages":    messages,
		"IsSelf":      currentID == id,
		"IsFollowing": isFollowing,
	})
}

// ShowFollowing handles GET /users/:id/following
func (s *Server) ShowFollowing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	user, err := s.userService.Get(c.Context(), id)
	if err != nil {
		return s.serviceError(c, err)
	}
	users, err := s.followService.Following(c.Context(), id)
	if err != nil {
		return err
	}
	return s.render(c, "users/following", fiber.Map{"User": user, "Users": users})
}

// ShowFollowers handles GET /users/:id/followers
func (s *Server) ShowFollowers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	user, err := s.userService.Get(c.Context(), id)
	if err != nil {
		return s.serviceError(c, err)
	}
	users, err := s.followService.Followers(c.Context(), id)
	if err != nil {
		return err
	}
	return s.render(c, "users/followers", fiber.Map{"User": user, "Users": users})
}

// AddFollow handles POST /users/follow/:id for the logged-in user.
func (s *Server) AddFollow(c *fiber.Ctx) error {
	currentID := c.Locals("userID").(uint)
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := s.followService.Follow(c.Context(), currentID, id); err != nil {
		if models.ErrorCode(err) == models.CodeValidation {
			return s.flashAndRedirect(c, "danger", err.Error(),
				fmt.Sprintf("/users/%d/following", currentID))
		}
		return s.serviceError(c, err)
	}
	return c.Redirect(fmt.Sprintf("/users/%d/following", currentID), fiber.StatusFound)
}

// StopFollowing handles POST /users/stop-following/:id
func (s *Server) StopFollowing(c *fiber.Ctx) error {
	currentID := c.Locals("userID").(uint)
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := s.followService.Unfollow(c.Context(), currentID, id); err != nil {
		return s.serviceError(c, err)
	}
	return c.Redirect(fmt.Sprintf("/users/%d/following", currentID), fiber.StatusFound)
}

// ProfilePage handles GET /users/profile
func (s *Server) ProfilePage(c *fiber.Ctx) error {
	currentID := c.Locals("userID").(uint)
	user, err := s.userService.Get(c.Context(), currentID)
	if err != nil {
		return s.serviceError(c, err)
	}
	return s.render(c, "users/edit", fiber.Map{"User": user})
}

// UpdateProfile handles POST /users/profile. The current password is
// re-verified before any change applies.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	currentID := c.Locals("userID").(uint)

	in := service.UpdateProfileInput{
		Username:       c.FormValue("username"),
		Email:          c.FormValue("email"),
		ImageURL:       c.FormValue("image_url"),
		HeaderImageURL: c.FormValue("header_image_url"),
		Bio:            c.FormValue("bio"),
		Location:       c.FormValue("location"),
		Password:       c.FormValue("password"),
	}

	user, err := s.userService.UpdateProfile(c.Context(), currentID, in)
	if err != nil {
		switch models.ErrorCode(err) {
		case models.CodeValidation, models.CodeConflict:
			s.setFlash(c, "danger", err.Error())
			current, getErr := s.userService.Get(c.Context(), currentID)
			if getErr != nil {
				return getErr
			}
			return s.render(c, "users/edit", fiber.Map{"User": current})
		default:
			return s.serviceError(c, err)
		}
	}

	return s.flashAndRedirect(c, "success", "User profile updated.",
		fmt.Sprintf("/users/%d", user.ID))
}

// DeleteUser handles POST /users/delete. The current identity deletes its
// own account, with every dependent row cascading.
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	currentID := c.Locals("userID").(uint)

	if err := s.logoutSession(c); err != nil {
		return err
	}
	if err := s.userService.DeleteAccount(c.Context(), currentID); err != nil {
		return s.serviceError(c, err)
	}
	return c.Redirect("/signup", fiber.StatusFound)
}

// AddLike handles POST /users/add_like/:messageId
func (s *Server) AddLike(c *fiber.Ctx) error {
	currentID := c.Locals("userID").(uint)
	messageID, err := parseID(c, "messageId")
	if err != nil {
		return err
	}

	if err := s.messageService.Like(c.Context(), currentID, messageID); err != nil {
		return s.serviceError(c, err)
	}
	return c.Redirect("/", fiber.StatusFound)
}

// RemoveLike handles POST /users/remove_like/:messageId
func (s *Server) RemoveLike(c *fiber.Ctx) error {
	currentID := c.Locals("userID").(uint)
	messageID, err := parseID(c, "messageId")
	if err != nil {
		return err
	}

	if err := s.messageService.Unlike(c.Context(), currentID, messageID); err != nil {
		return s.serviceError(c, err)
	}
	return c.Redirect("/", fiber.StatusFound)
}

// ShowLikes handles GET /users/:id/likes
func (s *Server) ShowLikes(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	user, err := s.userService.Get(c.Context(), id)
	if err != nil {
		return s.serviceError(c, err)
	}
	messages, err := s.messageService.LikedBy(c.Context(), id)
	if err != nil {
		return err
	}
	return s.render(c, "users/likes", fiber.Map{"User": user, "Messages": messages})
}
