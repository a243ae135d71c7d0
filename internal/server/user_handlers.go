package server

import (
	"thoughtstream/internal/middleware"
	"thoughtstream/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me. The principal was already loaded
// by the authentication middleware.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user := middleware.Principal(c)
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authentication required"))
	}
	return c.JSON(user)
}
