package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"mentor/internal/models"
	"mentor/internal/services"
)

func currentUserID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals("user_id").(string)
	return userID, ok && userID != ""
}

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// respondError maps service errors to HTTP statuses. Anything unrecognised is
// logged and reported as a 500 without details.
func respondError(c *fiber.Ctx, err error, notFoundMessage string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, notFoundMessage)
	case errors.Is(err, services.ErrListNotOwned):
		return errorJSON(c, fiber.StatusBadRequest, services.ErrListNotOwned.Error())
	case errors.Is(err, models.ErrValidation):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	default:
		log.Printf("❌ [API] %s %s failed: %v", c.Method(), c.Path(), err)
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
}
