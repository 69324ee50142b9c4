package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"mentor/pkg/auth"
)

// DevUserID is the identity used when auth is not configured outside production.
const DevUserID = "dev-user"

// LocalAuthMiddleware verifies the bearer access token and stores the caller in
// c.Locals("user_id"). With no jwtAuth configured, requests run as DevUserID,
// except in production where they are refused.
func LocalAuthMiddleware(jwtAuth *auth.LocalJWTAuth, environment string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if jwtAuth == nil {
			if environment == "production" {
				log.Println("❌ [AUTH] JWT auth not configured in production, refusing request")
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "Authentication service unavailable",
				})
			}
			c.Locals("user_id", DevUserID)
			c.Locals("user_email", "dev@localhost")
			c.Locals("user_role", "user")
			return c.Next()
		}

		token, err := auth.ExtractToken(c.Get("Authorization"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid authorization token",
			})
		}

		user, err := jwtAuth.VerifyAccessToken(token)
		if err != nil {
			log.Printf("❌ [AUTH] Token rejected: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_email", user.Email)
		c.Locals("user_role", user.Role)
		return c.Next()
	}
}
