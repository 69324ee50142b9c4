package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"mentor/internal/database"
	"mentor/internal/health"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db    *database.DB
	model *health.ModelMonitor
}

// NewHealthHandler creates a new health handler. model may be nil.
func NewHealthHandler(db *database.DB, model *health.ModelMonitor) *HealthHandler {
	return &HealthHandler{db: db, model: model}
}

// Root identifies the service
// GET /
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":    "mentor",
		"status":  "running",
		"version": "1.0.0",
	})
}

// Handle responds with server health status
// GET /health
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":    "unhealthy",
			"database":  "unreachable",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}

	body := fiber.Map{
		"status":    "healthy",
		"database":  h.db.Dialect,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	// A failing model degrades chat to fallback replies; the service itself stays up.
	if h.model != nil {
		snap := h.model.Snapshot()
		body["model"] = snap
		if snap.Status == health.StatusUnhealthy || snap.Status == health.StatusCooldown {
			body["status"] = "degraded"
		}
	}
	return c.JSON(body)
}
