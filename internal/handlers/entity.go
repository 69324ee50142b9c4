package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"mentor/internal/models"
	"mentor/internal/query"
	"mentor/internal/services"
)

const entityNotFound = "Entity not found"

// EntityHandler serves entities, their relations, context windows and user patterns
type EntityHandler struct {
	entities *services.EntityService
}

// NewEntityHandler creates a new entity handler
func NewEntityHandler(entities *services.EntityService) *EntityHandler {
	return &EntityHandler{entities: entities}
}

// Register mounts the entity routes. Fixed paths go before /:id.
func (h *EntityHandler) Register(router fiber.Router) {
	router.Post("/", h.Create)
	router.Get("/", h.List)
	router.Get("/export.xlsx", h.Export)
	router.Post("/relations", h.CreateRelation)
	router.Post("/context-windows", h.CreateContextWindow)
	router.Get("/context-windows", h.ListContextWindows)
	router.Post("/patterns", h.CreatePattern)
	router.Get("/patterns", h.ListPatterns)
	router.Get("/:id", h.Get)
	router.Put("/:id", h.Update)
	router.Patch("/:id", h.Update)
	router.Delete("/:id", h.Delete)
	router.Get("/:id/relations", h.ListRelations)
}

func filterFromQuery(c *fiber.Ctx) query.EntityFilter {
	tag := c.Query("context_tag")
	if tag == "" {
		tag = c.Query("tag")
	}
	return query.EntityFilter{
		EntityType: models.EntityType(c.Query("entity_type")),
		Status:     models.EntityStatus(c.Query("status")),
		Tag:        tag,
	}
}

// Create creates an entity
// POST /api/v1/entities
func (h *EntityHandler) Create(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	var req models.EntityCreate
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	entity, err := h.entities.Create(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, err, entityNotFound)
	}
	return c.Status(fiber.StatusCreated).JSON(entity)
}

// List returns the caller's entities, filtered by entity_type, status and context_tag
// GET /api/v1/entities
func (h *EntityHandler) List(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	entities, err := h.entities.List(c.UserContext(), userID, filterFromQuery(c))
	if err != nil {
		return respondError(c, err, entityNotFound)
	}
	return c.JSON(entities)
}

// Export returns the filtered entities as a spreadsheet
// GET /api/v1/entities/export.xlsx
func (h *EntityHandler) Export(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	entities, err := h.entities.List(c.UserContext(), userID, filterFromQuery(c))
	if err != nil {
		return respondError(c, err, entityNotFound)
	}

	buf, err := services.ExportEntities(entities)
	if err != nil {
		return respondError(c, err, entityNotFound)
	}

	filename := fmt.Sprintf("entities-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}

// Get returns one entity
// GET /api/v1/entities/:id
func (h *EntityHandler) Get(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	entity, err := h.entities.Get(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err, entityNotFound)
	}
	return c.JSON(entity)
}

// Update applies a partial update; absent fields are left alone
// PUT /api/v1/entities/:id
func (h *EntityHandler) Update(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	var update models.EntityUpdate
	if err := c.BodyParser(&update); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	entity, err := h.entities.Update(c.UserContext(), userID, c.Params("id"), update)
	if err != nil {
		return respondError(c, err, entityNotFound)
	}
	return c.JSON(entity)
}

// Delete removes an entity and its relations
// DELETE /api/v1/entities/:id
func (h *EntityHandler) Delete(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	deleted, err := h.entities.Delete(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err, entityNotFound)
	}
	if !deleted {
		return errorJSON(c, fiber.StatusNotFound, entityNotFound)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateRelation links two of the caller's entities
// POST /api/v1/entities/relations
func (h *EntityHandler) CreateRelation(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	var req models.EntityRelationCreate
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return respondError(c, err, entityNotFound)
	}

	for _, id := range []string{req.ParentID, req.ChildID} {
		if _, err := h.entities.Get(c.UserContext(), userID, id); err != nil {
			return respondError(c, err, entityNotFound)
		}
	}

	relation, err := h.entities.CreateRelation(c.UserContext(), req.ParentID, req.ChildID, req.RelationType)
	if err != nil {
		return respondError(c, err, entityNotFound)
	}
	return c.Status(fiber.StatusCreated).JSON(relation)
}

// ListRelations returns every edge touching one of the caller's entities
// GET /api/v1/entities/:id/relations
func (h *EntityHandler) ListRelations(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	id := c.Params("id")
	if _, err := h.entities.Get(c.UserContext(), userID, id); err != nil {
		return respondError(c, err, entityNotFound)
	}

	relations, err := h.entities.RelationsOf(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, entityNotFound)
	}
	return c.JSON(relations)
}

// CreateContextWindow records a recurring context window
// POST /api/v1/entities/context-windows
func (h *EntityHandler) CreateContextWindow(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	var req models.ContextWindowCreate
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	window, err := h.entities.CreateContextWindow(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, err, "Context window not found")
	}
	return c.Status(fiber.StatusCreated).JSON(window)
}

// ListContextWindows returns the caller's context windows
// GET /api/v1/entities/context-windows
func (h *EntityHandler) ListContextWindows(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	windows, err := h.entities.ListContextWindows(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Context window not found")
	}
	return c.JSON(windows)
}

// CreatePattern records an observed user pattern
// POST /api/v1/entities/patterns
func (h *EntityHandler) CreatePattern(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	var req models.UserPatternCreate
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	pattern, err := h.entities.CreateUserPattern(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, err, "Pattern not found")
	}
	return c.Status(fiber.StatusCreated).JSON(pattern)
}

// ListPatterns returns the caller's patterns
// GET /api/v1/entities/patterns
func (h *EntityHandler) ListPatterns(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	patterns, err := h.entities.ListUserPatterns(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Pattern not found")
	}
	return c.JSON(patterns)
}
