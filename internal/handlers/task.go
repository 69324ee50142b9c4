package handlers

import (
	"github.com/gofiber/fiber/v2"

	"mentor/internal/models"
	"mentor/internal/services"
)

const (
	taskNotFound = "Task not found"
	listNotFound = "List not found"
)

// TaskHandler serves the task lists and their tasks
type TaskHandler struct {
	tasks *services.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// Register mounts the task routes. List routes go before /:id.
func (h *TaskHandler) Register(router fiber.Router) {
	router.Post("/lists", h.CreateList)
	router.Get("/lists", h.ListLists)
	router.Delete("/lists/:id", h.DeleteList)

	router.Post("/", h.CreateTask)
	router.Get("/", h.ListTasks)
	router.Put("/:id", h.UpdateTask)
	router.Patch("/:id", h.UpdateTask)
	router.Delete("/:id", h.DeleteTask)
	router.Post("/:id/complete", h.CompleteTask)
}

// CreateList creates a list
// POST /api/v1/tasks/lists
func (h *TaskHandler) CreateList(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	var req models.ListCreate
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	list, err := h.tasks.CreateList(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, err, listNotFound)
	}
	return c.Status(fiber.StatusCreated).JSON(list)
}

// ListLists returns the caller's lists, creating the defaults on first access
// GET /api/v1/tasks/lists
func (h *TaskHandler) ListLists(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	lists, err := h.tasks.EnsureDefaultLists(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, listNotFound)
	}
	return c.JSON(lists)
}

// DeleteList removes a list together with its tasks
// DELETE /api/v1/tasks/lists/:id
func (h *TaskHandler) DeleteList(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	deleted, err := h.tasks.DeleteList(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err, listNotFound)
	}
	if !deleted {
		return errorJSON(c, fiber.StatusNotFound, listNotFound)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateTask adds a task to one of the caller's lists
// POST /api/v1/tasks
func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	var req models.TaskCreate
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	task, err := h.tasks.CreateTask(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// ListTasks returns the caller's tasks, optionally for one list
// GET /api/v1/tasks?list_id=
func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	tasks, err := h.tasks.ListTasks(c.UserContext(), userID, c.Query("list_id"))
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(tasks)
}

// UpdateTask applies a partial update
// PUT /api/v1/tasks/:id
func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	var update models.TaskUpdate
	if err := c.BodyParser(&update); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	task, err := h.tasks.UpdateTask(c.UserContext(), userID, c.Params("id"), update)
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(task)
}

// CompleteTask marks a task done
// POST /api/v1/tasks/:id/complete
func (h *TaskHandler) CompleteTask(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	task, err := h.tasks.CompleteTask(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(task)
}

// DeleteTask removes a task
// DELETE /api/v1/tasks/:id
func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	deleted, err := h.tasks.DeleteTask(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	if !deleted {
		return errorJSON(c, fiber.StatusNotFound, taskNotFound)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
