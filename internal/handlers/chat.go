package handlers

import (
	"bytes"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"mentor/internal/models"
	"mentor/internal/services"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ChatHandler serves the mentor conversation
type ChatHandler struct {
	mentor       *services.MentorService
	messages     *services.MessageService
	historyLimit int
}

// NewChatHandler creates a new chat handler. historyLimit is the default page
// size of GET /chat/history; zero means 50.
func NewChatHandler(mentor *services.MentorService, messages *services.MessageService, historyLimit int) *ChatHandler {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &ChatHandler{mentor: mentor, messages: messages, historyLimit: historyLimit}
}

// Register mounts the chat routes. limiter, when non-nil, guards POST /chat only.
func (h *ChatHandler) Register(router fiber.Router, limiter fiber.Handler) {
	if limiter != nil {
		router.Post("/", limiter, h.Send)
	} else {
		router.Post("/", h.Send)
	}
	router.Get("/history", h.History)
	router.Delete("/history", h.ClearHistory)
}

// Send runs one chat turn
// POST /api/v1/chat?format=html
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := h.mentor.Chat(c.UserContext(), userID, req.Message)
	if err != nil {
		return respondError(c, err, "Conversation not found")
	}

	resp := models.ChatResponse{Response: result.Reply}
	if c.Query("format") == "html" {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(result.Reply), &buf); err != nil {
			log.Printf("⚠️ [CHAT] Failed to render reply as HTML: %v", err)
		} else {
			resp.ResponseHTML = buf.String()
		}
	}
	return c.JSON(resp)
}

// History returns the latest messages, oldest first
// GET /api/v1/chat/history?limit=
func (h *ChatHandler) History(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	limit := c.QueryInt("limit", h.historyLimit)
	if limit <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, "limit must be positive")
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	messages, err := h.messages.Recent(c.UserContext(), userID, limit)
	if err != nil {
		return respondError(c, err, "Conversation not found")
	}
	return c.JSON(models.ChatHistoryResponse{Messages: messages, Count: len(messages)})
}

// ClearHistory deletes the caller's whole chat log
// DELETE /api/v1/chat/history
func (h *ChatHandler) ClearHistory(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	deleted, err := h.messages.DeleteAll(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Conversation not found")
	}
	return c.JSON(fiber.Map{"deleted": deleted})
}
