package handlers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"mentor/internal/models"
	"mentor/internal/services"
	"mentor/pkg/auth"
)

// LocalAuthHandler handles local JWT authentication endpoints
type LocalAuthHandler struct {
	jwtAuth     *auth.LocalJWTAuth
	userService *services.UserService
	tasks       *services.TaskService
}

// NewLocalAuthHandler creates a new local auth handler. tasks may be nil; when
// set, new accounts start with their default lists.
func NewLocalAuthHandler(jwtAuth *auth.LocalJWTAuth, userService *services.UserService, tasks *services.TaskService) *LocalAuthHandler {
	return &LocalAuthHandler{
		jwtAuth:     jwtAuth,
		userService: userService,
		tasks:       tasks,
	}
}

func (h *LocalAuthHandler) issue(c *fiber.Ctx, status int, user *models.User) error {
	accessToken, refreshToken, err := h.jwtAuth.GenerateTokens(user.ID, user.Email, user.Role)
	if err != nil {
		log.Printf("❌ Failed to generate tokens: %v", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to generate authentication tokens")
	}

	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Expires:  time.Now().Add(h.jwtAuth.RefreshTokenExpiry),
		HTTPOnly: true,
		Secure:   c.Protocol() == "https",
		SameSite: "Strict",
		Path:     "/api/v1/auth",
	})

	return c.Status(status).JSON(models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		User:         user,
		ExpiresIn:    int(h.jwtAuth.AccessTokenExpiry.Seconds()),
	})
}

// Register creates a new user account
// POST /api/v1/auth/register
func (h *LocalAuthHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return errorJSON(c, fiber.StatusBadRequest, "Valid email address is required")
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "Unknown timezone")
		}
	}

	passwordHash, err := h.jwtAuth.HashPassword(req.Password)
	if err != nil {
		log.Printf("❌ Failed to hash password: %v", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to create account")
	}

	user, err := h.userService.CreateUser(c.UserContext(), req, passwordHash)
	if errors.Is(err, services.ErrEmailTaken) {
		return errorJSON(c, fiber.StatusConflict, "User with this email already exists")
	}
	if err != nil {
		log.Printf("❌ Failed to create user: %v", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to create account")
	}

	if h.tasks != nil {
		if _, err := h.tasks.EnsureDefaultLists(c.UserContext(), user.ID); err != nil {
			log.Printf("⚠️ Failed to create default lists for %s: %v", user.ID, err)
		}
	}

	log.Printf("✅ User registered: %s (%s, role=%s)", user.Email, user.ID, user.Role)
	return h.issue(c, fiber.StatusCreated, user)
}

// Login authenticates a user
// POST /api/v1/auth/login
func (h *LocalAuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, err := h.userService.GetUserByEmail(c.UserContext(), req.Email)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			log.Printf("❌ Failed to look up user: %v", err)
		}
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	valid, err := h.jwtAuth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil || !valid {
		log.Printf("⚠️ Failed login attempt for user: %s", user.Email)
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	return h.issue(c, fiber.StatusOK, user)
}

// RefreshToken issues a fresh token pair from a refresh token
// POST /api/v1/auth/refresh
func (h *LocalAuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := c.Cookies("refresh_token")
	if refreshToken == "" {
		var req models.RefreshRequest
		if err := c.BodyParser(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}
	if refreshToken == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Refresh token is required")
	}

	claims, err := h.jwtAuth.VerifyRefreshToken(refreshToken)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid or expired refresh token")
	}

	user, err := h.userService.GetUserByID(c.UserContext(), claims.Subject)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "User not found")
	}
	return h.issue(c, fiber.StatusOK, user)
}

// GetCurrentUser returns the currently authenticated user
// GET /api/v1/auth/me
func (h *LocalAuthHandler) GetCurrentUser(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	}

	user, err := h.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "User not found")
	}
	return c.JSON(user)
}
