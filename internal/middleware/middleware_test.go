package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"mentor/pkg/auth"
)

func newAuthApp(jwtAuth *auth.LocalJWTAuth, environment string) *fiber.App {
	app := fiber.New()
	app.Get("/me", LocalAuthMiddleware(jwtAuth, environment), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})
	return app
}

func TestLocalAuthMiddleware_ValidToken(t *testing.T) {
	jwtAuth, _ := auth.NewLocalJWTAuth("secret", time.Minute, time.Hour)
	access, _, _ := jwtAuth.GenerateTokens("user-42", "a@b.c", "user")

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err := newAuthApp(jwtAuth, "production").Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || string(body) != "user-42" {
		t.Errorf("Expected 200 user-42, got %d %s", resp.StatusCode, body)
	}
}

func TestLocalAuthMiddleware_Rejects(t *testing.T) {
	jwtAuth, _ := auth.NewLocalJWTAuth("secret", time.Minute, time.Hour)
	_, refresh, _ := jwtAuth.GenerateTokens("user-42", "a@b.c", "user")

	for name, header := range map[string]string{
		"missing":       "",
		"garbage":       "Bearer not-a-jwt",
		"refresh token": "Bearer " + refresh,
	} {
		req := httptest.NewRequest("GET", "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := newAuthApp(jwtAuth, "development").Test(req)
		if err != nil {
			t.Fatalf("%s: request failed: %v", name, err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, resp.StatusCode)
		}
	}
}

func TestLocalAuthMiddleware_DevBypass(t *testing.T) {
	resp, err := newAuthApp(nil, "development").Test(httptest.NewRequest("GET", "/me", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != DevUserID {
		t.Errorf("Expected dev user, got %s", body)
	}

	resp, err = newAuthApp(nil, "production").Test(httptest.NewRequest("GET", "/me", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("Expected 503 in production without auth, got %d", resp.StatusCode)
	}
}

func TestChatRateLimiter(t *testing.T) {
	config := &RateLimitConfig{ChatMax: 2, ChatExpiration: time.Minute}
	app := fiber.New()
	app.Post("/chat", func(c *fiber.Ctx) error {
		c.Locals("user_id", c.Get("X-User"))
		return c.Next()
	}, ChatRateLimiter(config), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	send := func(user string) int {
		req := httptest.NewRequest("POST", "/chat", nil)
		req.Header.Set("X-User", user)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		return resp.StatusCode
	}

	send("alice")
	send("alice")
	if code := send("alice"); code != fiber.StatusTooManyRequests {
		t.Errorf("Expected 429 on third request, got %d", code)
	}
	if code := send("bob"); code != fiber.StatusOK {
		t.Errorf("Expected other users to be unaffected, got %d", code)
	}
}

func TestLoadRateLimitConfig_Overrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_CHAT", "7")
	t.Setenv("RATE_LIMIT_AUTH", "not-a-number")
	t.Setenv("ENVIRONMENT", "production")

	config := LoadRateLimitConfig()
	if config.ChatMax != 7 {
		t.Errorf("Expected chat override 7, got %d", config.ChatMax)
	}
	if config.AuthMax != DefaultRateLimitConfig().AuthMax {
		t.Errorf("Expected invalid override to be ignored, got %d", config.AuthMax)
	}
}
