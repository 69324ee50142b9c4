package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"mentor/internal/config"
	"mentor/internal/database"
)

func setupPreflightTest(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "preflight.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	return db
}

func baseConfig() *config.Config {
	return &config.Config{
		Environment:       "development",
		JWTSecret:         "0123456789abcdef0123456789abcdef",
		LLMProvider:       "openai",
		LLMBaseURL:        "https://api.openai.com/v1",
		LLMAPIKey:         "sk-test",
		LLMModel:          "gpt-4o-mini",
		RetentionSchedule: "0 3 * * *",
	}
}

func TestRunAll_HealthySetup(t *testing.T) {
	checker := NewChecker(setupPreflightTest(t), baseConfig())

	results := checker.RunAll()
	if len(results) != 7 {
		t.Fatalf("Expected 7 checks, got %d", len(results))
	}
	for _, r := range results {
		if r.Status != StatusPass {
			t.Errorf("Expected %s to pass, got %s: %s", r.Name, r.Status, r.Message)
		}
	}
	if HasFailures(results) {
		t.Error("Expected no failures")
	}
}

func TestCheckDatabaseConnection_Failure(t *testing.T) {
	db := setupPreflightTest(t)
	db.Close()

	result := NewChecker(db, baseConfig()).checkDatabaseConnection()
	if result.Status != StatusFail {
		t.Errorf("Expected status 'fail', got '%s'", result.Status)
	}
	if result.Error == nil {
		t.Error("Expected error to be set")
	}
}

func TestCheckDatabaseSchema_MissingTable(t *testing.T) {
	db := setupPreflightTest(t)
	if _, err := db.Exec("DROP TABLE tasks"); err != nil {
		t.Fatalf("Failed to drop table: %v", err)
	}

	result := NewChecker(db, baseConfig()).checkDatabaseSchema()
	if result.Status != StatusFail {
		t.Errorf("Expected status 'fail', got '%s'", result.Status)
	}
}

func TestCheckAuthentication(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		secret      string
		want        string
	}{
		{"configured", "production", "0123456789abcdef0123456789abcdef", StatusPass},
		{"missing in production", "production", "", StatusFail},
		{"missing in development", "development", "", StatusWarning},
		{"short secret", "development", "short", StatusWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.Environment = tt.environment
			cfg.JWTSecret = tt.secret

			result := NewChecker(nil, cfg).checkAuthentication()
			if result.Status != tt.want {
				t.Errorf("Expected status '%s', got '%s'", tt.want, result.Status)
			}
		})
	}
}

func TestCheckChatModel(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		key      string
		want     string
	}{
		{"openai with key", "openai", "sk-test", StatusPass},
		{"openai without key", "openai", "", StatusWarning},
		{"gemini without key", "gemini", "", StatusFail},
		{"unknown provider", "llama", "x", StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.LLMProvider = tt.provider
			cfg.LLMAPIKey = tt.key

			result := NewChecker(nil, cfg).checkChatModel()
			if result.Status != tt.want {
				t.Errorf("Expected status '%s', got '%s'", tt.want, result.Status)
			}
		})
	}
}

func TestCheckPersona(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "persona.yaml")
	if err := os.WriteFile(good, []byte("fallback_reply: Hi there\n"), 0o644); err != nil {
		t.Fatalf("Failed to write persona: %v", err)
	}

	cfg := baseConfig()
	cfg.PersonaFile = good
	if result := NewChecker(nil, cfg).checkPersona(); result.Status != StatusPass {
		t.Errorf("Expected readable persona to pass, got %s", result.Status)
	}

	cfg.PersonaFile = filepath.Join(dir, "missing.yaml")
	if result := NewChecker(nil, cfg).checkPersona(); result.Status != StatusFail {
		t.Errorf("Expected missing persona to fail, got %s", result.Status)
	}
}

func TestCheckRetentionSchedule(t *testing.T) {
	cfg := baseConfig()
	cfg.MessageRetentionDays = 30
	cfg.RetentionSchedule = "whenever"

	result := NewChecker(nil, cfg).checkRetentionSchedule()
	if result.Status != StatusFail {
		t.Errorf("Expected invalid schedule to fail, got %s", result.Status)
	}

	cfg.MessageRetentionDays = 0
	if result := NewChecker(nil, cfg).checkRetentionSchedule(); result.Status != StatusPass {
		t.Errorf("Expected disabled retention to pass, got %s", result.Status)
	}
}

func TestCheckEncryption(t *testing.T) {
	cfg := baseConfig()
	cfg.EncryptionMasterKey = "not-a-key"
	if result := NewChecker(nil, cfg).checkEncryption(); result.Status != StatusFail {
		t.Errorf("Expected invalid key to fail, got %s", result.Status)
	}

	cfg.EncryptionMasterKey = ""
	cfg.Environment = "production"
	if result := NewChecker(nil, cfg).checkEncryption(); result.Status != StatusWarning {
		t.Errorf("Expected missing key in production to warn, got %s", result.Status)
	}
}
