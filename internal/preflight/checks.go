package preflight

import (
	"fmt"
	"log"

	"mentor/internal/config"
	"mentor/internal/crypto"
	"mentor/internal/database"
	"mentor/internal/jobs"
)

// Check statuses
const (
	StatusPass    = "pass"
	StatusFail    = "fail"
	StatusWarning = "warning"
)

// RequiredTables must exist after database initialization
var RequiredTables = []string{
	"users",
	"entities",
	"entity_relations",
	"context_windows",
	"user_patterns",
	"messages",
	"lists",
	"tasks",
}

// CheckResult represents the result of a preflight check
type CheckResult struct {
	Name    string
	Status  string
	Message string
	Error   error
}

// Checker performs pre-flight checks before server starts
type Checker struct {
	db  *database.DB
	cfg *config.Config
}

// NewChecker creates a new preflight checker
func NewChecker(db *database.DB, cfg *config.Config) *Checker {
	return &Checker{db: db, cfg: cfg}
}

// RunAll runs all preflight checks and returns results
func (c *Checker) RunAll() []CheckResult {
	log.Println("🔍 Running pre-flight checks...")

	results := []CheckResult{
		c.checkDatabaseConnection(),
		c.checkDatabaseSchema(),
		c.checkAuthentication(),
		c.checkChatModel(),
		c.checkPersona(),
		c.checkRetentionSchedule(),
		c.checkEncryption(),
	}

	passed, failed, warnings := 0, 0, 0
	for _, result := range results {
		switch result.Status {
		case StatusPass:
			log.Printf("   ✅ %s: %s", result.Name, result.Message)
			passed++
		case StatusFail:
			log.Printf("   ❌ %s: %s", result.Name, result.Message)
			if result.Error != nil {
				log.Printf("      Error: %v", result.Error)
			}
			failed++
		case StatusWarning:
			log.Printf("   ⚠️  %s: %s", result.Name, result.Message)
			warnings++
		}
	}

	log.Printf("📊 Pre-flight summary: %d passed, %d failed, %d warnings", passed, failed, warnings)
	return results
}

// HasFailures returns true if any check failed
func HasFailures(results []CheckResult) bool {
	for _, result := range results {
		if result.Status == StatusFail {
			return true
		}
	}
	return false
}

func (c *Checker) checkDatabaseConnection() CheckResult {
	if err := c.db.Ping(); err != nil {
		return CheckResult{
			Name:    "Database Connection",
			Status:  StatusFail,
			Message: "Cannot connect to database",
			Error:   err,
		}
	}
	return CheckResult{
		Name:    "Database Connection",
		Status:  StatusPass,
		Message: fmt.Sprintf("Connected (%s)", c.db.Dialect),
	}
}

func (c *Checker) checkDatabaseSchema() CheckResult {
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	if c.db.Dialect == database.DialectMySQL {
		query = "SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?"
	}

	for _, table := range RequiredTables {
		var count int
		err := c.db.QueryRow(query, table).Scan(&count)
		if err != nil || count == 0 {
			return CheckResult{
				Name:    "Database Schema",
				Status:  StatusFail,
				Message: fmt.Sprintf("Required table '%s' not found", table),
				Error:   err,
			}
		}
	}

	return CheckResult{
		Name:    "Database Schema",
		Status:  StatusPass,
		Message: fmt.Sprintf("All %d required tables exist", len(RequiredTables)),
	}
}

func (c *Checker) checkAuthentication() CheckResult {
	switch {
	case c.cfg.JWTSecret == "" && c.cfg.IsProduction():
		return CheckResult{
			Name:    "Authentication",
			Status:  StatusFail,
			Message: "JWT_SECRET is required in production",
		}
	case c.cfg.JWTSecret == "":
		return CheckResult{
			Name:    "Authentication",
			Status:  StatusWarning,
			Message: "JWT_SECRET not set, all requests run as the development user",
		}
	case len(c.cfg.JWTSecret) < 32:
		return CheckResult{
			Name:    "Authentication",
			Status:  StatusWarning,
			Message: "JWT_SECRET is shorter than 32 characters",
		}
	}
	return CheckResult{
		Name:    "Authentication",
		Status:  StatusPass,
		Message: "Local JWT authentication configured",
	}
}

func (c *Checker) checkChatModel() CheckResult {
	switch c.cfg.LLMProvider {
	case "openai":
		if c.cfg.LLMAPIKey == "" {
			return CheckResult{
				Name:    "Chat Model",
				Status:  StatusWarning,
				Message: fmt.Sprintf("No API key for %s, only keyless endpoints will work", c.cfg.LLMBaseURL),
			}
		}
	case "gemini":
		if c.cfg.LLMAPIKey == "" {
			return CheckResult{
				Name:    "Chat Model",
				Status:  StatusFail,
				Message: "LLM_API_KEY is required for the gemini provider",
			}
		}
	default:
		return CheckResult{
			Name:    "Chat Model",
			Status:  StatusFail,
			Message: fmt.Sprintf("Unknown LLM_PROVIDER '%s' (expected openai or gemini)", c.cfg.LLMProvider),
		}
	}
	return CheckResult{
		Name:    "Chat Model",
		Status:  StatusPass,
		Message: fmt.Sprintf("%s / %s", c.cfg.LLMProvider, c.cfg.LLMModel),
	}
}

func (c *Checker) checkPersona() CheckResult {
	if c.cfg.PersonaFile == "" {
		return CheckResult{
			Name:    "Persona",
			Status:  StatusPass,
			Message: "Using built-in persona",
		}
	}
	if _, err := config.LoadPersona(c.cfg.PersonaFile); err != nil {
		return CheckResult{
			Name:    "Persona",
			Status:  StatusFail,
			Message: fmt.Sprintf("Cannot load %s", c.cfg.PersonaFile),
			Error:   err,
		}
	}
	return CheckResult{
		Name:    "Persona",
		Status:  StatusPass,
		Message: fmt.Sprintf("Loaded %s", c.cfg.PersonaFile),
	}
}

func (c *Checker) checkRetentionSchedule() CheckResult {
	if c.cfg.MessageRetentionDays <= 0 {
		return CheckResult{
			Name:    "Message Retention",
			Status:  StatusPass,
			Message: "Disabled, messages are kept forever",
		}
	}
	if err := jobs.ValidateSchedule(c.cfg.RetentionSchedule); err != nil {
		return CheckResult{
			Name:    "Message Retention",
			Status:  StatusFail,
			Message: "MESSAGE_RETENTION_SCHEDULE is not a valid cron expression",
			Error:   err,
		}
	}
	return CheckResult{
		Name:    "Message Retention",
		Status:  StatusPass,
		Message: fmt.Sprintf("%d days, pruned on '%s'", c.cfg.MessageRetentionDays, c.cfg.RetentionSchedule),
	}
}

func (c *Checker) checkEncryption() CheckResult {
	if c.cfg.EncryptionMasterKey == "" {
		status := StatusPass
		if c.cfg.IsProduction() {
			status = StatusWarning
		}
		return CheckResult{
			Name:    "Encryption",
			Status:  status,
			Message: "ENCRYPTION_MASTER_KEY not set, chat messages are stored in plaintext",
		}
	}
	if _, err := crypto.NewCipher(c.cfg.EncryptionMasterKey); err != nil {
		return CheckResult{
			Name:    "Encryption",
			Status:  StatusFail,
			Message: "ENCRYPTION_MASTER_KEY is invalid",
			Error:   err,
		}
	}
	return CheckResult{
		Name:    "Encryption",
		Status:  StatusPass,
		Message: "Chat messages encrypted at rest",
	}
}
