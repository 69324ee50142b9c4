package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHAT_HISTORY_LIMIT", "")
	t.Setenv("LLM_TIMEOUT", "")

	cfg := Load()
	if cfg.HistoryLimit != 20 {
		t.Errorf("HistoryLimit = %d, want 20", cfg.HistoryLimit)
	}
	if cfg.ChatHistoryDefault != 50 {
		t.Errorf("ChatHistoryDefault = %d, want 50", cfg.ChatHistoryDefault)
	}
	if cfg.LLMTimeout != 120*time.Second {
		t.Errorf("LLMTimeout = %v, want 2m", cfg.LLMTimeout)
	}
	if cfg.ConfirmationGate {
		t.Error("confirmation gate should be off by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHAT_HISTORY_LIMIT", "5")
	t.Setenv("LLM_TIMEOUT", "30")
	t.Setenv("CHAT_CONFIRMATION_GATE", "true")
	t.Setenv("ENVIRONMENT", "Production")

	cfg := Load()
	if cfg.HistoryLimit != 5 {
		t.Errorf("HistoryLimit = %d, want 5", cfg.HistoryLimit)
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Errorf("LLMTimeout = %v, want 30s", cfg.LLMTimeout)
	}
	if !cfg.ConfirmationGate {
		t.Error("expected confirmation gate enabled")
	}
	if !cfg.IsProduction() {
		t.Error("expected production environment")
	}
}

func TestLoadPersonaMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	content := "system_prompt: |\n  You are terse.\naffirmative_words: [\"aye\"]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	persona, err := LoadPersona(path)
	if err != nil {
		t.Fatalf("LoadPersona: %v", err)
	}
	if persona.SystemPrompt != "You are terse.\n" {
		t.Errorf("SystemPrompt = %q", persona.SystemPrompt)
	}
	if persona.FallbackReply != DefaultPersona().FallbackReply {
		t.Errorf("FallbackReply = %q, want default", persona.FallbackReply)
	}
	if !persona.IsAffirmative("Aye!") {
		t.Error("expected 'Aye!' to be affirmative")
	}
	if persona.IsAffirmative("yes") {
		t.Error("'yes' is not in the overridden word list")
	}
}

func TestIsAffirmative(t *testing.T) {
	p := DefaultPersona()
	tests := []struct {
		msg  string
		want bool
	}{
		{"yes", true},
		{"Yeah tomorrow afternoon", true},
		{"ok.", true},
		{"go ahead", true},
		{"sure, add it", true},
		{"I need to buy milk", false},
		{"yesterday was rough", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := p.IsAffirmative(tt.msg); got != tt.want {
			t.Errorf("IsAffirmative(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}
