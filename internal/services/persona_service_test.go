package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mentor/internal/config"
)

func TestPersonaStore_DefaultWithoutFile(t *testing.T) {
	store, err := NewPersonaStore("")
	if err != nil {
		t.Fatalf("NewPersonaStore failed: %v", err)
	}
	if store.Get().FallbackReply != config.DefaultPersona().FallbackReply {
		t.Error("Expected the default persona")
	}
	if err := store.Watch(context.Background()); err != nil {
		t.Errorf("Watch without a file should be a no-op, got %v", err)
	}
}

func TestPersonaStore_LoadFailure(t *testing.T) {
	if _, err := NewPersonaStore(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for a missing persona file")
	}
}

func TestPersonaStore_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	if err := os.WriteFile(path, []byte("fallback_reply: \"Let's regroup.\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := NewPersonaStore(path)
	if err != nil {
		t.Fatalf("NewPersonaStore failed: %v", err)
	}
	if store.Get().FallbackReply != "Let's regroup." {
		t.Fatalf("Expected fallback from file, got %q", store.Get().FallbackReply)
	}

	if err := os.WriteFile(path, []byte("fallback_reply: [unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := store.Reload(); err == nil {
		t.Error("Expected reload error for invalid YAML")
	}
	if store.Get().FallbackReply != "Let's regroup." {
		t.Errorf("Expected previous persona to stay active, got %q", store.Get().FallbackReply)
	}
}

func TestPersonaStore_WatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	if err := os.WriteFile(path, []byte("fallback_reply: first\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := NewPersonaStore(path)
	if err != nil {
		t.Fatalf("NewPersonaStore failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := store.Watch(ctx); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("fallback_reply: second\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if store.Get().FallbackReply == "second" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Errorf("Expected persona to be reloaded, still %q", store.Get().FallbackReply)
}
