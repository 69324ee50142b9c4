package crypto

import (
	"strings"
	"testing"
)

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	key, err := GenerateMasterKey()
	if err != nil {
		t.Fatalf("GenerateMasterKey failed: %v", err)
	}
	c, err := NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}
	return c
}

func TestCipher_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	encrypted, err := c.EncryptString("u1", "feeling tired after the run")
	if err != nil {
		t.Fatalf("EncryptString failed: %v", err)
	}
	if !strings.HasPrefix(encrypted, Prefix) || strings.Contains(encrypted, "tired") {
		t.Fatalf("Expected opaque prefixed value, got %q", encrypted)
	}

	decrypted, err := c.DecryptString("u1", encrypted)
	if err != nil {
		t.Fatalf("DecryptString failed: %v", err)
	}
	if decrypted != "feeling tired after the run" {
		t.Errorf("Round trip mismatch: %q", decrypted)
	}
}

func TestCipher_KeysArePerUser(t *testing.T) {
	c := newTestCipher(t)

	encrypted, err := c.EncryptString("u1", "secret")
	if err != nil {
		t.Fatalf("EncryptString failed: %v", err)
	}
	if _, err := c.DecryptString("u2", encrypted); err == nil {
		t.Error("Expected another user's key to fail")
	}
}

func TestCipher_PlaintextPassesThrough(t *testing.T) {
	c := newTestCipher(t)

	got, err := c.DecryptString("u1", "written before encryption")
	if err != nil || got != "written before encryption" {
		t.Errorf("Expected plaintext unchanged, got %q, %v", got, err)
	}
}

func TestNewCipher_RejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "not-hex", "abcd"} {
		if _, err := NewCipher(key); err == nil {
			t.Errorf("Expected error for key %q", key)
		}
	}
}
