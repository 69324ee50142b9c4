// Package crypto encrypts user data at rest. Each user gets their own AES-256-GCM
// key, derived from a single master key with HKDF.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// Prefix marks encrypted values so rows written before encryption was turned on
// still read back as plaintext.
const Prefix = "enc:v1:"

const hkdfInfo = "mentor-user-data"

// Cipher encrypts and decrypts strings on behalf of a user
type Cipher struct {
	masterKey []byte
}

// NewCipher creates a cipher from a 32-byte hex-encoded master key (64 characters)
func NewCipher(masterKeyHex string) (*Cipher, error) {
	if masterKeyHex == "" {
		return nil, errors.New("encryption master key is required")
	}

	masterKey, err := hex.DecodeString(masterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid master key format (must be hex): %w", err)
	}
	if len(masterKey) != 32 {
		return nil, fmt.Errorf("master key must be 32 bytes (64 hex characters), got %d bytes", len(masterKey))
	}
	return &Cipher{masterKey: masterKey}, nil
}

func (c *Cipher) gcm(userID string) (cipher.AEAD, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, c.masterKey, []byte(userID), []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive user key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// EncryptString returns Prefix followed by base64(nonce || ciphertext)
func (c *Cipher) EncryptString(userID, plaintext string) (string, error) {
	gcm, err := c.gcm(userID)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), []byte(userID))
	return Prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString reverses EncryptString. Values without Prefix are returned unchanged.
func (c *Cipher) DecryptString(userID, value string) (string, error) {
	encoded, ok := strings.CutPrefix(value, Prefix)
	if !ok {
		return value, nil
	}

	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	gcm, err := c.gcm(userID)
	if err != nil {
		return "", err
	}
	if len(sealed) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, []byte(userID))
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}

// GenerateMasterKey returns a random hex-encoded master key
func GenerateMasterKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate master key: %w", err)
	}
	return hex.EncodeToString(key), nil
}
