package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	cache "github.com/patrickmn/go-cache"

	"mentor/internal/database"
	"mentor/internal/models"
)

// MessageService stores the per-user chat log. The window replayed into each
// chat turn is cached per user and dropped on every write.
type MessageService struct {
	db           *database.DB
	historyCache *cache.Cache
	replayLimit  int
	clock        func() time.Time
	cipher       ContentCipher
}

// ContentCipher encrypts message content at rest.
type ContentCipher interface {
	EncryptString(userID, plaintext string) (string, error)
	DecryptString(userID, value string) (string, error)
}

// NewMessageService creates a message service. replayLimit is the number of
// recent messages handed to the chat model; cacheTTL bounds how long a cached
// window lives without writes.
func NewMessageService(db *database.DB, replayLimit int, cacheTTL time.Duration) *MessageService {
	if replayLimit <= 0 {
		replayLimit = 20
	}
	return &MessageService{
		db:           db,
		historyCache: cache.New(cacheTTL, 2*cacheTTL),
		replayLimit:  replayLimit,
		clock:        time.Now,
	}
}

// SetCipher turns on encryption of message content for subsequent writes.
// Messages stored in plaintext keep reading back unchanged.
func (s *MessageService) SetCipher(c ContentCipher) {
	s.cipher = c
}

// Append records a message and returns it.
func (s *MessageService) Append(ctx context.Context, userID string, role models.MessageRole, content string, extra map[string]interface{}) (*models.Message, error) {
	if extra == nil {
		extra = map[string]interface{}{}
	}
	m := &models.Message{
		ID:        database.NewID(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		ExtraData: extra,
		CreatedAt: s.clock().UTC(),
	}
	extraJSON, err := database.MarshalJSON(m.ExtraData, "{}")
	if err != nil {
		return nil, fmt.Errorf("failed to encode extra_data: %w", err)
	}

	stored := m.Content
	if s.cipher != nil {
		if stored, err = s.cipher.EncryptString(userID, m.Content); err != nil {
			return nil, fmt.Errorf("failed to encrypt message: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO messages (id, user_id, role, content, extra_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, m.ID, m.UserID, string(m.Role), stored, extraJSON, database.FormatTime(m.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	s.historyCache.Delete(userID)
	return m, nil
}

// Recent returns the user's latest limit messages, oldest first.
func (s *MessageService) Recent(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		return []models.Message{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, role, content, extra_data, created_at
		FROM messages WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		var extra sql.NullString
		var createdAt string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &extra, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if s.cipher != nil {
			if m.Content, err = s.cipher.DecryptString(m.UserID, m.Content); err != nil {
				return nil, fmt.Errorf("failed to decrypt message %s: %w", m.ID, err)
			}
		}
		m.ExtraData = map[string]interface{}{}
		if err := database.UnmarshalJSON(extra, &m.ExtraData); err != nil {
			return nil, fmt.Errorf("invalid extra_data: %w", err)
		}
		if m.CreatedAt, err = database.ParseTime(createdAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ReplayWindow returns the recent messages replayed into a chat turn, oldest first.
func (s *MessageService) ReplayWindow(ctx context.Context, userID string) ([]models.Message, error) {
	if cached, ok := s.historyCache.Get(userID); ok {
		return cached.([]models.Message), nil
	}
	messages, err := s.Recent(ctx, userID, s.replayLimit)
	if err != nil {
		return nil, err
	}
	s.historyCache.Set(userID, messages, cache.DefaultExpiration)
	return messages, nil
}

// DeleteAll clears the user's chat log and returns how many messages were removed.
func (s *MessageService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}
	s.historyCache.Delete(userID)
	return res.RowsAffected()
}

// DeleteOlderThan removes every message created before cutoff, across all users.
func (s *MessageService) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE created_at < ?`, database.FormatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old messages: %w", err)
	}
	s.historyCache.Flush()
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("🧹 [MESSAGES] Removed %d messages older than %s", n, cutoff.Format(time.RFC3339))
	}
	return n, nil
}
