// Package health tracks whether the chat model is answering. A model that keeps
// failing is short-circuited for a cooldown so chat turns fall back immediately
// instead of waiting on a provider that is down or out of quota.
package health

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"mentor/internal/llm"
)

// Status is the health state of the chat model
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusCooldown  Status = "cooldown"
	StatusUnknown   Status = "unknown"
)

// ErrCooldown is returned instead of calling a model that is cooling down.
var ErrCooldown = errors.New("chat model is cooling down")

// Snapshot is a point-in-time copy of the model's health
type Snapshot struct {
	Model         string    `json:"model"`
	Status        Status    `json:"status"`
	LastChecked   time.Time `json:"last_checked,omitzero"`
	LastSuccessAt time.Time `json:"last_success_at,omitzero"`
	FailureCount  int       `json:"failure_count"`
	LastError     string    `json:"last_error,omitempty"`
	CooldownUntil time.Time `json:"cooldown_until,omitzero"`
}

// ModelMonitor wraps a ChatModel and records the outcome of every call
type ModelMonitor struct {
	model            llm.ChatModel
	failureThreshold int
	failureCooldown  time.Duration
	now              func() time.Time

	mu    sync.RWMutex
	state Snapshot
}

// NewModelMonitor wraps model. After failureThreshold consecutive failures the
// model is skipped for failureCooldown; quota errors start a cooldown right away.
func NewModelMonitor(model llm.ChatModel, name string, failureThreshold int, failureCooldown time.Duration) *ModelMonitor {
	if failureThreshold <= 0 {
		failureThreshold = 3
	}
	return &ModelMonitor{
		model:            model,
		failureThreshold: failureThreshold,
		failureCooldown:  failureCooldown,
		now:              time.Now,
		state:            Snapshot{Model: name, Status: StatusUnknown},
	}
}

// Complete implements llm.ChatModel
func (m *ModelMonitor) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if m.IsInCooldown() {
		return nil, ErrCooldown
	}

	resp, err := m.model.Complete(ctx, req)
	switch {
	case err == nil:
		m.MarkHealthy()
	case errors.Is(err, context.Canceled):
		// the caller went away; says nothing about the model
	default:
		m.MarkUnhealthy(err)
	}
	return resp, err
}

// MarkHealthy records a successful call
func (m *ModelMonitor) MarkHealthy() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	wasUnhealthy := m.state.Status == StatusUnhealthy || m.state.Status == StatusCooldown
	m.state.Status = StatusHealthy
	m.state.FailureCount = 0
	m.state.LastError = ""
	m.state.LastSuccessAt = now
	m.state.LastChecked = now
	m.state.CooldownUntil = time.Time{}

	if wasUnhealthy {
		log.Printf("[HEALTH] chat model %s recovered - now healthy", m.state.Model)
	}
}

// MarkUnhealthy records a failed call
func (m *ModelMonitor) MarkUnhealthy(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.state.FailureCount++
	m.state.LastError = truncate(err.Error(), 200)
	m.state.LastChecked = now

	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) && IsQuotaError(statusErr.StatusCode, statusErr.Body) {
		m.coolDown(now, ParseCooldownDuration(statusErr.StatusCode, statusErr.Body))
		return
	}

	if m.state.FailureCount < m.failureThreshold {
		log.Printf("[HEALTH] chat model %s failure %d/%d: %s",
			m.state.Model, m.state.FailureCount, m.failureThreshold, m.state.LastError)
		return
	}
	if m.failureCooldown > 0 {
		m.coolDown(now, m.failureCooldown)
		return
	}
	m.state.Status = StatusUnhealthy
	log.Printf("[HEALTH] chat model %s marked UNHEALTHY after %d failures: %s",
		m.state.Model, m.state.FailureCount, m.state.LastError)
}

func (m *ModelMonitor) coolDown(now time.Time, d time.Duration) {
	m.state.Status = StatusCooldown
	m.state.CooldownUntil = now.Add(d)
	log.Printf("[HEALTH] chat model %s in COOLDOWN until %s (reason: %s)",
		m.state.Model, m.state.CooldownUntil.Format(time.RFC3339), m.state.LastError)
}

// IsInCooldown reports whether calls are currently being skipped
func (m *ModelMonitor) IsInCooldown() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Status == StatusCooldown && m.now().Before(m.state.CooldownUntil)
}

// Snapshot returns the current health
func (m *ModelMonitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.state
	if s.Status == StatusCooldown && !m.now().Before(s.CooldownUntil) {
		// cooldown elapsed; the next call decides
		s.Status = StatusUnhealthy
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
