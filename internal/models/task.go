package models

import (
	"fmt"
	"strings"
	"time"
)

// DefaultListNames are created for every user on first access to their lists.
var DefaultListNames = []string{"Town", "Home", "Free Time"}

// List groups tasks, e.g. "Town" for errands.
type List struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

type ListCreate struct {
	Name string `json:"name"`
}

func (c *ListCreate) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	return nil
}

// Task is a legacy to-do item that always belongs to a list.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	ListID      string     `json:"list_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Priority    int        `json:"priority"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type TaskCreate struct {
	ListID      string     `json:"list_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Priority    int        `json:"priority,omitempty"`
}

func (c *TaskCreate) Validate() error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if c.ListID == "" {
		return fmt.Errorf("%w: list_id is required", ErrValidation)
	}
	return nil
}

// TaskUpdate is a partial update of a task.
type TaskUpdate struct {
	Title       Optional[string]    `json:"title,omitzero"`
	Description Optional[string]    `json:"description,omitzero"`
	Deadline    Optional[time.Time] `json:"deadline,omitzero"`
	Priority    Optional[int]       `json:"priority,omitzero"`
	Completed   Optional[bool]      `json:"completed,omitzero"`
}

func (u *TaskUpdate) Validate() error {
	if u.Title.Set && (u.Title.Null || strings.TrimSpace(u.Title.Value) == "") {
		return fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	if u.Priority.Set && u.Priority.Null {
		return fmt.Errorf("%w: priority cannot be null", ErrValidation)
	}
	if u.Completed.Set && u.Completed.Null {
		return fmt.Errorf("%w: completed cannot be null", ErrValidation)
	}
	return nil
}

// Apply merges the update into t. Completing an open task stamps completed_at;
// reopening always clears it.
func (u *TaskUpdate) Apply(t *Task, now time.Time) {
	if u.Title.Set {
		t.Title = strings.TrimSpace(u.Title.Value)
	}
	if u.Description.Set {
		t.Description = u.Description.Ptr()
	}
	if u.Deadline.Set {
		t.Deadline = u.Deadline.Ptr()
	}
	if u.Priority.Set {
		t.Priority = u.Priority.Value
	}
	if u.Completed.Set {
		if u.Completed.Value {
			if !t.Completed {
				stamp := now
				t.CompletedAt = &stamp
			}
			t.Completed = true
		} else {
			t.Completed = false
			t.CompletedAt = nil
		}
	}
	t.UpdatedAt = now
}
