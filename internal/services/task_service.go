package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"mentor/internal/database"
	"mentor/internal/models"
	"mentor/internal/query"
)

// TaskService handles the legacy task/list model.
type TaskService struct {
	db     *database.DB
	locker Locker
	clock  func() time.Time
}

// NewTaskService creates a new task service. locker serialises list
// find-or-create per user and name; nil uses an in-process locker.
func NewTaskService(db *database.DB, locker Locker) *TaskService {
	if locker == nil {
		locker = NewKeyedLocker()
	}
	return &TaskService{db: db, locker: locker, clock: time.Now}
}

const listColumns = `id, user_id, name, is_default, created_at`

func scanList(s scanner) (*models.List, error) {
	var l models.List
	var createdAt string
	if err := s.Scan(&l.ID, &l.UserID, &l.Name, &l.IsDefault, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if l.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	return &l, nil
}

const taskColumns = `id, user_id, list_id, title, description, deadline, priority, completed, completed_at, created_at, updated_at`

func scanTask(s scanner) (*models.Task, error) {
	var t models.Task
	var description, deadline, completedAt sql.NullString
	var createdAt, updatedAt string
	if err := s.Scan(&t.ID, &t.UserID, &t.ListID, &t.Title, &description, &deadline, &t.Priority,
		&t.Completed, &completedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Description = database.StringPtr(description)
	var err error
	if t.Deadline, err = database.ScanTime(deadline); err != nil {
		return nil, err
	}
	if t.CompletedAt, err = database.ScanTime(completedAt); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// execer is satisfied by *database.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *TaskService) insertList(ctx context.Context, exec execer, userID, name string, isDefault bool) (*models.List, error) {
	l := &models.List{
		ID:        database.NewID(),
		UserID:    userID,
		Name:      name,
		IsDefault: isDefault,
		CreatedAt: s.clock().UTC(),
	}
	_, err := exec.ExecContext(ctx, `INSERT INTO lists (`+listColumns+`) VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Name, l.IsDefault, database.FormatTime(l.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert list: %w", err)
	}
	return l, nil
}

// CreateList creates a list with the name exactly as given.
func (s *TaskService) CreateList(ctx context.Context, userID string, req models.ListCreate) (*models.List, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.insertList(ctx, s.db, userID, req.Name, false)
}

// ListLists returns the user's lists in creation order.
func (s *TaskService) ListLists(ctx context.Context, userID string) ([]models.List, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+listColumns+` FROM lists WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	defer rows.Close()

	lists := []models.List{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

// GetList returns the list if it belongs to userID.
func (s *TaskService) GetList(ctx context.Context, userID, listID string) (*models.List, error) {
	l, err := scanList(s.db.QueryRowContext(ctx, `SELECT `+listColumns+` FROM lists WHERE id = ? AND user_id = ?`, listID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query list: %w", err)
	}
	return l, nil
}

// DeleteList removes a list and its tasks. It returns false when the list is not the user's.
func (s *TaskService) DeleteList(ctx context.Context, userID, listID string) (bool, error) {
	deleted := false
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE list_id = ? AND user_id = ?`, listID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete list tasks: %w", err)
		}
		res, err = tx.ExecContext(ctx, `DELETE FROM lists WHERE id = ? AND user_id = ?`, listID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete list: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	return deleted, err
}

// EnsureDefaultLists creates whichever of the default lists the user is missing
// and returns all of the user's lists. Calling it again creates nothing.
func (s *TaskService) EnsureDefaultLists(ctx context.Context, userID string) ([]models.List, error) {
	unlock, err := s.locker.Lock(ctx, "default-lists:"+userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	lists, err := s.ListLists(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]bool, len(lists))
	for _, l := range lists {
		if l.IsDefault {
			existing[l.Name] = true
		}
	}

	var created []models.List
	for _, name := range models.DefaultListNames {
		if existing[name] {
			continue
		}
		l, err := s.insertList(ctx, s.db, userID, name, true)
		if err != nil {
			return nil, err
		}
		created = append(created, *l)
	}
	if len(created) > 0 {
		log.Printf("📋 [TASKS] Created %d default lists for user %s", len(created), userID)
		lists = append(lists, created...)
	}
	return lists, nil
}

// FindListByName looks up a list by name, ignoring case.
func (s *TaskService) FindListByName(ctx context.Context, userID, name string) (*models.List, error) {
	return s.findListByName(ctx, s.db, userID, name)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *TaskService) findListByName(ctx context.Context, q rowQuerier, userID, name string) (*models.List, error) {
	l, err := scanList(q.QueryRowContext(ctx, `SELECT `+listColumns+` FROM lists
		WHERE user_id = ? AND LOWER(name) = LOWER(?) ORDER BY created_at, id LIMIT 1`, userID, strings.TrimSpace(name)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query list: %w", err)
	}
	return l, nil
}

// FindOrCreateList returns the user's list matching name case-insensitively,
// creating it with the name as given when none exists. Concurrent callers for
// the same user and name are serialised, so at most one list is created.
func (s *TaskService) FindOrCreateList(ctx context.Context, userID, name string) (list *models.List, created bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, fmt.Errorf("%w: list name is required", models.ErrValidation)
	}

	unlock, err := s.locker.Lock(ctx, "list:"+userID+":"+strings.ToLower(name))
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.findListByName(ctx, tx, userID, name)
		if err == nil {
			list = existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		list, err = s.insertList(ctx, tx, userID, name, false)
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return list, created, nil
}

// CreateTask adds a task to one of the user's lists.
func (s *TaskService) CreateTask(ctx context.Context, userID string, req models.TaskCreate) (*models.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetList(ctx, userID, req.ListID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrListNotOwned
		}
		return nil, err
	}

	now := s.clock().UTC()
	t := &models.Task{
		ID:          database.NewID(),
		UserID:      userID,
		ListID:      req.ListID,
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		Priority:    req.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.ListID, t.Title, database.NullString(t.Description), database.NullTime(t.Deadline),
		t.Priority, t.Completed, database.NullTime(t.CompletedAt), database.FormatTime(t.CreatedAt), database.FormatTime(t.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	log.Printf("✅ [TASKS] Created task %s in list %s for user %s", t.ID, t.ListID, userID)
	return t, nil
}

// ListTasks returns the user's tasks, optionally restricted to one list,
// highest priority first and newest first within a priority.
func (s *TaskService) ListTasks(ctx context.Context, userID, listID string) ([]models.Task, error) {
	where := "user_id = ?"
	args := []interface{}{userID}
	if listID != "" {
		where += " AND list_id = ?"
		args = append(args, listID)
	}
	return s.queryTasks(ctx, where, args...)
}

// OpenTasks returns the user's incomplete tasks.
func (s *TaskService) OpenTasks(ctx context.Context, userID string) ([]models.Task, error) {
	return s.queryTasks(ctx, "user_id = ? AND completed = ?", userID, false)
}

func (s *TaskService) queryTasks(ctx context.Context, where string, args ...interface{}) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE `+where+`
		ORDER BY priority DESC, created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	query.SortTasks(tasks)
	return tasks, nil
}

// GetTask returns the task if it belongs to userID.
func (s *TaskService) GetTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	return t, nil
}

// UpdateTask applies a partial update to the user's task.
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID string, update models.TaskUpdate) (*models.Task, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	var updated *models.Task
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		t, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to query task: %w", err)
		}

		update.Apply(t, s.clock().UTC())

		_, err = tx.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, deadline = ?, priority = ?,
			completed = ?, completed_at = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
			t.Title, database.NullString(t.Description), database.NullTime(t.Deadline), t.Priority,
			t.Completed, database.NullTime(t.CompletedAt), database.FormatTime(t.UpdatedAt), t.ID, userID)
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CompleteTask marks the task completed.
func (s *TaskService) CompleteTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	return s.UpdateTask(ctx, userID, taskID, models.TaskUpdate{Completed: models.Some(true)})
}

// DeleteTask removes the task. It returns false when the task is not the user's.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
