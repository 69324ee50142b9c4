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

// EntityService handles entities, the relation graph between them, context windows
// and user patterns. Every read and write except the relation graph is scoped to a user.
type EntityService struct {
	db    *database.DB
	clock func() time.Time
}

// NewEntityService creates a new entity service
func NewEntityService(db *database.DB) *EntityService {
	return &EntityService{db: db, clock: time.Now}
}

const entityColumns = `id, user_id, entity_type, title, description, scheduled_at, due_at, period_start, period_end,
	context_tags, location, estimated_duration, status, completed_at, blocked_by, priority, extra_data, created_at, updated_at`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntity(s scanner) (*models.Entity, error) {
	var e models.Entity
	var description, location, scheduledAt, dueAt, periodStart, periodEnd, completedAt sql.NullString
	var tags, blockedBy, extra sql.NullString
	var duration sql.NullInt64
	var createdAt, updatedAt string

	if err := s.Scan(&e.ID, &e.UserID, &e.EntityType, &e.Title, &description, &scheduledAt, &dueAt,
		&periodStart, &periodEnd, &tags, &location, &duration, &e.Status, &completedAt, &blockedBy,
		&e.Priority, &extra, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	e.Description = database.StringPtr(description)
	e.Location = database.StringPtr(location)

	var err error
	if e.ScheduledAt, err = database.ScanTime(scheduledAt); err != nil {
		return nil, err
	}
	if e.DueAt, err = database.ScanTime(dueAt); err != nil {
		return nil, err
	}
	if e.CompletedAt, err = database.ScanTime(completedAt); err != nil {
		return nil, err
	}
	if e.PeriodStart, err = scanDate(periodStart); err != nil {
		return nil, err
	}
	if e.PeriodEnd, err = scanDate(periodEnd); err != nil {
		return nil, err
	}
	if duration.Valid {
		e.EstimatedDuration = &models.Duration{Duration: time.Duration(duration.Int64) * time.Second}
	}

	e.ContextTags = []string{}
	e.BlockedBy = []string{}
	e.ExtraData = map[string]interface{}{}
	if err := database.UnmarshalJSON(tags, &e.ContextTags); err != nil {
		return nil, fmt.Errorf("invalid context_tags: %w", err)
	}
	if err := database.UnmarshalJSON(blockedBy, &e.BlockedBy); err != nil {
		return nil, fmt.Errorf("invalid blocked_by: %w", err)
	}
	if err := database.UnmarshalJSON(extra, &e.ExtraData); err != nil {
		return nil, fmt.Errorf("invalid extra_data: %w", err)
	}

	if e.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanDate(ns sql.NullString) (*models.Date, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := models.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func nullDate(d *models.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullDuration(d *models.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(d.Duration / time.Second), Valid: true}
}

// entityArgs returns the column values of e in entityColumns order.
func entityArgs(e *models.Entity) ([]interface{}, error) {
	tags, err := database.MarshalJSON(e.ContextTags, "[]")
	if err != nil {
		return nil, fmt.Errorf("failed to encode context_tags: %w", err)
	}
	blockedBy, err := database.MarshalJSON(e.BlockedBy, "[]")
	if err != nil {
		return nil, fmt.Errorf("failed to encode blocked_by: %w", err)
	}
	extra, err := database.MarshalJSON(e.ExtraData, "{}")
	if err != nil {
		return nil, fmt.Errorf("failed to encode extra_data: %w", err)
	}
	return []interface{}{
		e.ID, e.UserID, string(e.EntityType), e.Title, database.NullString(e.Description),
		database.NullTime(e.ScheduledAt), database.NullTime(e.DueAt), nullDate(e.PeriodStart), nullDate(e.PeriodEnd),
		tags, database.NullString(e.Location), nullDuration(e.EstimatedDuration), string(e.Status),
		database.NullTime(e.CompletedAt), blockedBy, e.Priority, extra,
		database.FormatTime(e.CreatedAt), database.FormatTime(e.UpdatedAt),
	}, nil
}

// Create inserts a new entity owned by userID. A supplied completed_at is kept
// as given; otherwise an entity created as completed is stamped with now.
func (s *EntityService) Create(ctx context.Context, userID string, req models.EntityCreate) (*models.Entity, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	e := &models.Entity{
		ID:                database.NewID(),
		UserID:            userID,
		EntityType:        req.EntityType,
		Title:             req.Title,
		Description:       req.Description,
		ScheduledAt:       req.ScheduledAt,
		DueAt:             req.DueAt,
		PeriodStart:       req.PeriodStart,
		PeriodEnd:         req.PeriodEnd,
		ContextTags:       req.ContextTags,
		Location:          req.Location,
		EstimatedDuration: req.EstimatedDuration,
		Status:            req.Status,
		CompletedAt:       req.CompletedAt,
		BlockedBy:         req.BlockedBy,
		Priority:          req.Priority,
		ExtraData:         req.ExtraData,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if e.Status == models.StatusCompleted && e.CompletedAt == nil {
		e.CompletedAt = &now
	}

	args, err := entityArgs(e)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO entities (`+entityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert entity: %w", err)
	}

	log.Printf("📝 [ENTITY] Created %s %s for user %s", e.EntityType, e.ID, userID)
	return e, nil
}

// Get returns the entity if it exists and belongs to userID.
func (s *EntityService) Get(ctx context.Context, userID, id string) (*models.Entity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query entity: %w", err)
	}
	return e, nil
}

// List returns the user's entities matching filter, highest priority first and
// newest first within a priority. Type and status are filtered in SQL; tag
// membership is checked on the decoded tag list.
func (s *EntityService) List(ctx context.Context, userID string, filter query.EntityFilter) ([]models.Entity, error) {
	var where strings.Builder
	where.WriteString("user_id = ?")
	args := []interface{}{userID}
	if filter.EntityType != "" {
		where.WriteString(" AND entity_type = ?")
		args = append(args, string(filter.EntityType))
	}
	if filter.Status != "" {
		where.WriteString(" AND status = ?")
		args = append(args, string(filter.Status))
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+entityColumns+` FROM entities WHERE `+where.String()+`
		ORDER BY priority DESC, created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	entities := []models.Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entities: %w", err)
	}

	if filter.Tag != "" {
		entities = query.EntityFilter{Tag: filter.Tag}.Apply(entities)
	}
	return entities, nil
}

// Update applies a partial update and returns the stored result.
func (s *EntityService) Update(ctx context.Context, userID, id string, update models.EntityUpdate) (*models.Entity, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	var updated *models.Entity
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = ? AND user_id = ?`, id, userID)
		e, err := scanEntity(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to query entity: %w", err)
		}

		update.Apply(e, s.clock().UTC())

		args, err := entityArgs(e)
		if err != nil {
			return err
		}
		// Drop id and user_id from the front, append them for the WHERE clause.
		args = append(args[2:], e.ID, userID)
		_, err = tx.ExecContext(ctx, `UPDATE entities SET entity_type = ?, title = ?, description = ?,
			scheduled_at = ?, due_at = ?, period_start = ?, period_end = ?, context_tags = ?, location = ?,
			estimated_duration = ?, status = ?, completed_at = ?, blocked_by = ?, priority = ?, extra_data = ?,
			created_at = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`, args...)
		if err != nil {
			return fmt.Errorf("failed to update entity: %w", err)
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the entity and every relation edge touching it in one transaction.
// It returns false when the entity does not exist for userID.
func (s *EntityService) Delete(ctx context.Context, userID, id string) (bool, error) {
	deleted := false
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities WHERE id = ? AND user_id = ?`, id, userID).Scan(&count); err != nil {
			return fmt.Errorf("failed to check entity: %w", err)
		}
		if count == 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM entity_relations WHERE parent_id = ? OR child_id = ?`, id, id); err != nil {
			return fmt.Errorf("failed to delete relations: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE id = ? AND user_id = ?`, id, userID); err != nil {
			return fmt.Errorf("failed to delete entity: %w", err)
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if deleted {
		log.Printf("🗑️  [ENTITY] Deleted entity %s for user %s", id, userID)
	}
	return deleted, nil
}

// CreateRelation links parent to child. Both must exist; ownership is the caller's
// concern. Cycles and duplicate edges are allowed.
func (s *EntityService) CreateRelation(ctx context.Context, parentID, childID string, relationType models.RelationType) (*models.EntityRelation, error) {
	req := models.EntityRelationCreate{ParentID: parentID, ChildID: childID, RelationType: relationType}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	for _, id := range []string{parentID, childID} {
		var count int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities WHERE id = ?`, id).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to check entity: %w", err)
		}
		if count == 0 {
			return nil, fmt.Errorf("entity %s: %w", id, ErrNotFound)
		}
	}

	rel := &models.EntityRelation{
		ID:           database.NewID(),
		ParentID:     parentID,
		ChildID:      childID,
		RelationType: models.RelationType(strings.TrimSpace(string(relationType))),
		CreatedAt:    s.clock().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO entity_relations (id, parent_id, child_id, relation_type, created_at)
		VALUES (?, ?, ?, ?, ?)`, rel.ID, rel.ParentID, rel.ChildID, string(rel.RelationType), database.FormatTime(rel.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert relation: %w", err)
	}
	return rel, nil
}

// RelationsOf returns every edge where entityID is the parent or the child.
func (s *EntityService) RelationsOf(ctx context.Context, entityID string) ([]models.EntityRelation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, parent_id, child_id, relation_type, created_at
		FROM entity_relations WHERE parent_id = ? OR child_id = ?
		ORDER BY created_at, id`, entityID, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query relations: %w", err)
	}
	defer rows.Close()

	relations := []models.EntityRelation{}
	for rows.Next() {
		var r models.EntityRelation
		var createdAt string
		if err := rows.Scan(&r.ID, &r.ParentID, &r.ChildID, &r.RelationType, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan relation: %w", err)
		}
		if r.CreatedAt, err = database.ParseTime(createdAt); err != nil {
			return nil, err
		}
		relations = append(relations, r)
	}
	return relations, rows.Err()
}
