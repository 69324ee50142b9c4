package services

import (
	"context"
	"database/sql"
	"fmt"

	"mentor/internal/database"
	"mentor/internal/models"
)

// CreateContextWindow stores a recurring context window for userID.
func (s *EntityService) CreateContextWindow(ctx context.Context, userID string, req models.ContextWindowCreate) (*models.ContextWindow, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	w := &models.ContextWindow{
		ID:                  database.NewID(),
		UserID:              userID,
		WindowType:          req.WindowType,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		DaysOfWeek:          req.DaysOfWeek,
		EnergyLevel:         req.EnergyLevel,
		PreferredActivities: req.PreferredActivities,
		ExtraData:           req.ExtraData,
		CreatedAt:           s.clock().UTC(),
	}

	days, err := database.MarshalJSON(w.DaysOfWeek, "[]")
	if err != nil {
		return nil, err
	}
	activities, err := database.MarshalJSON(w.PreferredActivities, "[]")
	if err != nil {
		return nil, err
	}
	extra, err := database.MarshalJSON(w.ExtraData, "{}")
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO context_windows
		(id, user_id, window_type, start_time, end_time, days_of_week, energy_level, preferred_activities, extra_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.WindowType, database.NullString(w.StartTime), database.NullString(w.EndTime),
		days, database.NullString(w.EnergyLevel), activities, extra, database.FormatTime(w.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert context window: %w", err)
	}
	return w, nil
}

// ListContextWindows returns the user's context windows, oldest first.
func (s *EntityService) ListContextWindows(ctx context.Context, userID string) ([]models.ContextWindow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, window_type, start_time, end_time, days_of_week,
		energy_level, preferred_activities, extra_data, created_at
		FROM context_windows WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query context windows: %w", err)
	}
	defer rows.Close()

	windows := []models.ContextWindow{}
	for rows.Next() {
		var w models.ContextWindow
		var start, end, energy, days, activities, extra sql.NullString
		var createdAt string
		if err := rows.Scan(&w.ID, &w.UserID, &w.WindowType, &start, &end, &days, &energy, &activities, &extra, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan context window: %w", err)
		}
		w.StartTime = database.StringPtr(start)
		w.EndTime = database.StringPtr(end)
		w.EnergyLevel = database.StringPtr(energy)
		w.DaysOfWeek = []int{}
		w.PreferredActivities = []string{}
		w.ExtraData = map[string]interface{}{}
		if err := database.UnmarshalJSON(days, &w.DaysOfWeek); err != nil {
			return nil, fmt.Errorf("invalid days_of_week: %w", err)
		}
		if err := database.UnmarshalJSON(activities, &w.PreferredActivities); err != nil {
			return nil, fmt.Errorf("invalid preferred_activities: %w", err)
		}
		if err := database.UnmarshalJSON(extra, &w.ExtraData); err != nil {
			return nil, fmt.Errorf("invalid extra_data: %w", err)
		}
		if w.CreatedAt, err = database.ParseTime(createdAt); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// CreateUserPattern records an observed pattern for userID.
func (s *EntityService) CreateUserPattern(ctx context.Context, userID string, req models.UserPatternCreate) (*models.UserPattern, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	p := &models.UserPattern{
		ID:              database.NewID(),
		UserID:          userID,
		PatternType:     req.PatternType,
		PatternData:     req.PatternData,
		ConfidenceScore: *req.ConfidenceScore,
		CreatedAt:       now,
		LastUpdated:     now,
	}
	data, err := database.MarshalJSON(p.PatternData, "{}")
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO user_patterns
		(id, user_id, pattern_type, pattern_data, confidence_score, created_at, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.PatternType, data, p.ConfidenceScore, database.FormatTime(now), database.FormatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert user pattern: %w", err)
	}
	return p, nil
}

// ListUserPatterns returns the user's patterns, most confident first.
func (s *EntityService) ListUserPatterns(ctx context.Context, userID string) ([]models.UserPattern, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, pattern_type, pattern_data, confidence_score, created_at, last_updated
		FROM user_patterns WHERE user_id = ? ORDER BY confidence_score DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user patterns: %w", err)
	}
	defer rows.Close()

	patterns := []models.UserPattern{}
	for rows.Next() {
		var p models.UserPattern
		var data sql.NullString
		var createdAt, lastUpdated string
		if err := rows.Scan(&p.ID, &p.UserID, &p.PatternType, &data, &p.ConfidenceScore, &createdAt, &lastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan user pattern: %w", err)
		}
		p.PatternData = map[string]interface{}{}
		if err := database.UnmarshalJSON(data, &p.PatternData); err != nil {
			return nil, fmt.Errorf("invalid pattern_data: %w", err)
		}
		if p.CreatedAt, err = database.ParseTime(createdAt); err != nil {
			return nil, err
		}
		if p.LastUpdated, err = database.ParseTime(lastUpdated); err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}
