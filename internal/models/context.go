package models

import (
	"fmt"
	"strings"
	"time"
)

// ContextWindow is a recurring slice of the user's week with an energy level and
// preferred activities, e.g. "deep work, weekdays 09:00-12:00, high energy".
type ContextWindow struct {
	ID                  string                 `json:"id"`
	UserID              string                 `json:"user_id"`
	WindowType          string                 `json:"window_type"`
	StartTime           *string                `json:"start_time"` // HH:MM:SS
	EndTime             *string                `json:"end_time"`
	DaysOfWeek          []int                  `json:"days_of_week"` // 1 = Monday ... 7 = Sunday
	EnergyLevel         *string                `json:"energy_level"`
	PreferredActivities []string               `json:"preferred_activities"`
	ExtraData           map[string]interface{} `json:"extra_data"`
	CreatedAt           time.Time              `json:"created_at"`
}

type ContextWindowCreate struct {
	WindowType          string                 `json:"window_type"`
	StartTime           *string                `json:"start_time,omitempty"`
	EndTime             *string                `json:"end_time,omitempty"`
	DaysOfWeek          []int                  `json:"days_of_week,omitempty"`
	EnergyLevel         *string                `json:"energy_level,omitempty"`
	PreferredActivities []string               `json:"preferred_activities,omitempty"`
	ExtraData           map[string]interface{} `json:"extra_data,omitempty"`
}

func (c *ContextWindowCreate) Validate() error {
	c.WindowType = strings.TrimSpace(c.WindowType)
	if c.WindowType == "" {
		return fmt.Errorf("%w: window_type is required", ErrValidation)
	}
	for _, field := range []**string{&c.StartTime, &c.EndTime} {
		if *field == nil {
			continue
		}
		normalized, err := NormalizeTimeOfDay(**field)
		if err != nil {
			return err
		}
		*field = &normalized
	}
	for _, day := range c.DaysOfWeek {
		if day < 1 || day > 7 {
			return fmt.Errorf("%w: days_of_week values must be 1-7, got %d", ErrValidation, day)
		}
	}
	if c.DaysOfWeek == nil {
		c.DaysOfWeek = []int{}
	}
	if c.PreferredActivities == nil {
		c.PreferredActivities = []string{}
	}
	if c.ExtraData == nil {
		c.ExtraData = map[string]interface{}{}
	}
	return nil
}

// UserPattern is a learned observation about the user, e.g. a productive hour.
type UserPattern struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"user_id"`
	PatternType     string                 `json:"pattern_type"`
	PatternData     map[string]interface{} `json:"pattern_data"`
	ConfidenceScore float64                `json:"confidence_score"`
	CreatedAt       time.Time              `json:"created_at"`
	LastUpdated     time.Time              `json:"last_updated"`
}

type UserPatternCreate struct {
	PatternType     string                 `json:"pattern_type"`
	PatternData     map[string]interface{} `json:"pattern_data"`
	ConfidenceScore *float64               `json:"confidence_score,omitempty"`
}

// DefaultConfidence is assigned when a pattern is recorded without a score.
const DefaultConfidence = 0.5

func (c *UserPatternCreate) Validate() error {
	c.PatternType = strings.TrimSpace(c.PatternType)
	if c.PatternType == "" {
		return fmt.Errorf("%w: pattern_type is required", ErrValidation)
	}
	if c.ConfidenceScore == nil {
		score := DefaultConfidence
		c.ConfidenceScore = &score
	}
	if *c.ConfidenceScore < 0 || *c.ConfidenceScore > 1 {
		return fmt.Errorf("%w: confidence_score must be between 0 and 1", ErrValidation)
	}
	if c.PatternData == nil {
		c.PatternData = map[string]interface{}{}
	}
	return nil
}
