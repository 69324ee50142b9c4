package models

import (
	"fmt"
	"strings"
	"time"
)

// EntityType classifies an entity. Values outside the known set are kept verbatim.
type EntityType string

const (
	EntityTypeTask      EntityType = "task"
	EntityTypeEvent     EntityType = "event"
	EntityTypeGoal      EntityType = "goal"
	EntityTypeMilestone EntityType = "milestone"
	EntityTypeHealthLog EntityType = "health_log"
	EntityTypeNote      EntityType = "note"
)

// IsKnown reports whether t is one of the built-in entity types.
func (t EntityType) IsKnown() bool {
	switch t {
	case EntityTypeTask, EntityTypeEvent, EntityTypeGoal, EntityTypeMilestone, EntityTypeHealthLog, EntityTypeNote:
		return true
	}
	return false
}

// EntityStatus is the lifecycle state of an entity. Unknown values are kept verbatim.
type EntityStatus string

const (
	StatusPending   EntityStatus = "pending"
	StatusActive    EntityStatus = "active"
	StatusCompleted EntityStatus = "completed"
	StatusBlocked   EntityStatus = "blocked"
	StatusCancelled EntityStatus = "cancelled"
)

func (s EntityStatus) IsKnown() bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted, StatusBlocked, StatusCancelled:
		return true
	}
	return false
}

// RelationType labels a directed edge between two entities. Unknown values are kept verbatim.
type RelationType string

const (
	RelationSubtask      RelationType = "subtask"
	RelationPrerequisite RelationType = "prerequisite"
	RelationMilestoneOf  RelationType = "milestone_of"
	RelationRelatedTo    RelationType = "related_to"
	RelationCombineWith  RelationType = "combine_with"
	RelationBlocks       RelationType = "blocks"
)

func (r RelationType) IsKnown() bool {
	switch r {
	case RelationSubtask, RelationPrerequisite, RelationMilestoneOf, RelationRelatedTo, RelationCombineWith, RelationBlocks:
		return true
	}
	return false
}

// Entity is the generic unit of the life-management model: a task, event, goal,
// milestone, health log or note, owned by exactly one user.
type Entity struct {
	ID                string                 `json:"id"`
	UserID            string                 `json:"user_id"`
	EntityType        EntityType             `json:"entity_type"`
	Title             string                 `json:"title"`
	Description       *string                `json:"description"`
	ScheduledAt       *time.Time             `json:"scheduled_at"`
	DueAt             *time.Time             `json:"due_at"`
	PeriodStart       *Date                  `json:"period_start"`
	PeriodEnd         *Date                  `json:"period_end"`
	ContextTags       []string               `json:"context_tags"` // ordered, duplicates allowed
	Location          *string                `json:"location"`
	EstimatedDuration *Duration              `json:"estimated_duration"`
	Status            EntityStatus           `json:"status"`
	CompletedAt       *time.Time             `json:"completed_at"`
	BlockedBy         []string               `json:"blocked_by"` // soft references, not validated
	Priority          int                    `json:"priority"`
	ExtraData         map[string]interface{} `json:"extra_data"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// HasTag reports whether tag is among the entity's context tags.
func (e *Entity) HasTag(tag string) bool {
	for _, t := range e.ContextTags {
		if t == tag {
			return true
		}
	}
	return false
}

// EntityCreate is the payload for creating an entity.
type EntityCreate struct {
	EntityType        EntityType             `json:"entity_type"`
	Title             string                 `json:"title"`
	Description       *string                `json:"description,omitempty"`
	ScheduledAt       *time.Time             `json:"scheduled_at,omitempty"`
	DueAt             *time.Time             `json:"due_at,omitempty"`
	PeriodStart       *Date                  `json:"period_start,omitempty"`
	PeriodEnd         *Date                  `json:"period_end,omitempty"`
	ContextTags       []string               `json:"context_tags,omitempty"`
	Location          *string                `json:"location,omitempty"`
	EstimatedDuration *Duration              `json:"estimated_duration,omitempty"`
	Status            EntityStatus           `json:"status,omitempty"`
	CompletedAt       *time.Time             `json:"completed_at,omitempty"`
	BlockedBy         []string               `json:"blocked_by,omitempty"`
	Priority          int                    `json:"priority,omitempty"`
	ExtraData         map[string]interface{} `json:"extra_data,omitempty"`
}

// Validate checks required fields and fills defaults.
func (c *EntityCreate) Validate() error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	c.EntityType = EntityType(strings.TrimSpace(string(c.EntityType)))
	if c.EntityType == "" {
		return fmt.Errorf("%w: entity_type is required", ErrValidation)
	}
	if c.Status == "" {
		c.Status = StatusPending
	}
	if c.ContextTags == nil {
		c.ContextTags = []string{}
	}
	if c.BlockedBy == nil {
		c.BlockedBy = []string{}
	}
	if c.ExtraData == nil {
		c.ExtraData = map[string]interface{}{}
	}
	return nil
}

// EntityUpdate is a partial update: only fields present in the payload change.
type EntityUpdate struct {
	EntityType        Optional[EntityType]             `json:"entity_type,omitzero"`
	Title             Optional[string]                 `json:"title,omitzero"`
	Description       Optional[string]                 `json:"description,omitzero"`
	ScheduledAt       Optional[time.Time]              `json:"scheduled_at,omitzero"`
	DueAt             Optional[time.Time]              `json:"due_at,omitzero"`
	PeriodStart       Optional[Date]                   `json:"period_start,omitzero"`
	PeriodEnd         Optional[Date]                   `json:"period_end,omitzero"`
	ContextTags       Optional[[]string]               `json:"context_tags,omitzero"`
	Location          Optional[string]                 `json:"location,omitzero"`
	EstimatedDuration Optional[Duration]               `json:"estimated_duration,omitzero"`
	Status            Optional[EntityStatus]           `json:"status,omitzero"`
	CompletedAt       Optional[time.Time]              `json:"completed_at,omitzero"`
	BlockedBy         Optional[[]string]               `json:"blocked_by,omitzero"`
	Priority          Optional[int]                    `json:"priority,omitzero"`
	ExtraData         Optional[map[string]interface{}] `json:"extra_data,omitzero"`
}

// Validate rejects nulls on non-nullable fields.
func (u *EntityUpdate) Validate() error {
	if u.Title.Set && (u.Title.Null || strings.TrimSpace(u.Title.Value) == "") {
		return fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	if u.EntityType.Set && (u.EntityType.Null || strings.TrimSpace(string(u.EntityType.Value)) == "") {
		return fmt.Errorf("%w: entity_type cannot be empty", ErrValidation)
	}
	if u.Status.Set && (u.Status.Null || u.Status.Value == "") {
		return fmt.Errorf("%w: status cannot be empty", ErrValidation)
	}
	if u.Priority.Set && u.Priority.Null {
		return fmt.Errorf("%w: priority cannot be null", ErrValidation)
	}
	return nil
}

// Apply merges the update into e following partial-update semantics, using now
// for automatic timestamps. An explicit completed_at (including null) always wins;
// otherwise moving to completed stamps completed_at once.
func (u *EntityUpdate) Apply(e *Entity, now time.Time) {
	if u.EntityType.Set {
		e.EntityType = EntityType(strings.TrimSpace(string(u.EntityType.Value)))
	}
	if u.Title.Set {
		e.Title = strings.TrimSpace(u.Title.Value)
	}
	if u.Description.Set {
		e.Description = u.Description.Ptr()
	}
	if u.ScheduledAt.Set {
		e.ScheduledAt = u.ScheduledAt.Ptr()
	}
	if u.DueAt.Set {
		e.DueAt = u.DueAt.Ptr()
	}
	if u.PeriodStart.Set {
		e.PeriodStart = u.PeriodStart.Ptr()
	}
	if u.PeriodEnd.Set {
		e.PeriodEnd = u.PeriodEnd.Ptr()
	}
	if u.ContextTags.Set {
		e.ContextTags = u.ContextTags.Value
		if e.ContextTags == nil {
			e.ContextTags = []string{}
		}
	}
	if u.Location.Set {
		e.Location = u.Location.Ptr()
	}
	if u.EstimatedDuration.Set {
		e.EstimatedDuration = u.EstimatedDuration.Ptr()
	}
	if u.Status.Set {
		e.Status = u.Status.Value
	}
	if u.BlockedBy.Set {
		e.BlockedBy = u.BlockedBy.Value
		if e.BlockedBy == nil {
			e.BlockedBy = []string{}
		}
	}
	if u.Priority.Set {
		e.Priority = u.Priority.Value
	}
	if u.ExtraData.Set {
		e.ExtraData = u.ExtraData.Value
		if e.ExtraData == nil {
			e.ExtraData = map[string]interface{}{}
		}
	}

	switch {
	case u.CompletedAt.Set:
		e.CompletedAt = u.CompletedAt.Ptr()
	case u.Status.Set && e.Status == StatusCompleted && e.CompletedAt == nil:
		stamp := now
		e.CompletedAt = &stamp
	}

	e.UpdatedAt = now
}

// EntityRelation is a directed, typed edge between two entities.
type EntityRelation struct {
	ID           string       `json:"id"`
	ParentID     string       `json:"parent_id"`
	ChildID      string       `json:"child_id"`
	RelationType RelationType `json:"relation_type"`
	CreatedAt    time.Time    `json:"created_at"`
}

// EntityRelationCreate is the payload for linking two entities.
type EntityRelationCreate struct {
	ParentID     string       `json:"parent_id"`
	ChildID      string       `json:"child_id"`
	RelationType RelationType `json:"relation_type"`
}

func (c *EntityRelationCreate) Validate() error {
	if c.ParentID == "" || c.ChildID == "" {
		return fmt.Errorf("%w: parent_id and child_id are required", ErrValidation)
	}
	if strings.TrimSpace(string(c.RelationType)) == "" {
		return fmt.Errorf("%w: relation_type is required", ErrValidation)
	}
	return nil
}
