// Package query holds the pure filtering, ordering and grouping rules applied to
// entities and tasks. Nothing here touches storage; the services push what they
// can into SQL and use these functions for the rest, so both paths agree.
package query

import (
	"sort"

	"mentor/internal/models"
)

// EntityFilter is a conjunction of optional criteria. Empty fields match everything.
type EntityFilter struct {
	EntityType models.EntityType
	Status     models.EntityStatus
	Tag        string
}

// IsEmpty reports whether the filter matches every entity.
func (f EntityFilter) IsEmpty() bool {
	return f.EntityType == "" && f.Status == "" && f.Tag == ""
}

// Matches reports whether e satisfies every criterion present in f.
func (f EntityFilter) Matches(e *models.Entity) bool {
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Tag != "" && !e.HasTag(f.Tag) {
		return false
	}
	return true
}

// Apply returns the entities matching f, sorted with SortEntities.
func (f EntityFilter) Apply(entities []models.Entity) []models.Entity {
	out := make([]models.Entity, 0, len(entities))
	for i := range entities {
		if f.Matches(&entities[i]) {
			out = append(out, entities[i])
		}
	}
	SortEntities(out)
	return out
}

// SortEntities orders by priority descending, then newest first. The id breaks
// remaining ties; ids are time-ordered so this keeps "newest first".
func SortEntities(entities []models.Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		a, b := entities[i], entities[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// SortTasks applies the same ordering to legacy tasks.
func SortTasks(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
