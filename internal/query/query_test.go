package query

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"mentor/internal/models"
)

var base = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func entity(id, title string, priority int, age time.Duration, tags ...string) models.Entity {
	return models.Entity{
		ID:          id,
		Title:       title,
		EntityType:  models.EntityTypeTask,
		Status:      models.StatusPending,
		Priority:    priority,
		ContextTags: tags,
		CreatedAt:   base.Add(-age),
	}
}

func titles(entities []models.Entity) string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Title
	}
	return strings.Join(out, ",")
}

func TestSortEntities(t *testing.T) {
	entities := []models.Entity{
		entity("01", "old-low", 0, 3*time.Hour),
		entity("02", "new-low", 0, time.Hour),
		entity("03", "high", 5, 10*time.Hour),
		entity("05", "tie-b", 1, 0),
		entity("04", "tie-a", 1, 0),
	}
	SortEntities(entities)

	if got, want := titles(entities), "high,tie-b,tie-a,new-low,old-low"; got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestFilterApply(t *testing.T) {
	gym := entity("01", "run", 0, time.Hour, "gym", "morning")
	errand := entity("02", "milk", 2, time.Hour, "town")
	note := entity("03", "idea", 0, time.Hour)
	note.EntityType = models.EntityTypeNote
	done := entity("04", "swim", 0, time.Hour, "gym")
	done.Status = models.StatusCompleted
	all := []models.Entity{gym, errand, note, done}

	tests := []struct {
		name   string
		filter EntityFilter
		want   string
	}{
		{"empty", EntityFilter{}, "milk,swim,idea,run"},
		{"tag", EntityFilter{Tag: "gym"}, "swim,run"},
		{"tag and status", EntityFilter{Tag: "gym", Status: models.StatusPending}, "run"},
		{"type", EntityFilter{EntityType: models.EntityTypeNote}, "idea"},
		{"no match", EntityFilter{Tag: "work"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titles(tt.filter.Apply(all)); got != tt.want {
				t.Errorf("Apply = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGroupByTag(t *testing.T) {
	entities := []models.Entity{
		entity("01", "run", 0, 0, "gym", "morning"),
		entity("02", "idea", 0, 0),
		entity("03", "lift", 0, 0, "gym", "gym"),
	}
	groups := GroupByTag(entities)

	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	want := []struct {
		tag    string
		titles string
	}{
		{"gym", "run,lift"},
		{"morning", "run"},
		{UntaggedBucket, "idea"},
	}
	for i, w := range want {
		if groups[i].Tag != w.tag || titles(groups[i].Entities) != w.titles {
			t.Errorf("group %d = %s:%s, want %s:%s", i, groups[i].Tag, titles(groups[i].Entities), w.tag, w.titles)
		}
	}
}

func TestRenderOverview_TruncatesAtFive(t *testing.T) {
	var entities []models.Entity
	for i := 0; i < 7; i++ {
		entities = append(entities, entity(fmt.Sprintf("%02d", i), fmt.Sprintf("t%d", i), 0, 0, "home"))
	}
	out := RenderOverview(GroupByTag(entities), OverviewLimit)

	if !strings.HasPrefix(out, "\n**HOME** (7 items):") {
		t.Errorf("unexpected header: %q", out)
	}
	if got := strings.Count(out, "\n  - "); got != 5 {
		t.Errorf("rendered %d items, want 5", got)
	}
	if strings.Contains(out, "t5") {
		t.Error("sixth title should be truncated")
	}
}

func TestRenderTodayContext(t *testing.T) {
	lists := []models.List{{ID: "l1", Name: "Town"}, {ID: "l2", Name: "Home"}}
	deadline := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	tasks := []models.Task{
		{ID: "t1", ListID: "l1", Title: "buy milk"},
		{ID: "t2", ListID: "l2", Title: "fix sink", Deadline: &deadline},
		{ID: "t3", ListID: "gone", Title: "orphan"},
	}

	out := RenderTodayContext(GroupByList(lists, tasks), OverviewLimit)
	for _, want := range []string{"**TOWN** (1 items):", "  - buy milk", "**HOME** (1 items):", "fix sink (due Mon Jun 2 14:00)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "orphan") {
		t.Error("tasks outside the given lists should be dropped")
	}

	empty := RenderTodayContext(GroupByList(lists, nil), OverviewLimit)
	if empty != "No open tasks. Lists: Town, Home" {
		t.Errorf("empty view = %q", empty)
	}
}
