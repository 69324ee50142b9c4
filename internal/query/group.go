package query

import (
	"fmt"
	"strings"

	"mentor/internal/models"
)

// UntaggedBucket collects entities that carry no context tags.
const UntaggedBucket = "untagged"

// OverviewLimit caps how many titles a rendered bucket shows.
const OverviewLimit = 5

// TagGroup is one bucket of a group-by-tag view.
type TagGroup struct {
	Tag      string
	Entities []models.Entity
}

// GroupByTag buckets entities by each of their context tags. An entity appears
// once in every bucket it is tagged with; buckets keep first-appearance order.
// A tag repeated on one entity counts once, so bucket sizes are per entity
// rather than per tag occurrence.
func GroupByTag(entities []models.Entity) []TagGroup {
	var groups []TagGroup
	index := map[string]int{}

	add := func(tag string, e models.Entity) {
		i, ok := index[tag]
		if !ok {
			i = len(groups)
			index[tag] = i
			groups = append(groups, TagGroup{Tag: tag})
		}
		groups[i].Entities = append(groups[i].Entities, e)
	}

	for _, e := range entities {
		if len(e.ContextTags) == 0 {
			add(UntaggedBucket, e)
			continue
		}
		seen := map[string]bool{}
		for _, tag := range e.ContextTags {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			add(tag, e)
		}
	}
	return groups
}

// RenderOverview formats tag groups as the plain-text overview handed to the
// chat model: a bold upper-cased header with the bucket size, then at most
// limit titles.
func RenderOverview(groups []TagGroup, limit int) string {
	var b strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&b, "\n**%s** (%d items):", strings.ToUpper(g.Tag), len(g.Entities))
		for i, e := range g.Entities {
			if i >= limit {
				break
			}
			fmt.Fprintf(&b, "\n  - %s", e.Title)
		}
	}
	return b.String()
}

// ListGroup pairs a list with its tasks for the today view.
type ListGroup struct {
	List  models.List
	Tasks []models.Task
}

// GroupByList buckets tasks under their lists, in the order lists are given.
// Tasks whose list is not in lists are dropped.
func GroupByList(lists []models.List, tasks []models.Task) []ListGroup {
	groups := make([]ListGroup, len(lists))
	index := make(map[string]int, len(lists))
	for i, l := range lists {
		groups[i] = ListGroup{List: l}
		index[l.ID] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.ListID]; ok {
			groups[i].Tasks = append(groups[i].Tasks, t)
		}
	}
	return groups
}

// RenderTodayContext formats open tasks grouped by list. Empty lists are listed
// with no items so the model knows they exist.
func RenderTodayContext(groups []ListGroup, limit int) string {
	total := 0
	for _, g := range groups {
		total += len(g.Tasks)
	}
	if total == 0 {
		names := make([]string, 0, len(groups))
		for _, g := range groups {
			names = append(names, g.List.Name)
		}
		return fmt.Sprintf("No open tasks. Lists: %s", strings.Join(names, ", "))
	}

	var b strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&b, "\n**%s** (%d items):", strings.ToUpper(g.List.Name), len(g.Tasks))
		for i, t := range g.Tasks {
			if i >= limit {
				fmt.Fprintf(&b, "\n  ...and %d more", len(g.Tasks)-limit)
				break
			}
			line := t.Title
			if t.Deadline != nil {
				line += fmt.Sprintf(" (due %s)", t.Deadline.Format("Mon Jan 2 15:04"))
			}
			fmt.Fprintf(&b, "\n  - %s", line)
		}
	}
	return b.String()
}
