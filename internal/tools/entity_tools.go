package tools

import (
	"context"
	"fmt"
	"strings"

	"mentor/internal/models"
	"mentor/internal/query"
)

// NewAddEntityTool creates the add_entity tool
func NewAddEntityTool() *Tool {
	return &Tool{
		Name:        "add_entity",
		DisplayName: "Add Entity",
		Description: "Record a task, event, goal, milestone, health log or note with context tags (e.g. 'errands', 'gym', 'work'). Only call this after the user confirmed.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Short title",
				},
				"entity_type": map[string]interface{}{
					"type":        "string",
					"description": "One of task, event, goal, milestone, health_log, note",
				},
				"context_tags": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Where or when this fits, e.g. ['errands', 'weekend']",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Optional details",
				},
				"due_at": map[string]interface{}{
					"type":        "string",
					"description": "Optional due date or date-time in ISO format",
				},
			},
			"required": []string{"title", "entity_type", "context_tags"},
		},
		Execute:  executeAddEntity,
		Category: "entities",
		Mutates:  true,
	}
}

func executeAddEntity(ctx context.Context, tc *ToolContext, args map[string]interface{}) (string, error) {
	req := models.EntityCreate{
		Title:       stringArg(args, "title"),
		EntityType:  models.EntityType(stringArg(args, "entity_type")),
		ContextTags: stringSliceArg(args, "context_tags"),
	}
	if desc := strings.TrimSpace(stringArg(args, "description")); desc != "" {
		req.Description = &desc
	}
	if raw := strings.TrimSpace(stringArg(args, "due_at")); raw != "" {
		due, err := models.ParseInstant(raw, tc.location())
		if err != nil {
			return "", fmt.Errorf("could not understand due_at '%s'; use an ISO date like 2025-06-02", raw)
		}
		req.DueAt = &due
	}

	entity, err := tc.Entities.Create(ctx, tc.UserID, req)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("✓ Added '%s' (%s) with context: %s",
		entity.Title, entity.EntityType, strings.Join(entity.ContextTags, ", ")), nil
}

// NewEntitiesOverviewTool creates the get_entities_overview tool
func NewEntitiesOverviewTool() *Tool {
	return &Tool{
		Name:        "get_entities_overview",
		DisplayName: "Get Entities Overview",
		Description: "Get the user's pending entities grouped by context tag.",
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
			"required":   []string{},
		},
		Execute:  executeEntitiesOverview,
		Category: "entities",
	}
}

func executeEntitiesOverview(ctx context.Context, tc *ToolContext, args map[string]interface{}) (string, error) {
	entities, err := tc.Entities.List(ctx, tc.UserID, query.EntityFilter{Status: models.StatusPending})
	if err != nil {
		return "", err
	}
	if len(entities) == 0 {
		return "You have no pending entities yet.", nil
	}
	return query.RenderOverview(query.GroupByTag(entities), query.OverviewLimit), nil
}
