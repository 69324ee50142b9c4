package tools

import (
	"context"
	"fmt"
	"strings"

	"mentor/internal/models"
	"mentor/internal/query"
)

// NewAddTaskTool creates the add_task tool
func NewAddTaskTool() *Tool {
	return &Tool{
		Name:        "add_task",
		DisplayName: "Add Task",
		Description: "Add a task to one of the user's lists (Town, Home, Free Time or a custom list). The list is matched by name ignoring case and created if missing. Only call this after the user confirmed.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Short task title, e.g. 'buy milk'",
				},
				"list_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the list, e.g. 'Town'",
				},
				"deadline": map[string]interface{}{
					"type":        "string",
					"description": "Optional deadline as an ISO date or date-time, e.g. '2025-06-02' or '2025-06-02T14:00'",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Optional details",
				},
				"priority": map[string]interface{}{
					"type":        "integer",
					"description": "Optional priority, higher is more important. Defaults to 0.",
				},
			},
			"required": []string{"title", "list_name"},
		},
		Execute:  executeAddTask,
		Category: "tasks",
		Mutates:  true,
	}
}

func executeAddTask(ctx context.Context, tc *ToolContext, args map[string]interface{}) (string, error) {
	title := strings.TrimSpace(stringArg(args, "title"))
	listName := strings.TrimSpace(stringArg(args, "list_name"))
	if title == "" {
		return "", fmt.Errorf("title is required")
	}
	if listName == "" {
		return "", fmt.Errorf("list_name is required")
	}

	req := models.TaskCreate{Title: title, Priority: intArg(args, "priority")}
	if raw := strings.TrimSpace(stringArg(args, "deadline")); raw != "" {
		deadline, err := models.ParseInstant(raw, tc.location())
		if err != nil {
			return "", fmt.Errorf("could not understand deadline '%s'; use an ISO date like 2025-06-02 or 2025-06-02T14:00", raw)
		}
		req.Deadline = &deadline
	}
	if desc := strings.TrimSpace(stringArg(args, "description")); desc != "" {
		req.Description = &desc
	}

	// Defaults first, so "town" resolves to the default Town list instead of a new one.
	if _, err := tc.Tasks.EnsureDefaultLists(ctx, tc.UserID); err != nil {
		return "", err
	}
	list, _, err := tc.Tasks.FindOrCreateList(ctx, tc.UserID, listName)
	if err != nil {
		return "", err
	}
	req.ListID = list.ID

	task, err := tc.Tasks.CreateTask(ctx, tc.UserID, req)
	if err != nil {
		return "", err
	}

	result := fmt.Sprintf("✓ Added '%s' to %s list!", task.Title, listName)
	if task.Deadline != nil {
		result += fmt.Sprintf(" Due %s.", task.Deadline.In(tc.location()).Format("Mon Jan 2 15:04"))
	}
	return result, nil
}

// NewCreateListTool creates the create_list tool
func NewCreateListTool() *Tool {
	return &Tool{
		Name:        "create_list",
		DisplayName: "Create List",
		Description: "Create a custom task list for the user. Does nothing if a list with that name already exists.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "List name, e.g. 'Gym'",
				},
			},
			"required": []string{"name"},
		},
		Execute:  executeCreateList,
		Category: "tasks",
		Mutates:  true,
	}
}

func executeCreateList(ctx context.Context, tc *ToolContext, args map[string]interface{}) (string, error) {
	name := strings.TrimSpace(stringArg(args, "name"))
	if name == "" {
		return "", fmt.Errorf("name is required")
	}

	if _, err := tc.Tasks.EnsureDefaultLists(ctx, tc.UserID); err != nil {
		return "", err
	}
	list, created, err := tc.Tasks.FindOrCreateList(ctx, tc.UserID, name)
	if err != nil {
		return "", err
	}
	if !created {
		return fmt.Sprintf("List '%s' already exists", list.Name), nil
	}
	return fmt.Sprintf("✓ Created list '%s'", list.Name), nil
}

// NewTodayContextTool creates the get_today_context tool
func NewTodayContextTool() *Tool {
	return &Tool{
		Name:        "get_today_context",
		DisplayName: "Get Today Context",
		Description: "Get today's date and the user's open tasks grouped by list.",
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
			"required":   []string{},
		},
		Execute:  executeTodayContext,
		Category: "tasks",
	}
}

func executeTodayContext(ctx context.Context, tc *ToolContext, args map[string]interface{}) (string, error) {
	lists, err := tc.Tasks.EnsureDefaultLists(ctx, tc.UserID)
	if err != nil {
		return "", err
	}
	tasks, err := tc.Tasks.OpenTasks(ctx, tc.UserID)
	if err != nil {
		return "", err
	}

	today := tc.now().In(tc.location()).Format("Monday, January 2")
	view := query.RenderTodayContext(query.GroupByList(lists, tasks), query.OverviewLimit)
	return fmt.Sprintf("Today is %s.\n%s", today, strings.TrimPrefix(view, "\n")), nil
}
