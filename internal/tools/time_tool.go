package tools

import (
	"context"
	"fmt"
	"time"
)

// NewTimeTool creates the get_current_time tool
func NewTimeTool() *Tool {
	return &Tool{
		Name:        "get_current_time",
		DisplayName: "Get Current Time",
		Description: "Get the current date and time. Use it to turn words like 'tomorrow' or 'tonight' into concrete dates.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"timezone": map[string]interface{}{
					"type":        "string",
					"description": "Timezone name (e.g., 'America/New_York', 'UTC'). Defaults to the user's timezone.",
				},
			},
			"required": []string{},
		},
		Execute:  executeGetCurrentTime,
		Category: "time",
	}
}

func executeGetCurrentTime(ctx context.Context, tc *ToolContext, args map[string]interface{}) (string, error) {
	loc := tc.location()
	if tz := stringArg(args, "timezone"); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return "", fmt.Errorf("invalid timezone '%s', use format like 'America/New_York' or 'UTC'", tz)
		}
		loc = parsed
	}

	currentTime := tc.now().In(loc)
	return currentTime.Format("Monday 2006-01-02 15:04:05 MST"), nil
}
