package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithTurn returns a logger carrying the identity of one chat turn.
// Use this for everything logged while the mentor loop runs.
func WithTurn(turnID, userID string) *slog.Logger {
	return slog.With(
		"turn_id", turnID,
		"user_id", userID,
	)
}

// WithTool scopes a turn logger to a single tool invocation.
func WithTool(logger *slog.Logger, toolName, callID string) *slog.Logger {
	return logger.With(
		"tool", toolName,
		"tool_call_id", callID,
	)
}
