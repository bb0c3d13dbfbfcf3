// Package logging configures the global slog logger.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger. In production
// (SOLACE_ENV=production) it uses JSON output for log aggregation; otherwise
// the human-readable text handler at debug level.
func Init() {
	env := strings.ToLower(os.Getenv("SOLACE_ENV"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithRequest returns a logger with request context fields attached.
func WithRequest(requestID, userID string) *slog.Logger {
	return slog.With(
		"request_id", requestID,
		"user_id", userID,
	)
}
