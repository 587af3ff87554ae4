package logger

import (
	"log/slog"
	"strings"

	gcplogger "github.com/kawabatas/spanner-otel-app/internal/infra/platform/gcp/logger"
)

// New builds the process logger. projectID is used to qualify trace ids on GCP.
func New(provider string, level slog.Level, projectID string) *slog.Logger {
	switch strings.ToLower(provider) {
	case "gcp":
		return gcplogger.New(level, projectID)
	default:
		return gcplogger.New(level, projectID)
	}
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "-4", "debug":
		return slog.LevelDebug
	case "0", "info":
		return slog.LevelInfo
	case "4", "warn":
		return slog.LevelWarn
	case "8", "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
