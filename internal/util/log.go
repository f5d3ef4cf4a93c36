// Package util provides the diagnostic logger shared by the binaries.
package util

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger creates a structured text logger writing to w at the specified
// level. Supported levels: "debug", "info", "warn", "error". Defaults to
// "warn" if the level string is not recognised, so that command output is
// not interleaved with diagnostics unless asked for.
func NewLogger(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}

// ParseLevel maps a level name onto a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// VerbosityLevel translates a repeat count of -v into a level name: none is
// warn, one is info, two or more is debug.
func VerbosityLevel(verbosity int) string {
	switch {
	case verbosity <= 0:
		return "warn"
	case verbosity == 1:
		return "info"
	default:
		return "debug"
	}
}

// SetDefault configures the provided logger as the default slog logger.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
