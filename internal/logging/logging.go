// Package logging builds the slog logger used for ghissue diagnostics.
//
// Diagnostics are separate from the progress and result lines printed by the
// output package: they go to stderr in slog's text format and are hidden
// unless the level is lowered (for example with --verbose).
package logging

import (
	"io"
	"log/slog"
)

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a text logger writing to w at the given level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
