package main

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogHandler builds the slog handler for a LOG_FORMAT. "pretty" is a
// colored console handler meant for local play-testing.
func newLogHandler(w io.Writer, level, format string) slog.Handler {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "json":
		return slog.NewJSONHandler(w, opts)
	case "pretty":
		return log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			Prefix:          "safezone",
			Level:           log.Level(lvl),
		})
	default:
		return slog.NewTextHandler(w, opts)
	}
}

func setupLogger(w io.Writer, level, format string) {
	slog.SetDefault(slog.New(newLogHandler(w, level, format)))
}
