// Package logging wraps log/slog with the small set of conventions the rest
// of the bridge relies on: a configured default output/format/level, a
// "service" identity attached to every record, and a With() helper for
// tagging a subsystem without plumbing a logger interface through every
// constructor.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cgateweb/bridge/internal/config"
)

// Logger wraps slog.Logger with cgateweb-specific defaults.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines,
//     same as the underlying slog.Logger.
type Logger struct {
	*slog.Logger
}

// New creates a Logger from LoggingConfig: output destination, level, and
// either JSON (production) or text (development) formatting.
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "cgateweb"),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

// parseLevel converts a string log level to slog.Level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger with additional default attributes, e.g.
//
//	poolLogger := logger.With("component", "pool")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default returns a logger for use before configuration has loaded:
// JSON to stdout at info level.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
