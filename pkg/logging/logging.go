// Package logging configures structured logging for the server.
//
// Usage:
//
//	logger := logging.Setup()                         // from LOG_FORMAT and LOG_LEVEL
//	logger := logging.New("json", slog.LevelDebug)    // explicit
//
// Environment variables:
//
//	LOG_LEVEL:  debug, info, warn, error (default: info)
//	LOG_FORMAT: text (colored, default) or json
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup builds a logger from LOG_FORMAT and LOG_LEVEL and installs it as the
// slog default.
func Setup() *slog.Logger {
	logger := New(os.Getenv("LOG_FORMAT"), ParseLevel(os.Getenv("LOG_LEVEL")))
	slog.SetDefault(logger)
	return logger
}

// New builds a logger. format "json" writes JSON lines to stdout for log
// collectors; anything else writes colored text to stderr.
func New(format string, level slog.Level) *slog.Logger {
	if strings.EqualFold(format, "json") {
		return NewWithWriter(os.Stdout, format, level)
	}
	return NewWithWriter(os.Stderr, format, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, format string, level slog.Level) *slog.Logger {
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
	}))
}

// ParseLevel maps a level name to a slog.Level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
