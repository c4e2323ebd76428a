package config

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger creates a text logger writing to w. The returned LevelVar starts at INFO
// and is meant to be raised or lowered once the configuration has been read.
func NewLogger(w io.Writer) (*slog.Logger, *slog.LevelVar) {
	var logLevel slog.LevelVar
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &logLevel}))
	return logger, &logLevel
}

// ParseLevel converts a textual level ("debug", "INFO", "warn+2") to slog.Level.
// Empty or unknown values fall back to INFO.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DiscardLogger returns a logger that drops every record
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
