package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel accepts slog level names ("debug", "warn", "error+2", ...).
// Anything unparseable logs at info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewConsoleHandler writes records to w as JSON, or as logfmt-style text when
// format is "text".
func NewConsoleHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// Setup installs the stdout logger used until the database sink is ready.
func Setup(format, level string) {
	slog.SetDefault(slog.New(NewConsoleHandler(os.Stdout, format, ParseLevel(level))))
}
