// Package logging builds the process slog.Logger on top of a charmbracelet/log handler.
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Prefix is printed before every log line.
const Prefix = "whisper-agent"

// New returns a slog.Logger writing human-readable lines to w.
// Unknown levels fall back to info.
func New(w io.Writer, level string) *slog.Logger {
	h := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           ParseLevel(level),
		Prefix:          Prefix,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	return slog.New(h)
}

// ParseLevel maps a config string onto a charmbracelet/log level.
func ParseLevel(level string) charmlog.Level {
	lvl, err := charmlog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return charmlog.InfoLevel
	}
	return lvl
}
