package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
	colorReset  = "\033[0m"
)

// CLIHandler is a compact slog.Handler for interactive pipeline runs.
// Stage names set via WithGroup are rendered as a bracketed prefix.
type CLIHandler struct {
	writer io.Writer
	level  slog.Level
	stage  string
}

func NewCLIHandler(w io.Writer, level slog.Level) *CLIHandler {
	return &CLIHandler{
		writer: w,
		level:  level,
	}
}

func (h *CLIHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *CLIHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	if h.stage != "" {
		b.WriteString("[" + h.stage + "] ")
	}
	b.WriteString(r.Message)

	r.Attrs(func(a slog.Attr) bool {
		b.WriteString(fmt.Sprintf(" %s=%v", a.Key, a.Value))
		return true
	})

	msg := b.String()
	switch {
	case r.Level >= slog.LevelError:
		msg = colorRed + msg + colorReset
	case r.Level >= slog.LevelWarn:
		msg = colorYellow + msg + colorReset
	case r.Level <= slog.LevelDebug:
		msg = colorGray + msg + colorReset
	default:
		msg = colorGreen + msg + colorReset
	}

	_, err := fmt.Fprintln(h.writer, msg)
	return err
}

func (h *CLIHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *CLIHandler) WithGroup(name string) slog.Handler {
	return &CLIHandler{
		writer: h.writer,
		level:  h.level,
		stage:  name,
	}
}

// SetDefaultCLILogger installs the CLI handler as the process default.
func SetDefaultCLILogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(NewCLIHandler(os.Stderr, level)))
}

// ParseLogLevel converts a string log level to slog.Level.
// Defaults to slog.LevelInfo for unrecognized strings.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
