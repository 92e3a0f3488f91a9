// Package log builds the application's slog logger: text or JSON output,
// optional size-based file rotation, and credential redaction.
package log

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

var ErrInvalidLevel = errors.New("invalid log level")

// Options mirrors the [logging] config section.
type Options struct {
	Level     string
	Format    string // "text" (default) or "json"
	File      string // empty logs to the fallback writer
	MaxSizeMB int
	MaxFiles  int
}

// New returns a logger and a closer for any file it opened. fallback
// receives output when Options.File is empty.
func New(opts Options, fallback io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	format := strings.ToLower(opts.Format)
	if format != "" && format != "text" && format != "json" {
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	out := fallback
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		w, err := NewRotatingWriter(RotationConfig{File: opts.File, MaxSizeMB: opts.MaxSizeMB, MaxFiles: opts.MaxFiles})
		if err != nil {
			return nil, nil, err
		}
		out, closer = w, w
	}
	if out == nil {
		out = io.Discard
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var base slog.Handler = slog.NewTextHandler(out, handlerOpts)
	if format == "json" {
		base = slog.NewJSONHandler(out, handlerOpts)
	}
	return slog.New(NewRedactingHandler(base)), closer, nil
}

// ParseLevel maps debug|info|warn|error (empty means info).
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
