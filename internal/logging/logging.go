// Package logging builds the CLI logger: a text handler on stderr and an
// optional rotated log file.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for the log file.
const (
	DefaultMaxSizeMB  = 1
	DefaultMaxBackups = 2
	DefaultMaxAgeDays = 30
)

// Config selects the logger outputs.
type Config struct {
	// Level is one of debug, info, warn or error. Defaults to warn.
	Level string

	// File, when set, receives every record at debug level.
	File string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ParseLevel parses a level name. An empty name is warn.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return slog.LevelWarn, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// New returns a logger writing to w and, when cfg.File is set, to a rotated
// file. The returned closer releases the file and is never nil.
func New(w io.Writer, cfg Config) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	console := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	if cfg.File == "" {
		return slog.New(console), nopCloser{}, nil
	}

	file := newFileWriter(cfg)
	handler := &multiHandler{handlers: []slog.Handler{
		console,
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}}
	return slog.New(handler), file, nil
}

func newFileWriter(cfg Config) *lumberjack.Logger {
	l := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAgeDays,
	}

	if cfg.MaxSizeMB > 0 {
		l.MaxSize = cfg.MaxSizeMB
	}
	if cfg.MaxBackups > 0 {
		l.MaxBackups = cfg.MaxBackups
	}
	if cfg.MaxAgeDays > 0 {
		l.MaxAge = cfg.MaxAgeDays
	}
	return l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// multiHandler fans records out to every handler that accepts their level.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
