// Package log configures the process-wide slog logger.
//
// Console output goes to stderr as text or JSON. When a file is configured,
// records are also written as JSON to a size-rotated file.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger initialization.
// Environment equivalents (see FromEnv):
//   - RACKINV_LOG_LEVEL=debug|info|warn|error
//   - RACKINV_LOG_FORMAT=console|json
//   - RACKINV_LOG_FILE=<path>
//   - RACKINV_LOG_SOURCE=true|false
type Options struct {
	Level     string
	Format    string // "console" or "json"
	AddSource bool
	File      string

	// Writer overrides the console destination. Defaults to os.Stderr.
	Writer io.Writer
}

const (
	EnvLogLevel  = "RACKINV_LOG_LEVEL"
	EnvLogFormat = "RACKINV_LOG_FORMAT"
	EnvLogFile   = "RACKINV_LOG_FILE"
	EnvLogSource = "RACKINV_LOG_SOURCE"
)

var (
	mu      sync.RWMutex
	current *slog.Logger
	rotator *lj.Logger
)

// L returns the process logger, initializing it from the environment on first use.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Init replaces the process logger and slog.Default.
func Init(opts Options) {
	lvl := ParseLevel(opts.Level)
	hopts := &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	var handlers []slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		handlers = append(handlers, slog.NewJSONHandler(w, hopts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(w, hopts))
	}

	var rot *lj.Logger
	if f := strings.TrimSpace(opts.File); f != "" {
		rot = &lj.Logger{Filename: f, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		handlers = append(handlers, slog.NewJSONHandler(rot, hopts))
	}

	var h slog.Handler = handlers[0]
	if len(handlers) > 1 {
		h = &multi{hs: handlers}
	}
	logger := slog.New(h).With(slog.String("app", "rackinv"))

	mu.Lock()
	if rotator != nil {
		_ = rotator.Close()
	}
	rotator = rot
	current = logger
	mu.Unlock()
	slog.SetDefault(logger)
}

// Close flushes and closes the rotating file sink, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	return err
}

// FromEnv builds Options from environment variables.
func FromEnv() Options {
	return Options{
		Level:     getenv(EnvLogLevel, "warn"),
		Format:    getenv(EnvLogFormat, "console"),
		AddSource: ParseBool(os.Getenv(EnvLogSource)),
		File:      os.Getenv(EnvLogFile),
	}
}

// WithComponent returns a logger with the component attribute set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates l with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

// ParseLevel maps a level name to a slog level; unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// ParseBool accepts 1/true/on/yes in any case.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// multi fans records out to several handlers.
type multi struct{ hs []slog.Handler }

func (m *multi) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multi) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.hs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multi) WithAttrs(attrs []slog.Attr) slog.Handler {
	res := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		res[i] = h.WithAttrs(attrs)
	}
	return &multi{hs: res}
}

func (m *multi) WithGroup(name string) slog.Handler {
	res := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		res[i] = h.WithGroup(name)
	}
	return &multi{hs: res}
}
