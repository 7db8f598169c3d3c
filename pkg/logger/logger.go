// Package logger provides a structured, levelled logger built on log/slog.
//
// WithCtx returns the per-request logger injected by the request-logging
// middleware, so every line from a handler carries the request id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order placed", "reference", ref)
//	// → time=... level=INFO msg="order placed" request_id=a1b2c3d4 reference=ORD...
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// L is the process logger. It defaults to a text handler on stdout until
// Setup replaces it.
var L = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// Options configures Setup.
type Options struct {
	// Production selects the JSON handler.
	Production bool
	// Level is one of debug, info, warn, error.
	Level string
	// File is the rotating log file. Empty disables file output.
	File string
	// MaxSizeMB is the rotation threshold. Zero means 1.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept. Zero means 10.
	MaxBackups int
}

// Setup builds the process logger from opts, installs it as L and as the
// slog default, and returns a closer for the log file.
func Setup(opts Options) (io.Closer, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			return nil, fmt.Errorf("logger: create log dir: %w", err)
		}
		rot := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 1),
			MaxBackups: orDefault(opts.MaxBackups, 10),
		}
		out = io.MultiWriter(os.Stdout, rot)
		closer = rot
	}

	L = New(out, opts.Production, ParseLevel(opts.Level))
	slog.SetDefault(L)
	return closer, nil
}

// New returns a logger writing to w. Production selects JSON output.
func New(w io.Writer, production bool, level slog.Level) *slog.Logger {
	ho := &slog.HandlerOptions{Level: level}
	if production {
		return slog.New(slog.NewJSONHandler(w, ho))
	}
	return slog.New(slog.NewTextHandler(w, ho))
}

// ParseLevel maps a level name to a slog.Level. Unknown names are info.
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

type ctxKey struct{}

// WithCtx returns the logger stored in ctx by InjectLogger, or L.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores log in ctx. Called by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// Info logs at INFO level on L.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level on L.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level on L.
func Error(msg string, args ...any) { L.Error(msg, args...) }

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
