// Package logging carries a request scoped *slog.Logger through context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey struct{}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// Init builds the process logger and installs it as the slog default.
// Development gets readable text with source positions, anything else JSON.
func Init(service, level, appEnv string) *slog.Logger {
	logger := newLogger(os.Stdout, service, level, appEnv)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, service, level, appEnv string) *slog.Logger {
	dev := appEnv == "development"
	opts := &slog.HandlerOptions{Level: parseLevel(level), AddSource: dev}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if dev {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With(
		slog.String("service", service),
		slog.String("env", appEnv),
	)
}

func parseLevel(s string) slog.Level {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l
	}
	return slog.LevelInfo
}

// FromContext falls back to slog.Default outside a request.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// With stores a child logger carrying args, so later FromContext calls in the
// same request log them too.
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(args...))
}
