// Package logger wires zerolog loggers through contexts.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// New returns a console logger on stdout at info level.
func New() zerolog.Logger {
	return NewWithLevel(zerolog.InfoLevel)
}

// NewWithLevel returns a console logger on stdout at the given level.
func NewWithLevel(level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Caller().Logger()
}

// NewWithWriter returns a JSON logger writing to w.
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Caller().Logger()
}

// ParseLevel maps a configured level name to a zerolog level, falling back
// to info for unknown or empty names.
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// WithContext stores the logger in ctx.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in ctx, or a default one.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return logger
	}
	return New()
}

// WithFields returns a child logger carrying the given fields.
func WithFields(logger zerolog.Logger, fields map[string]interface{}) zerolog.Logger {
	lc := logger.With()
	for k, v := range fields {
		lc = lc.Interface(k, v)
	}
	return lc.Logger()
}

// WithUser returns ctx with its logger annotated by user id.
func WithUser(ctx context.Context, userID string) context.Context {
	l := FromContext(ctx).With().Str("user_id", userID).Logger()
	return WithContext(ctx, l)
}
