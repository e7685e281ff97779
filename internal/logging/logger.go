// Package logging defines a minimal structured-logging interface used across
// the project. Implementations can wrap slog, zap, zerolog, etc.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "embedding fetched", "user_id", id, "protocol", proto)
type Logger interface {
	// Debug logs verbose diagnostics (cache hits, provider latencies).
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions,
	// e.g. a degraded cache.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}

// Nop discards everything. Handy for tests and optional dependencies.
type Nop struct{}

func (Nop) Debug(context.Context, string, ...any) {}
func (Nop) Info(context.Context, string, ...any)  {}
func (Nop) Warn(context.Context, string, ...any)  {}
func (Nop) Error(context.Context, string, ...any) {}
func (n Nop) With(...any) Logger                  { return n }
