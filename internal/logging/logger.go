// Package logging defines the structured-logging interface shared by the
// vault session, its journal, the backup service and the unlock agent.
//
// Implementations must never be handed key material, passwords or decrypted
// document bytes as attributes; callers log identifiers and outcomes only.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "vault opened", "path", path, "entries", n)
type Logger interface {
	// Debug logs detail useful while diagnosing a single operation.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}
