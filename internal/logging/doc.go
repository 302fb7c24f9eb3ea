// Package logging wraps log/slog with the attribute helpers and handlers
// used throughout subgen. Components receive loggers via
// NewComponentLogger; tests use NewNop.
package logging
