// Package shield provides the HTTP security middleware applied in front
// of the overlay API: security headers, request body limits, request
// IDs, HEAD handling, and fixed-rule rate limiting.
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(shield.HeadToGet)
//	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
//	r.Use(shield.MaxBody(32 * 1024))
//	r.Use(shield.RequestID)
//	r.Use(shield.NewRateLimiter(shield.DefaultRules()).Middleware)
//
// Or apply the default stack in one call:
//
//	for _, mw := range shield.DefaultStack() {
//	    r.Use(mw)
//	}
package shield

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// DefaultStack returns the standard middleware stack for the overlay
// server, ordered HeadToGet → SecurityHeaders → MaxBody → RequestID →
// RateLimiter.
func DefaultStack() []func(http.Handler) http.Handler {
	rl := NewRateLimiter(DefaultRules())
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxBody(32 * 1024),
		RequestID,
		rl.Middleware,
	}
}
