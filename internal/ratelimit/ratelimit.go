// Package ratelimit throttles outbound calls to upstream providers.
//
// Upstream travel APIs meter by API key; blowing through a provider's quota
// turns into RATE_LIMIT_EXCEEDED responses for every caller. The orchestrator
// consults a Limiter before each provider call and records an over-limit
// provider as a rate-limit error in the provider report instead of calling it.
package ratelimit

import "context"

// Limiter decides whether an outbound call identified by key should proceed.
// Keys are provider names. Implementations must be safe for concurrent use.
type Limiter interface {
	// Allow returns true if the call should proceed.
	// Returning an error signals a limiter malfunction; callers treat errors
	// as fail-open (permit the call) rather than blocking traffic.
	Allow(ctx context.Context, key string) (bool, error)

	// Close releases resources (cleanup goroutines).
	Close() error
}

// NoopLimiter permits every call. Used when outbound throttling is disabled.
type NoopLimiter struct{}

// Allow always returns true.
func (NoopLimiter) Allow(context.Context, string) (bool, error) { return true, nil }

// Close is a no-op.
func (NoopLimiter) Close() error { return nil }
