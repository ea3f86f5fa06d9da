// Package faults defines the engine-wide error taxonomy.
//
// Every error that crosses a component boundary is classified into a Kind so
// callers can decide on retries and user-facing messages without inspecting
// raw upstream payloads. Provider failures are contained at the orchestrator;
// only total failures and unrecoverable internal errors reach the caller.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies an error. NoResults is informational, not a failure:
// adapters return an empty list for it instead of an error.
type Kind string

const (
	InvalidDate        Kind = "INVALID_DATE"
	InvalidLocation    Kind = "INVALID_LOCATION"
	NoResults          Kind = "NO_RESULTS"
	RateLimitExceeded  Kind = "RATE_LIMIT_EXCEEDED"
	AuthFailed         Kind = "AUTH_FAILED"
	ServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	ValidationError    Kind = "VALIDATION_ERROR"
	NetworkError       Kind = "NETWORK_ERROR"
	CacheError         Kind = "CACHE_ERROR"
	Unknown            Kind = "UNKNOWN_ERROR"
)

// Retryable reports whether an operation failing with this kind is worth
// retrying. Matches the upstream contract: rate limits and transient
// service/network failures are retryable, everything else is not.
func (k Kind) Retryable() bool {
	switch k {
	case RateLimitExceeded, ServiceUnavailable, NetworkError:
		return true
	}
	return false
}

// Error is a kind-tagged error. It wraps an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a kind-tagged error with no cause.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags an existing error with a kind. Returns nil if err is nil.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from an error chain, defaulting to Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// IsRetryable reports whether the error's kind is retryable.
func IsRetryable(err error) bool {
	return KindOf(err).Retryable()
}
