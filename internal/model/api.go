package model

import "time"

// Error codes returned in API error envelopes.
const (
	ErrCodeInvalidInput  = "invalid_input"
	ErrCodeNotFound      = "not_found"
	ErrCodeRateLimited   = "rate_limited"
	ErrCodeInternalError = "internal_error"
)

// ResponseMeta carries per-request metadata in every envelope.
type ResponseMeta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// APIResponse is the standard success envelope.
type APIResponse struct {
	Data any          `json:"data"`
	Meta ResponseMeta `json:"meta"`
}

// ErrorDetail describes one API error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is the standard error envelope.
type APIError struct {
	Error ErrorDetail  `json:"error"`
	Meta  ResponseMeta `json:"meta"`
}
