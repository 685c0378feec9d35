package registry

import (
	"errors"
	"fmt"
)

// ErrorCategory normalizes upstream failures so the verification service can
// decide retry vs. stale-cache fallback without inspecting HTTP details.
type ErrorCategory string

const (
	// ErrorTimeout indicates the registry took too long to respond.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorOutage indicates the registry is unavailable (connect failures, 5xx).
	ErrorOutage ErrorCategory = "outage"

	// ErrorRateLimited indicates the registry rejected us for traffic volume.
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorBadData indicates a malformed or unexpectedly-shaped payload.
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorInternal indicates an unexpected client-side failure.
	ErrorInternal ErrorCategory = "internal"
)

// ErrCarrierNotFound is the expected outcome for an identifier the registry
// does not know. It is a business fact, not an upstream fault; callers cache
// it on a short TTL rather than retrying.
var ErrCarrierNotFound = errors.New("carrier not found in registry")

// UpstreamError wraps registry failures with a normalized category and enough
// detail for the caller to decide on retry vs. fallback.
type UpstreamError struct {
	Category   ErrorCategory
	StatusCode int
	Message    string
	Underlying error
}

func (e *UpstreamError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("registry [%s]: %s: %v", e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("registry [%s]: %s", e.Category, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Underlying
}

// Retryable reports whether the failure is transient enough to be worth one
// more attempt. Malformed payloads are not: the registry will serve the same
// bytes again.
func (e *UpstreamError) Retryable() bool {
	switch e.Category {
	case ErrorTimeout, ErrorOutage, ErrorRateLimited:
		return true
	default:
		return false
	}
}

// NewUpstreamError builds a categorized registry error.
func NewUpstreamError(category ErrorCategory, message string, underlying error) *UpstreamError {
	return &UpstreamError{Category: category, Message: message, Underlying: underlying}
}

// IsRetryable checks retryability through an error chain.
func IsRetryable(err error) bool {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Retryable()
	}
	return false
}
