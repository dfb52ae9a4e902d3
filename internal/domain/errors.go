package domain

import (
	"fmt"
	"time"
)

// NotFoundError means the repository (or a resource inside it) does not exist
// or is not visible with the current credentials.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found or not accessible", e.Resource)
}

// RateLimitError means the platform refused the request because the caller
// exhausted its request quota or was otherwise forbidden.
type RateLimitError struct {
	Reset   time.Time
	Message string
}

func (e *RateLimitError) Error() string {
	msg := "API rate limit exceeded or access forbidden"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if !e.Reset.IsZero() {
		msg += fmt.Sprintf(" (resets at %s)", e.Reset.Format(time.RFC3339))
	}
	return msg
}

// NetworkError wraps a transport failure: DNS, TLS, connection reset, timeout.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is any other non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API returned status %d: %s", e.StatusCode, e.Message)
}

// InvalidDateError is returned for a --start-date that is not YYYY-MM-DD.
type InvalidDateError struct {
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date format '%s', please use YYYY-MM-DD", e.Value)
}

// InvalidStateError is returned for a --state that is not open, closed or all.
type InvalidStateError struct {
	Value string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state '%s', must be one of open, closed, all", e.Value)
}
