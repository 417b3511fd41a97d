package client

import (
	"fmt"
	"time"
)

// ValidationError reports a malformed request (400). Never retried.
type ValidationError struct {
	Message string
	Code    string
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports an unknown question ID (404)
type NotFoundError struct {
	QuestionID string
	Message    string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("question %s not found", e.QuestionID)
}

// DuplicateResponseError reports that this client already answered the
// question (409 with code DUPLICATE_RESPONSE).
type DuplicateResponseError struct {
	Message string
}

func (e *DuplicateResponseError) Error() string {
	return e.Message
}

// QuestionClosedError reports a submission after quorum or expiry (409)
type QuestionClosedError struct {
	Message string
}

func (e *QuestionClosedError) Error() string {
	return e.Message
}

// RateLimitError reports an exceeded quota (429) with a retry-after hint
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// ServerError reports a storage/transport failure (5xx or network). The
// Orchestrator treats it as transient and retries on the next backoff tick.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// CancelledError reports a wait aborted by the caller's context. Distinct
// from a timeout, which is a normal partial return, not an error.
type CancelledError struct {
	Err error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("wait cancelled: %v", e.Err)
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}
