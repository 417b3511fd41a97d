package model

import (
	"fmt"
	"time"
)

// Error codes carried in the wire envelope
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "QUESTION_NOT_FOUND"
	CodeDuplicateResponse = "DUPLICATE_RESPONSE"
	CodeQuestionClosed    = "QUESTION_CLOSED"
	CodeRateLimited       = "RATE_LIMITED"
	CodeServerError       = "SERVER_ERROR"
)

// ValidationError reports malformed create/submit input. Caller's fault,
// never retried.
type ValidationError struct {
	Message string
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports an unknown question ID
type NotFoundError struct {
	QuestionID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("question %s not found", e.QuestionID)
}

// DuplicateResponseError reports that this fingerprint already answered
// the question.
type DuplicateResponseError struct {
	QuestionID string
}

func (e *DuplicateResponseError) Error() string {
	return fmt.Sprintf("question %s already answered by this client", e.QuestionID)
}

// QuestionClosedError reports a submission that arrived after quorum or expiry
type QuestionClosedError struct {
	QuestionID string
	Status     QuestionStatus
}

func (e *QuestionClosedError) Error() string {
	return fmt.Sprintf("question %s is %s and no longer accepts responses", e.QuestionID, e.Status)
}

// RateLimitError reports an exceeded submission quota with a retry-after hint
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}
