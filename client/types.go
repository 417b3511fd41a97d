// Package client is the agent-side SDK for the Ask-a-Human API: a low-level
// HTTP client plus an Orchestrator that waits for responses with adaptive
// polling, timeout, and cancellation.
package client

import "time"

// QuestionType defines the answer format of a question
type QuestionType string

const (
	TypeText           QuestionType = "text"
	TypeMultipleChoice QuestionType = "multiple_choice"
)

// Status is the server-derived question status
type Status string

const (
	StatusOpen    Status = "OPEN"
	StatusPartial Status = "PARTIAL"
	StatusClosed  Status = "CLOSED"
	StatusExpired Status = "EXPIRED"
)

// DefaultMinResponses matches the server-side quorum default
const DefaultMinResponses = 5

// QuestionRequest is the submit-question wire payload
type QuestionRequest struct {
	Prompt         string       `json:"prompt"`
	Type           QuestionType `json:"type"`
	Options        []string     `json:"options,omitempty"`
	MinResponses   int          `json:"min_responses,omitempty"`
	Audience       []string     `json:"audience,omitempty"`
	TimeoutSeconds int          `json:"timeout_seconds,omitempty"`
}

// Submission is returned from a successful question submit
type Submission struct {
	QuestionID string    `json:"question_id"`
	Status     Status    `json:"status"`
	PollURL    string    `json:"poll_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ResponseItem is a single human response within a Question view
type ResponseItem struct {
	Answer         string `json:"answer,omitempty"`
	SelectedOption *int   `json:"selected_option,omitempty"`
	Confidence     *int   `json:"confidence,omitempty"`
}

// Question is the full agent-facing question state from a poll read
type Question struct {
	QuestionID        string         `json:"question_id"`
	Status            Status         `json:"status"`
	Prompt            string         `json:"prompt"`
	Type              QuestionType   `json:"type"`
	Options           []string       `json:"options,omitempty"`
	RequiredResponses int            `json:"required_responses"`
	CurrentResponses  int            `json:"current_responses"`
	ExpiresAt         time.Time      `json:"expires_at"`
	Responses         []ResponseItem `json:"responses"`
	Summary           map[string]int `json:"summary,omitempty"`
}

// Terminal reports whether the question reached a final state
func (q *Question) Terminal() bool {
	return q.Status == StatusClosed || q.Status == StatusExpired
}

// ResponseRequest is the submit-response wire payload (human side)
type ResponseRequest struct {
	QuestionID     string `json:"question_id"`
	Answer         string `json:"answer,omitempty"`
	SelectedOption *int   `json:"selected_option,omitempty"`
	Confidence     *int   `json:"confidence,omitempty"`
}

// BrowseItem is a browsable question in the human list
type BrowseItem struct {
	QuestionID      string       `json:"question_id"`
	Prompt          string       `json:"prompt"`
	Type            QuestionType `json:"type"`
	Options         []string     `json:"options,omitempty"`
	ResponsesNeeded int          `json:"responses_needed"`
	Audience        []string     `json:"audience,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}
