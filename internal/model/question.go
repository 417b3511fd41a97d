package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionType defines the answer format of a question
type QuestionType string

const (
	QuestionTypeText           QuestionType = "text"            // Free-form text answer
	QuestionTypeMultipleChoice QuestionType = "multiple_choice" // Pick one of the options
)

// QuestionStatus is derived from the response count and expiry, never stored
type QuestionStatus string

const (
	StatusOpen    QuestionStatus = "OPEN"    // No responses yet, still accepting
	StatusPartial QuestionStatus = "PARTIAL" // Some responses, below quorum
	StatusClosed  QuestionStatus = "CLOSED"  // Quorum reached, terminal
	StatusExpired QuestionStatus = "EXPIRED" // Expired below quorum, terminal
)

// Validation bounds
const (
	MinPromptLength          = 10
	MaxPromptLength          = 2000
	MinOptions               = 2
	MaxOptions               = 10
	MaxRequiredResponses     = 50
	DefaultRequiredResponses = 5
	MinTimeoutSeconds        = 60
	MaxTimeoutSeconds        = 86400
	DefaultTimeoutSeconds    = 3600
)

// Question is an agent-submitted question awaiting human responses.
// CurrentResponses counts admitted responses only and never decreases.
type Question struct {
	ID                string       `json:"question_id" bson:"_id"`
	Prompt            string       `json:"prompt" bson:"prompt"`
	Type              QuestionType `json:"type" bson:"type"`
	Options           []string     `json:"options,omitempty" bson:"options,omitempty"`
	RequiredResponses int          `json:"required_responses" bson:"requiredResponses"`
	CurrentResponses  int          `json:"current_responses" bson:"currentResponses"`
	Audience          []string     `json:"audience,omitempty" bson:"audience,omitempty"`
	AgentID           string       `json:"agent_id,omitempty" bson:"agentId,omitempty"`
	CreatedAt         time.Time    `json:"created_at" bson:"createdAt"`
	ExpiresAt         time.Time    `json:"expires_at" bson:"expiresAt"`
}

// NewQuestionID generates an opaque question ID with q_ prefix
func NewQuestionID() string {
	return "q_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// CreateQuestionParams holds question creation input
type CreateQuestionParams struct {
	Prompt            string
	Type              QuestionType
	Options           []string
	RequiredResponses int
	TimeoutSeconds    int
	Audience          []string
	AgentID           string
}

// NewQuestion validates params and builds a Question with generated ID and timestamps
func NewQuestion(p CreateQuestionParams, now time.Time) (*Question, error) {
	if len(p.Prompt) < MinPromptLength || len(p.Prompt) > MaxPromptLength {
		return nil, &ValidationError{
			Message: fmt.Sprintf("prompt must be between %d and %d characters", MinPromptLength, MaxPromptLength),
			Details: map[string]interface{}{"field": "prompt", "min": MinPromptLength, "max": MaxPromptLength},
		}
	}

	switch p.Type {
	case QuestionTypeText:
		if len(p.Options) > 0 {
			return nil, &ValidationError{
				Message: "options are not allowed for text questions",
				Details: map[string]interface{}{"field": "options"},
			}
		}
	case QuestionTypeMultipleChoice:
		if len(p.Options) < MinOptions || len(p.Options) > MaxOptions {
			return nil, &ValidationError{
				Message: fmt.Sprintf("multiple choice questions require %d to %d options", MinOptions, MaxOptions),
				Details: map[string]interface{}{"field": "options", "min": MinOptions, "max": MaxOptions},
			}
		}
	default:
		return nil, &ValidationError{
			Message: "type must be 'text' or 'multiple_choice'",
			Details: map[string]interface{}{"field": "type"},
		}
	}

	required := p.RequiredResponses
	if required == 0 {
		required = DefaultRequiredResponses
	}
	if required < 1 || required > MaxRequiredResponses {
		return nil, &ValidationError{
			Message: fmt.Sprintf("min_responses must be between 1 and %d", MaxRequiredResponses),
			Details: map[string]interface{}{"field": "min_responses", "min": 1, "max": MaxRequiredResponses},
		}
	}

	timeout := p.TimeoutSeconds
	if timeout == 0 {
		timeout = DefaultTimeoutSeconds
	}
	if timeout < MinTimeoutSeconds || timeout > MaxTimeoutSeconds {
		return nil, &ValidationError{
			Message: fmt.Sprintf("timeout_seconds must be between %d and %d", MinTimeoutSeconds, MaxTimeoutSeconds),
			Details: map[string]interface{}{"field": "timeout_seconds", "min": MinTimeoutSeconds, "max": MaxTimeoutSeconds},
		}
	}

	audience := p.Audience
	if len(audience) == 0 {
		audience = []string{"general"}
	}

	return &Question{
		ID:                NewQuestionID(),
		Prompt:            p.Prompt,
		Type:              p.Type,
		Options:           p.Options,
		RequiredResponses: required,
		CurrentResponses:  0,
		Audience:          audience,
		AgentID:           p.AgentID,
		CreatedAt:         now.UTC(),
		ExpiresAt:         now.UTC().Add(time.Duration(timeout) * time.Second),
	}, nil
}

// Status derives the question status at the given instant. Quorum wins over
// expiry: a question that reached RequiredResponses stays CLOSED forever.
func (q *Question) Status(now time.Time) QuestionStatus {
	if q.CurrentResponses >= q.RequiredResponses {
		return StatusClosed
	}
	if !now.Before(q.ExpiresAt) {
		return StatusExpired
	}
	if q.CurrentResponses > 0 {
		return StatusPartial
	}
	return StatusOpen
}

// AcceptsResponses reports whether the question still admits new responses
func (q *Question) AcceptsResponses(now time.Time) bool {
	s := q.Status(now)
	return s == StatusOpen || s == StatusPartial
}

// ResponsesNeeded returns how many more responses are wanted before quorum
func (q *Question) ResponsesNeeded() int {
	n := q.RequiredResponses - q.CurrentResponses
	if n < 0 {
		return 0
	}
	return n
}
