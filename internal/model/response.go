package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Response bounds
const (
	MaxAnswerLength = 5000
	MinConfidence   = 1
	MaxConfidence   = 5
)

// Response is a single accepted human answer. Responses are append-only:
// never mutated or deleted once admitted.
type Response struct {
	ID              string    `json:"response_id" bson:"_id"`
	QuestionID      string    `json:"question_id" bson:"questionId"`
	Answer          string    `json:"answer,omitempty" bson:"answer,omitempty"`
	SelectedOption  *int      `json:"selected_option,omitempty" bson:"selectedOption,omitempty"`
	Confidence      *int      `json:"confidence,omitempty" bson:"confidence,omitempty"`
	FingerprintHash string    `json:"-" bson:"fingerprintHash"`
	CreatedAt       time.Time `json:"created_at" bson:"createdAt"`
}

// NewResponseID generates an opaque response ID with r_ prefix
func NewResponseID() string {
	return "r_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// SubmitResponseParams holds response submission input. Exactly one of
// Answer / SelectedOption must be set, matching the question type.
type SubmitResponseParams struct {
	QuestionID      string
	Answer          string
	SelectedOption  *int
	Confidence      *int
	FingerprintHash string
}

// NewResponse validates the submission against the owning question and
// builds a Response with generated ID and timestamp.
func NewResponse(q *Question, p SubmitResponseParams, now time.Time) (*Response, error) {
	switch q.Type {
	case QuestionTypeText:
		if p.Answer == "" {
			return nil, &ValidationError{
				Message: "answer is required for text questions",
				Details: map[string]interface{}{"field": "answer"},
			}
		}
		if len(p.Answer) > MaxAnswerLength {
			return nil, &ValidationError{
				Message: fmt.Sprintf("answer must be at most %d characters", MaxAnswerLength),
				Details: map[string]interface{}{"field": "answer", "max": MaxAnswerLength},
			}
		}
		if p.SelectedOption != nil {
			return nil, &ValidationError{
				Message: "selected_option is not allowed for text questions",
				Details: map[string]interface{}{"field": "selected_option"},
			}
		}
	case QuestionTypeMultipleChoice:
		if p.SelectedOption == nil {
			return nil, &ValidationError{
				Message: "selected_option is required for multiple choice questions",
				Details: map[string]interface{}{"field": "selected_option"},
			}
		}
		if *p.SelectedOption < 0 || *p.SelectedOption >= len(q.Options) {
			return nil, &ValidationError{
				Message: fmt.Sprintf("selected_option must be between 0 and %d", len(q.Options)-1),
				Details: map[string]interface{}{"field": "selected_option", "min": 0, "max": len(q.Options) - 1},
			}
		}
		if p.Answer != "" {
			return nil, &ValidationError{
				Message: "answer is not allowed for multiple choice questions",
				Details: map[string]interface{}{"field": "answer"},
			}
		}
	}

	if p.Confidence != nil && (*p.Confidence < MinConfidence || *p.Confidence > MaxConfidence) {
		return nil, &ValidationError{
			Message: fmt.Sprintf("confidence must be between %d and %d", MinConfidence, MaxConfidence),
			Details: map[string]interface{}{"field": "confidence", "min": MinConfidence, "max": MaxConfidence},
		}
	}

	return &Response{
		ID:              NewResponseID(),
		QuestionID:      q.ID,
		Answer:          p.Answer,
		SelectedOption:  p.SelectedOption,
		Confidence:      p.Confidence,
		FingerprintHash: p.FingerprintHash,
		CreatedAt:       now.UTC(),
	}, nil
}
