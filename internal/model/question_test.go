package model

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)

func testQuestion(current, required int, expiresAt time.Time) *Question {
	return &Question{
		ID:                "q_test00000001",
		Prompt:            "Which option reads better?",
		Type:              QuestionTypeMultipleChoice,
		Options:           []string{"A", "B"},
		RequiredResponses: required,
		CurrentResponses:  current,
		CreatedAt:         testNow.Add(-time.Minute),
		ExpiresAt:         expiresAt,
	}
}

func TestStatusDerivation(t *testing.T) {
	future := testNow.Add(time.Hour)
	past := testNow.Add(-time.Hour)

	cases := []struct {
		name     string
		current  int
		required int
		expires  time.Time
		want     QuestionStatus
	}{
		{"no responses before expiry", 0, 3, future, StatusOpen},
		{"some responses before expiry", 2, 3, future, StatusPartial},
		{"quorum reached", 3, 3, future, StatusClosed},
		{"over quorum", 5, 3, future, StatusClosed},
		{"expired without responses", 0, 3, past, StatusExpired},
		{"expired below quorum", 2, 3, past, StatusExpired},
		{"quorum wins over expiry", 3, 3, past, StatusClosed},
		{"expiry instant is expired", 1, 3, testNow, StatusExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := testQuestion(tc.current, tc.required, tc.expires)
			if got := q.Status(testNow); got != tc.want {
				t.Fatalf("Status() = %s, want %s", got, tc.want)
			}
			// Pure function: recomputing on identical inputs is identical
			if again := q.Status(testNow); again != tc.want {
				t.Fatalf("second Status() = %s, want %s", again, tc.want)
			}
		})
	}
}

func TestAcceptsResponses(t *testing.T) {
	future := testNow.Add(time.Hour)

	if !testQuestion(0, 3, future).AcceptsResponses(testNow) {
		t.Error("OPEN question should accept responses")
	}
	if !testQuestion(2, 3, future).AcceptsResponses(testNow) {
		t.Error("PARTIAL question should accept responses")
	}
	if testQuestion(3, 3, future).AcceptsResponses(testNow) {
		t.Error("CLOSED question should not accept responses")
	}
	if testQuestion(1, 3, testNow.Add(-time.Second)).AcceptsResponses(testNow) {
		t.Error("EXPIRED question should not accept responses")
	}
}

func TestNewQuestionValidation(t *testing.T) {
	cases := []struct {
		name    string
		params  CreateQuestionParams
		wantErr bool
	}{
		{
			name:   "valid text question",
			params: CreateQuestionParams{Prompt: "Is this prompt long enough?", Type: QuestionTypeText},
		},
		{
			name: "valid multiple choice",
			params: CreateQuestionParams{
				Prompt:  "Pick the better option of these",
				Type:    QuestionTypeMultipleChoice,
				Options: []string{"A", "B"},
			},
		},
		{
			name:    "prompt too short",
			params:  CreateQuestionParams{Prompt: "short", Type: QuestionTypeText},
			wantErr: true,
		},
		{
			name:    "unknown type",
			params:  CreateQuestionParams{Prompt: "Is this prompt long enough?", Type: "ranked_choice"},
			wantErr: true,
		},
		{
			name: "text question with options",
			params: CreateQuestionParams{
				Prompt:  "Is this prompt long enough?",
				Type:    QuestionTypeText,
				Options: []string{"A", "B"},
			},
			wantErr: true,
		},
		{
			name: "multiple choice with one option",
			params: CreateQuestionParams{
				Prompt:  "Pick the better option of these",
				Type:    QuestionTypeMultipleChoice,
				Options: []string{"A"},
			},
			wantErr: true,
		},
		{
			name: "required responses over cap",
			params: CreateQuestionParams{
				Prompt:            "Is this prompt long enough?",
				Type:              QuestionTypeText,
				RequiredResponses: 51,
			},
			wantErr: true,
		},
		{
			name: "timeout below minimum",
			params: CreateQuestionParams{
				Prompt:         "Is this prompt long enough?",
				Type:           QuestionTypeText,
				TimeoutSeconds: 10,
			},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := NewQuestion(tc.params, testNow)
			if tc.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.Status(testNow) != StatusOpen {
				t.Errorf("new question status = %s, want OPEN", q.Status(testNow))
			}
			if q.ID == "" || q.ID[:2] != "q_" {
				t.Errorf("unexpected question id %q", q.ID)
			}
		})
	}
}

func TestNewQuestionDefaults(t *testing.T) {
	q, err := NewQuestion(CreateQuestionParams{
		Prompt: "Is this prompt long enough?",
		Type:   QuestionTypeText,
	}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.RequiredResponses != DefaultRequiredResponses {
		t.Errorf("RequiredResponses = %d, want %d", q.RequiredResponses, DefaultRequiredResponses)
	}
	wantExpiry := testNow.Add(DefaultTimeoutSeconds * time.Second)
	if !q.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("ExpiresAt = %v, want %v", q.ExpiresAt, wantExpiry)
	}
	if len(q.Audience) != 1 || q.Audience[0] != "general" {
		t.Errorf("Audience = %v, want [general]", q.Audience)
	}
}

func TestNewResponseValidation(t *testing.T) {
	textQ := &Question{ID: "q_a", Type: QuestionTypeText, RequiredResponses: 3, ExpiresAt: testNow.Add(time.Hour)}
	mcQ := &Question{ID: "q_b", Type: QuestionTypeMultipleChoice, Options: []string{"A", "B", "C"}, RequiredResponses: 3, ExpiresAt: testNow.Add(time.Hour)}

	opt := func(i int) *int { return &i }

	cases := []struct {
		name    string
		q       *Question
		params  SubmitResponseParams
		wantErr bool
	}{
		{"valid text answer", textQ, SubmitResponseParams{Answer: "makes sense to me"}, false},
		{"missing text answer", textQ, SubmitResponseParams{}, true},
		{"option on text question", textQ, SubmitResponseParams{Answer: "x", SelectedOption: opt(1)}, true},
		{"valid option", mcQ, SubmitResponseParams{SelectedOption: opt(2)}, false},
		{"option out of range", mcQ, SubmitResponseParams{SelectedOption: opt(3)}, true},
		{"negative option", mcQ, SubmitResponseParams{SelectedOption: opt(-1)}, true},
		{"missing option", mcQ, SubmitResponseParams{}, true},
		{"answer on choice question", mcQ, SubmitResponseParams{Answer: "x", SelectedOption: opt(0)}, true},
		{"confidence in range", textQ, SubmitResponseParams{Answer: "x", Confidence: opt(5)}, false},
		{"confidence out of range", textQ, SubmitResponseParams{Answer: "x", Confidence: opt(6)}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := NewResponse(tc.q, tc.params, testNow)
			if tc.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.QuestionID != tc.q.ID {
				t.Errorf("QuestionID = %s, want %s", resp.QuestionID, tc.q.ID)
			}
			if resp.ID == "" || resp.ID[:2] != "r_" {
				t.Errorf("unexpected response id %q", resp.ID)
			}
		})
	}
}
