package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"askhuman/internal/model"
	"askhuman/internal/service"
)

// AgentHandler handles the agent-facing question endpoints
type AgentHandler struct {
	ledger *service.LedgerService
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(ledger *service.LedgerService) *AgentHandler {
	return &AgentHandler{ledger: ledger}
}

// SubmitQuestionRequest is the request body for submitting a question
type SubmitQuestionRequest struct {
	Prompt         string   `json:"prompt"`
	Type           string   `json:"type"`
	Options        []string `json:"options,omitempty"`
	MinResponses   int      `json:"min_responses"`
	Audience       []string `json:"audience,omitempty"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty"`
}

// SubmitQuestionResponse is returned from question submission
type SubmitQuestionResponse struct {
	QuestionID string    `json:"question_id"`
	Status     string    `json:"status"`
	PollURL    string    `json:"poll_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ResponseView is a single response as exposed to the owning agent
type ResponseView struct {
	Answer         string `json:"answer,omitempty"`
	SelectedOption *int   `json:"selected_option,omitempty"`
	Confidence     *int   `json:"confidence,omitempty"`
}

// QuestionView is the full agent-facing question state
type QuestionView struct {
	QuestionID        string         `json:"question_id"`
	Status            string         `json:"status"`
	Prompt            string         `json:"prompt"`
	Type              string         `json:"type"`
	Options           []string       `json:"options,omitempty"`
	RequiredResponses int            `json:"required_responses"`
	CurrentResponses  int            `json:"current_responses"`
	ExpiresAt         time.Time      `json:"expires_at"`
	Responses         []ResponseView `json:"responses"`
	Summary           map[string]int `json:"summary,omitempty"`
}

// Create handles POST /v1/agent/questions
func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SubmitQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.CodeValidation, "invalid request body", nil)
		return
	}

	agentID := r.Header.Get("X-Agent-Id")
	if agentID == "" {
		agentID = "default"
	}

	q, err := h.ledger.CreateQuestion(r.Context(), model.CreateQuestionParams{
		Prompt:            req.Prompt,
		Type:              model.QuestionType(req.Type),
		Options:           req.Options,
		RequiredResponses: req.MinResponses,
		TimeoutSeconds:    req.TimeoutSeconds,
		Audience:          req.Audience,
		AgentID:           agentID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, SubmitQuestionResponse{
		QuestionID: q.ID,
		Status:     string(model.StatusOpen),
		PollURL:    "/v1/agent/questions/" + q.ID,
		ExpiresAt:  q.ExpiresAt,
	})
}

// Get handles GET /v1/agent/questions/{questionId}
func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	questionID := mux.Vars(r)["questionId"]

	q, responses, err := h.ledger.GetQuestion(r.Context(), questionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildQuestionView(q, responses, time.Now()))
}

func buildQuestionView(q *model.Question, responses []*model.Response, now time.Time) QuestionView {
	view := QuestionView{
		QuestionID:        q.ID,
		Status:            string(q.Status(now)),
		Prompt:            q.Prompt,
		Type:              string(q.Type),
		Options:           q.Options,
		RequiredResponses: q.RequiredResponses,
		CurrentResponses:  q.CurrentResponses,
		ExpiresAt:         q.ExpiresAt,
		Responses:         make([]ResponseView, 0, len(responses)),
	}

	for _, resp := range responses {
		view.Responses = append(view.Responses, ResponseView{
			Answer:         resp.Answer,
			SelectedOption: resp.SelectedOption,
			Confidence:     resp.Confidence,
		})
	}

	// Raw per-option counts, multiple choice only
	if q.Type == model.QuestionTypeMultipleChoice {
		summary := make(map[string]int, len(q.Options))
		for _, resp := range responses {
			if resp.SelectedOption != nil && *resp.SelectedOption < len(q.Options) {
				summary[q.Options[*resp.SelectedOption]]++
			}
		}
		view.Summary = summary
	}

	return view
}
