package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"askhuman/internal/model"
	"askhuman/internal/service"
	"askhuman/internal/transport/rest/middleware"
)

const (
	defaultListLimit = 20
	maxListLimit     = 50
)

// HumanHandler handles the human-facing browse and answer endpoints
type HumanHandler struct {
	ledger *service.LedgerService
}

// NewHumanHandler creates a new human handler
func NewHumanHandler(ledger *service.LedgerService) *HumanHandler {
	return &HumanHandler{ledger: ledger}
}

// QuestionListItem is a browsable question in the human list
type QuestionListItem struct {
	QuestionID      string    `json:"question_id"`
	Prompt          string    `json:"prompt"`
	Type            string    `json:"type"`
	Options         []string  `json:"options,omitempty"`
	ResponsesNeeded int       `json:"responses_needed"`
	Audience        []string  `json:"audience,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// QuestionDetail is the human-facing single question view
type QuestionDetail struct {
	QuestionID      string   `json:"question_id"`
	Prompt          string   `json:"prompt"`
	Type            string   `json:"type"`
	Options         []string `json:"options,omitempty"`
	ResponsesNeeded int      `json:"responses_needed"`
	Audience        []string `json:"audience,omitempty"`
	CanAnswer       bool     `json:"can_answer"`
}

// SubmitResponseRequest is the request body for answering a question.
// The fingerprint is never part of the payload; it is derived server-side.
type SubmitResponseRequest struct {
	QuestionID     string `json:"question_id"`
	Answer         string `json:"answer,omitempty"`
	SelectedOption *int   `json:"selected_option,omitempty"`
	Confidence     *int   `json:"confidence,omitempty"`
}

// List handles GET /v1/human/questions
func (h *HumanHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	fingerprint := middleware.GetFingerprint(r.Context())

	questions, err := h.ledger.ListAnswerable(r.Context(), fingerprint, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]QuestionListItem, 0, len(questions))
	for _, q := range questions {
		items = append(items, QuestionListItem{
			QuestionID:      q.ID,
			Prompt:          q.Prompt,
			Type:            string(q.Type),
			Options:         q.Options,
			ResponsesNeeded: q.ResponsesNeeded(),
			Audience:        q.Audience,
			CreatedAt:       q.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": items})
}

// Get handles GET /v1/human/questions/{questionId}
func (h *HumanHandler) Get(w http.ResponseWriter, r *http.Request) {
	questionID := mux.Vars(r)["questionId"]
	fingerprint := middleware.GetFingerprint(r.Context())

	q, _, err := h.ledger.GetQuestion(r.Context(), questionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, QuestionDetail{
		QuestionID:      q.ID,
		Prompt:          q.Prompt,
		Type:            string(q.Type),
		Options:         q.Options,
		ResponsesNeeded: q.ResponsesNeeded(),
		Audience:        q.Audience,
		CanAnswer:       h.ledger.CanAnswer(r.Context(), q, fingerprint),
	})
}

// SubmitResponse handles POST /v1/human/responses
func (h *HumanHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	var req SubmitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.CodeValidation, "invalid request body", nil)
		return
	}

	if req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, model.CodeValidation, "question_id is required",
			map[string]interface{}{"field": "question_id"})
		return
	}

	resp, err := h.ledger.SubmitResponse(r.Context(), model.SubmitResponseParams{
		QuestionID:      req.QuestionID,
		Answer:          req.Answer,
		SelectedOption:  req.SelectedOption,
		Confidence:      req.Confidence,
		FingerprintHash: middleware.GetFingerprint(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"response_id": resp.ID})
}
