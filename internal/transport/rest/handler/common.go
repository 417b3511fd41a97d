package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"askhuman/internal/model"
)

// errorEnvelope is the wire error shape: {error, code, details?}
type errorEnvelope struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	writeJSON(w, status, errorEnvelope{Error: message, Code: code, Details: details})
}

// writeDomainError maps ledger errors onto HTTP status classes:
// 400 validation, 404 not found, 409 closed/duplicate, 5xx everything else.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *model.ValidationError
		notFoundErr   *model.NotFoundError
		duplicateErr  *model.DuplicateResponseError
		closedErr     *model.QuestionClosedError
	)

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, model.CodeValidation, validationErr.Message, validationErr.Details)
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, model.CodeNotFound, notFoundErr.Error(), nil)
	case errors.As(err, &duplicateErr):
		writeError(w, http.StatusConflict, model.CodeDuplicateResponse, duplicateErr.Error(), nil)
	case errors.As(err, &closedErr):
		writeError(w, http.StatusConflict, model.CodeQuestionClosed, closedErr.Error(),
			map[string]interface{}{"status": string(closedErr.Status)})
	default:
		log.Error().Err(err).Msg("Internal error")
		writeError(w, http.StatusInternalServerError, model.CodeServerError, "internal server error", nil)
	}
}
