package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mborders/logmatic"

	"github.com/agentkred/kred/internal/service"
	"github.com/agentkred/kred/pkg/validator"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": errs,
		},
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

// writeServiceError maps the service sentinels shared by every handler.
func writeServiceError(w http.ResponseWriter, log *logmatic.Logger, op string, err error) {
	switch {
	case errors.Is(err, service.ErrAgentNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Agent not found")
	case errors.Is(err, service.ErrAuthorizationMismatch):
		writeError(w, http.StatusForbidden, "AUTHORIZATION_MISMATCH", "Signed agent does not match the request")
	case errors.Is(err, service.ErrAgentExists):
		writeError(w, http.StatusBadRequest, "AGENT_EXISTS", "Agent already exists")
	case errors.Is(err, service.ErrInsufficientReputation):
		writeError(w, http.StatusForbidden, "INSUFFICIENT_REPUTATION", "Reviewer trust score is too low")
	case errors.Is(err, service.ErrSelfReview):
		writeError(w, http.StatusBadRequest, "SELF_REVIEW", "Agents cannot review themselves")
	case errors.Is(err, service.ErrInvalidReviewScore):
		writeError(w, http.StatusBadRequest, "INVALID_REVIEW_SCORE", "Review score must be between 1 and 5")
	case errors.Is(err, service.ErrInvalidTxHash):
		writeError(w, http.StatusBadRequest, "INVALID_TX_HASH", "Transaction hash must start with 0x")
	case errors.Is(err, service.ErrInvalidStakeAmount):
		writeError(w, http.StatusBadRequest, "INVALID_AMOUNT", "Stake amount must be a non-negative number")
	default:
		log.Error("%s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
