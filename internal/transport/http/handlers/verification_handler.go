package handlers

import (
	"net/http"

	"github.com/mborders/logmatic"

	"github.com/agentkred/kred/internal/service"
	"github.com/agentkred/kred/internal/transport/http/middleware"
	"github.com/agentkred/kred/pkg/validator"
)

type VerificationHandler struct {
	verificationService *service.VerificationService
	log                 *logmatic.Logger
}

func NewVerificationHandler(verificationService *service.VerificationService, log *logmatic.Logger) *VerificationHandler {
	return &VerificationHandler{verificationService: verificationService, log: log}
}

type verifyResponse struct {
	Status        string `json:"status"`
	ScoreAdded    int    `json:"score_added"`
	NewTrustScore int    `json:"new_trust_score"`
	Message       string `json:"message"`
}

func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var input service.VerifyInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := validator.ValidateVerify(input.AgentID, input.Platform, input.ProofURL); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	res, err := h.verificationService.Verify(r.Context(), middleware.GetAgentID(r.Context()), input)
	if err != nil {
		writeServiceError(w, h.log, "verify", err)
		return
	}

	resp := verifyResponse{
		Status:        "failed",
		NewTrustScore: res.NewTrustScore,
		Message:       "Proof not found",
	}
	if res.Verified {
		resp.Status = "verified"
		resp.ScoreAdded = res.ScoreAdded
		resp.Message = "Verified " + res.Platform
	}
	writeJSON(w, http.StatusOK, resp)
}
