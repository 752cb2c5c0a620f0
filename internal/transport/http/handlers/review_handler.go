package handlers

import (
	"net/http"

	"github.com/mborders/logmatic"

	"github.com/agentkred/kred/internal/service"
	"github.com/agentkred/kred/internal/transport/http/middleware"
	"github.com/agentkred/kred/pkg/validator"
)

type ReviewHandler struct {
	reviewService *service.ReviewService
	log           *logmatic.Logger
}

func NewReviewHandler(reviewService *service.ReviewService, log *logmatic.Logger) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, log: log}
}

type reviewResponse struct {
	Status        string `json:"status"`
	ScoreBoost    int    `json:"score_boost"`
	NewTrustScore int    `json:"new_trust_score"`
	Message       string `json:"message"`
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.SubmitReviewInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := validator.ValidateReview(input.ReviewerID, input.TargetID, input.Comment); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	res, err := h.reviewService.Submit(r.Context(), middleware.GetAgentID(r.Context()), input)
	if err != nil {
		writeServiceError(w, h.log, "submit review", err)
		return
	}

	msg := "Reviewed"
	if res.Reciprocal {
		msg = "Reviewed (mutual review, boost halved)"
	}
	writeJSON(w, http.StatusOK, reviewResponse{
		Status:        "success",
		ScoreBoost:    res.Boost,
		NewTrustScore: res.NewTrustScore,
		Message:       msg,
	})
}
