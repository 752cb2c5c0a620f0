package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mborders/logmatic"

	"github.com/agentkred/kred/internal/service"
	"github.com/agentkred/kred/internal/transport/http/middleware"
	"github.com/agentkred/kred/pkg/validator"
)

type AgentHandler struct {
	agentService *service.AgentService
	log          *logmatic.Logger
}

func NewAgentHandler(agentService *service.AgentService, log *logmatic.Logger) *AgentHandler {
	return &AgentHandler{agentService: agentService, log: log}
}

func (h *AgentHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := validator.ValidateRegister(input.ID, input.Name, input.PublicKey); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	agent, err := h.agentService.Register(r.Context(), middleware.GetAgentID(r.Context()), input)
	if err != nil {
		writeServiceError(w, h.log, "register", err)
		return
	}

	h.log.Info("registered agent %s", agent.ID)
	writeJSON(w, http.StatusOK, agent)
}

func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input service.UpdateProfileInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := validator.ValidateUpdate(input.Name, input.Bio, input.Tags, input.SocialLinks); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	agent, err := h.agentService.UpdateProfile(r.Context(), middleware.GetAgentID(r.Context()), input)
	if err != nil {
		writeServiceError(w, h.log, "update profile", err)
		return
	}

	writeJSON(w, http.StatusOK, agent)
}

func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	agent, err := h.agentService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, "get agent", err)
		return
	}

	writeJSON(w, http.StatusOK, agent)
}

func (h *AgentHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.agentService.ListReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, "list reviews", err)
		return
	}

	writeJSON(w, http.StatusOK, reviews)
}

func (h *AgentHandler) ListVerifications(w http.ResponseWriter, r *http.Request) {
	verifications, err := h.agentService.ListVerifications(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, "list verifications", err)
		return
	}

	writeJSON(w, http.StatusOK, verifications)
}

// Top serves the leaderboard. A missing or non-numeric limit means the default.
func (h *AgentHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "Limit must be an integer")
			return
		}
		limit = n
	}

	agents, err := h.agentService.ListTop(r.Context(), r.URL.Query().Get("sort_by"), limit)
	if err != nil {
		writeServiceError(w, h.log, "list top agents", err)
		return
	}

	writeJSON(w, http.StatusOK, agents)
}
