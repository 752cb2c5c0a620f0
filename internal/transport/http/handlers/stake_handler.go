package handlers

import (
	"net/http"

	"github.com/mborders/logmatic"

	"github.com/agentkred/kred/internal/service"
	"github.com/agentkred/kred/internal/transport/http/middleware"
	"github.com/agentkred/kred/pkg/validator"
)

type StakeHandler struct {
	stakeService *service.StakeService
	log          *logmatic.Logger
}

func NewStakeHandler(stakeService *service.StakeService, log *logmatic.Logger) *StakeHandler {
	return &StakeHandler{stakeService: stakeService, log: log}
}

func (h *StakeHandler) Stake(w http.ResponseWriter, r *http.Request) {
	var input service.StakeInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := validator.ValidateStake(input.AgentID, input.TxHash, input.Amount); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	agent, err := h.stakeService.Stake(r.Context(), middleware.GetAgentID(r.Context()), input)
	if err != nil {
		writeServiceError(w, h.log, "stake", err)
		return
	}

	writeJSON(w, http.StatusOK, agent)
}
