package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/mborders/logmatic"

	"github.com/agentkred/kred/internal/auth"
	"github.com/agentkred/kred/internal/service"
	"github.com/agentkred/kred/internal/transport/http/middleware"
)

const SystemName = "AgentKred Protocol v0.3.2 (Profile)"

type RouterDeps struct {
	Agents        *service.AgentService
	Reviews       *service.ReviewService
	Verifications *service.VerificationService
	Stakes        *service.StakeService
	Verifier      *auth.Verifier
	// Feed serves /ws when set.
	Feed        http.Handler
	MaxBodySize int64
	Log         *logmatic.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	agentHandler := NewAgentHandler(d.Agents, d.Log)
	reviewHandler := NewReviewHandler(d.Reviews, d.Log)
	verificationHandler := NewVerificationHandler(d.Verifications, d.Log)
	stakeHandler := NewStakeHandler(d.Stakes, d.Log)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS)

	// Public
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "online", "system": SystemName})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/agent/{id}", agentHandler.Get)
	r.Get("/agent/{id}/reviews", agentHandler.ListReviews)
	r.Get("/agent/{id}/verifications", agentHandler.ListVerifications)
	r.Get("/agents/top", agentHandler.Top)
	if d.Feed != nil {
		r.Handle("/ws", d.Feed)
	}

	// Signed
	r.Group(func(signed chi.Router) {
		signed.Use(middleware.Signature(d.Verifier, d.MaxBodySize, d.Log))
		signed.Post(auth.RegisterPath, agentHandler.Register)
		signed.Post("/agent/update", agentHandler.Update)
		signed.Post("/verify", verificationHandler.Verify)
		signed.Post("/review", reviewHandler.Create)
		signed.Post("/stake", stakeHandler.Stake)
	})

	return r
}
