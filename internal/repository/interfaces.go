package repository

import (
	"context"
	"errors"

	"github.com/agentkred/kred/internal/domain"
)

var ErrAgentExists = errors.New("agent already exists")

// AgentRepository serves reads outside of a transaction. Missing rows are
// reported as (nil, nil).
type AgentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	ListTop(ctx context.Context, sortBy domain.LeaderboardSort, limit int) ([]domain.Agent, error)
}

type ReviewRepository interface {
	ListByTarget(ctx context.Context, targetID string) ([]domain.Review, error)
}

type VerificationRepository interface {
	ListByAgent(ctx context.Context, agentID string) ([]domain.Verification, error)
}

// Transactor runs fn with exclusive access to the agents it locks. All
// writes made through tx commit together when fn returns nil and are
// discarded otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

type Tx interface {
	// LockAgents locks the given agents for the rest of the transaction and
	// returns the ones that exist, keyed by id. Call it once per transaction.
	LockAgents(ctx context.Context, ids ...string) (map[string]*domain.Agent, error)
	// InsertAgent fails with ErrAgentExists when the id is taken.
	InsertAgent(ctx context.Context, agent *domain.Agent) error
	// SaveAgent persists mutable fields together with a recomputed trust score.
	SaveAgent(ctx context.Context, agent *domain.Agent) error
	InsertVerification(ctx context.Context, v *domain.Verification) error
	InsertReview(ctx context.Context, r *domain.Review) error
	HasReview(ctx context.Context, reviewerID, targetID string) (bool, error)
}
