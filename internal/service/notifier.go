package service

import (
	"context"

	"github.com/agentkred/kred/internal/domain"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . Notifier,LeaderboardCache,ProofValidator

// Notifier broadcasts real-time events to connected clients.
type Notifier interface {
	NotifyAgentUpdated(agent *domain.Agent)
	NotifyReviewCreated(review *domain.Review)
}

// LeaderboardCache holds rendered leaderboard pages. Any change to an agent
// invalidates every page. Get reports the cache generation it read; a page
// computed after a miss is stored under that generation so a concurrent
// invalidation orphans it.
type LeaderboardCache interface {
	Get(ctx context.Context, sortBy domain.LeaderboardSort, limit int) (agents []domain.Agent, generation int64, ok bool)
	Set(ctx context.Context, generation int64, sortBy domain.LeaderboardSort, limit int, agents []domain.Agent)
	Invalidate(ctx context.Context)
}

// publisher fans committed changes out to the optional notifier and cache.
type publisher struct {
	notifier Notifier
	cache    LeaderboardCache
}

// SetNotifier sets the real-time notifier (optional dependency).
func (p *publisher) SetNotifier(n Notifier) {
	p.notifier = n
}

// SetLeaderboardCache sets the leaderboard cache (optional dependency).
func (p *publisher) SetLeaderboardCache(c LeaderboardCache) {
	p.cache = c
}

func (p *publisher) agentsChanged(ctx context.Context, agents ...*domain.Agent) {
	if p.cache != nil {
		p.cache.Invalidate(ctx)
	}
	if p.notifier == nil {
		return
	}
	for _, a := range agents {
		p.notifier.NotifyAgentUpdated(a)
	}
}

func (p *publisher) reviewCreated(review *domain.Review) {
	if p.notifier != nil {
		p.notifier.NotifyReviewCreated(review)
	}
}
