// Package memory is an in-process store used for development and tests.
// Each agent has its own lock, so transactions on different agents run in
// parallel; writes are staged per transaction and applied on commit.
package memory

import (
	"context"
	"sort"

	"github.com/sasha-s/go-deadlock"

	"github.com/agentkred/kred/internal/domain"
	"github.com/agentkred/kred/internal/repository"
)

type Store struct {
	mu            deadlock.RWMutex
	agents        map[string]*domain.Agent
	reviews       []domain.Review
	verifications []domain.Verification

	locksMu deadlock.Mutex
	locks   map[string]*agentLock
}

// agentLock is dropped from the store once no transaction holds or waits
// on it.
type agentLock struct {
	mu   deadlock.Mutex
	refs int
}

func New() *Store {
	return &Store{
		agents: make(map[string]*domain.Agent),
		locks:  make(map[string]*agentLock),
	}
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	if !ok {
		return nil, nil
	}
	out := a.Clone()
	out.Refresh()
	return out, nil
}

func (s *Store) ListTop(ctx context.Context, sortBy domain.LeaderboardSort, limit int) ([]domain.Agent, error) {
	s.mu.RLock()
	agents := make([]domain.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		c := a.Clone()
		c.Refresh()
		agents = append(agents, *c)
	}
	s.mu.RUnlock()

	less := leaderboardLess(sortBy)
	sort.Slice(agents, func(i, j int) bool {
		if less(&agents[i], &agents[j]) {
			return true
		}
		if less(&agents[j], &agents[i]) {
			return false
		}
		return agents[i].ID < agents[j].ID
	})

	if limit >= 0 && len(agents) > limit {
		agents = agents[:limit]
	}
	return agents, nil
}

func leaderboardLess(sortBy domain.LeaderboardSort) func(a, b *domain.Agent) bool {
	switch sortBy {
	case domain.SortStakedAmount:
		return func(a, b *domain.Agent) bool { return a.StakedAmount > b.StakedAmount }
	case domain.SortReviewScore:
		return func(a, b *domain.Agent) bool { return a.ReviewScore > b.ReviewScore }
	case domain.SortActive:
		return func(a, b *domain.Agent) bool { return a.LastActiveAt.After(b.LastActiveAt) }
	default:
		return func(a, b *domain.Agent) bool { return a.TrustScore > b.TrustScore }
	}
}

func (s *Store) ListByTarget(ctx context.Context, targetID string) ([]domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Review
	for i := len(s.reviews) - 1; i >= 0; i-- {
		rv := s.reviews[i]
		if rv.TargetID != targetID {
			continue
		}
		if reviewer, ok := s.agents[rv.ReviewerID]; ok {
			rv.ReviewerName = reviewer.Name
		}
		out = append(out, rv)
	}
	return out, nil
}

func (s *Store) ListByAgent(ctx context.Context, agentID string) ([]domain.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Verification
	for i := len(s.verifications) - 1; i >= 0; i-- {
		if s.verifications[i].AgentID == agentID {
			out = append(out, s.verifications[i])
		}
	}
	return out, nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx := &memTx{store: s, saved: make(map[string]*domain.Agent)}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

func (s *Store) lockAgent(id string) {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &agentLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
}

func (s *Store) unlockAgent(id string) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l := s.locks[id]
	l.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
}

func (s *Store) lockCount() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}

var (
	_ repository.AgentRepository        = (*Store)(nil)
	_ repository.ReviewRepository       = (*Store)(nil)
	_ repository.VerificationRepository = (*Store)(nil)
	_ repository.Transactor             = (*Store)(nil)
)
