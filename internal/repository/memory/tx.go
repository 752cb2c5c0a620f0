package memory

import (
	"context"
	"sort"

	"github.com/agentkred/kred/internal/domain"
	"github.com/agentkred/kred/internal/repository"
)

type memTx struct {
	store *Store
	held  []string
	owned map[string]bool

	inserted      []*domain.Agent
	saved         map[string]*domain.Agent
	reviews       []domain.Review
	verifications []domain.Verification
}

func (t *memTx) lock(ids []string) {
	if t.owned == nil {
		t.owned = make(map[string]bool)
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	for _, id := range sorted {
		if t.owned[id] {
			continue
		}
		t.store.lockAgent(id)
		t.held = append(t.held, id)
		t.owned[id] = true
	}
}

func (t *memTx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.store.unlockAgent(t.held[i])
	}
	t.held = nil
}

func (t *memTx) LockAgents(ctx context.Context, ids ...string) (map[string]*domain.Agent, error) {
	t.lock(ids)

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	out := make(map[string]*domain.Agent, len(ids))
	for _, id := range ids {
		if a, ok := t.store.agents[id]; ok {
			c := a.Clone()
			c.Refresh()
			out[id] = c
		}
	}
	return out, nil
}

func (t *memTx) InsertAgent(ctx context.Context, a *domain.Agent) error {
	t.lock([]string{a.ID})

	t.store.mu.RLock()
	_, exists := t.store.agents[a.ID]
	t.store.mu.RUnlock()
	if exists {
		return repository.ErrAgentExists
	}
	for _, pending := range t.inserted {
		if pending.ID == a.ID {
			return repository.ErrAgentExists
		}
	}

	c := a.Clone()
	c.Refresh()
	t.inserted = append(t.inserted, c)
	a.TrustScore = c.TrustScore
	return nil
}

func (t *memTx) SaveAgent(ctx context.Context, a *domain.Agent) error {
	a.Refresh()
	t.saved[a.ID] = a.Clone()
	return nil
}

func (t *memTx) InsertVerification(ctx context.Context, v *domain.Verification) error {
	t.verifications = append(t.verifications, *v)
	return nil
}

func (t *memTx) InsertReview(ctx context.Context, r *domain.Review) error {
	t.reviews = append(t.reviews, *r)
	return nil
}

func (t *memTx) HasReview(ctx context.Context, reviewerID, targetID string) (bool, error) {
	for _, rv := range t.reviews {
		if rv.ReviewerID == reviewerID && rv.TargetID == targetID {
			return true, nil
		}
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	for _, rv := range t.store.reviews {
		if rv.ReviewerID == reviewerID && rv.TargetID == targetID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range t.inserted {
		if _, exists := s.agents[a.ID]; exists {
			return repository.ErrAgentExists
		}
	}
	for _, a := range t.inserted {
		s.agents[a.ID] = a
	}
	for id, a := range t.saved {
		if existing, ok := s.agents[id]; ok {
			// moltbook karma is owned by an external feed.
			a.MoltbookKarma = existing.MoltbookKarma
			a.PublicKey = existing.PublicKey
			a.CreatedAt = existing.CreatedAt
			a.Refresh()
		}
		s.agents[id] = a
	}
	s.verifications = append(s.verifications, t.verifications...)
	s.reviews = append(s.reviews, t.reviews...)
	return nil
}

// SetKarma updates the externally sourced moltbook karma of an agent.
func (s *Store) SetKarma(id string, karma int) bool {
	s.lockAgent(id)
	defer s.unlockAgent(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return false
	}
	a.MoltbookKarma = karma
	a.Refresh()
	return true
}
