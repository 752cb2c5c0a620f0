package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agentkred/kred/internal/domain"
	"github.com/agentkred/kred/internal/repository"
)

const (
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 100
)

var (
	ErrAgentExists           = errors.New("agent already exists")
	ErrAgentNotFound         = errors.New("agent not found")
	ErrAuthorizationMismatch = errors.New("authenticated agent does not match request subject")
)

type AgentService struct {
	publisher
	tx            repository.Transactor
	agents        repository.AgentRepository
	reviews       repository.ReviewRepository
	verifications repository.VerificationRepository
	now           func() time.Time
}

func NewAgentService(
	tx repository.Transactor,
	agents repository.AgentRepository,
	reviews repository.ReviewRepository,
	verifications repository.VerificationRepository,
) *AgentService {
	return &AgentService{
		tx:            tx,
		agents:        agents,
		reviews:       reviews,
		verifications: verifications,
		now:           time.Now,
	}
}

type RegisterInput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PublicKey string `json:"public_key"`
}

type UpdateProfileInput struct {
	Name        string            `json:"name,omitempty"`
	Bio         string            `json:"bio,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
}

// Register creates an agent bound to the public key that signed the request.
func (s *AgentService) Register(ctx context.Context, callerID string, input RegisterInput) (*domain.Agent, error) {
	if callerID != input.ID {
		return nil, ErrAuthorizationMismatch
	}

	now := s.now().UTC()
	agent := &domain.Agent{
		ID:           input.ID,
		Name:         input.Name,
		PublicKey:    strings.ToLower(input.PublicKey),
		LastActiveAt: now,
		CreatedAt:    now,
	}
	agent.Refresh()

	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.InsertAgent(ctx, agent)
	})
	if errors.Is(err, repository.ErrAgentExists) {
		return nil, ErrAgentExists
	}
	if err != nil {
		return nil, fmt.Errorf("creating agent: %w", err)
	}

	s.agentsChanged(ctx, agent)
	return agent, nil
}

// UpdateProfile changes only the fields that are present and non-empty.
func (s *AgentService) UpdateProfile(ctx context.Context, callerID string, input UpdateProfileInput) (*domain.Agent, error) {
	var socialLinks *string
	if len(input.SocialLinks) > 0 {
		raw, err := json.Marshal(input.SocialLinks)
		if err != nil {
			return nil, fmt.Errorf("encoding social links: %w", err)
		}
		encoded := string(raw)
		socialLinks = &encoded
	}

	var updated *domain.Agent
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		agents, err := tx.LockAgents(ctx, callerID)
		if err != nil {
			return err
		}
		agent, ok := agents[callerID]
		if !ok {
			return ErrAgentNotFound
		}

		if input.Name != "" {
			agent.Name = input.Name
		}
		if input.Bio != "" {
			bio := input.Bio
			agent.Bio = &bio
		}
		if len(input.Tags) > 0 {
			tags := strings.Join(input.Tags, ",")
			agent.Tags = &tags
		}
		if socialLinks != nil {
			agent.SocialLinks = socialLinks
		}
		agent.LastActiveAt = s.now().UTC()

		if err := tx.SaveAgent(ctx, agent); err != nil {
			return err
		}
		updated = agent
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.agentsChanged(ctx, updated)
	return updated, nil
}

func (s *AgentService) Get(ctx context.Context, id string) (*domain.Agent, error) {
	agent, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, ErrAgentNotFound
	}
	agent.Refresh()
	return agent, nil
}

// ListTop returns the leaderboard. Unknown sort keys fall back to trust
// score and limit is clamped to [1, MaxLeaderboardLimit].
func (s *AgentService) ListTop(ctx context.Context, sortBy string, limit int) ([]domain.Agent, error) {
	sort := domain.ParseLeaderboardSort(sortBy)
	switch {
	case limit <= 0:
		limit = DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		limit = MaxLeaderboardLimit
	}

	var generation int64 = -1
	if s.cache != nil {
		agents, gen, ok := s.cache.Get(ctx, sort, limit)
		if ok {
			return agents, nil
		}
		generation = gen
	}

	agents, err := s.agents.ListTop(ctx, sort, limit)
	if err != nil {
		return nil, err
	}
	if agents == nil {
		agents = []domain.Agent{}
	}
	for i := range agents {
		agents[i].Refresh()
	}

	if s.cache != nil && generation >= 0 {
		s.cache.Set(ctx, generation, sort, limit, agents)
	}
	return agents, nil
}

// ListReviews returns the reviews an agent received, newest first.
func (s *AgentService) ListReviews(ctx context.Context, id string) ([]domain.Review, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return reviews, nil
}

// ListVerifications returns an agent's successful platform proofs, newest first.
func (s *AgentService) ListVerifications(ctx context.Context, id string) ([]domain.Verification, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	verifications, err := s.verifications.ListByAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	if verifications == nil {
		verifications = []domain.Verification{}
	}
	return verifications, nil
}
