package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentkred/kred/internal/domain"
	"github.com/agentkred/kred/internal/proof"
	"github.com/agentkred/kred/internal/repository"
)

// ProofValidator checks a published ownership marker.
type ProofValidator interface {
	Validate(ctx context.Context, platform, proofURL, agentID string) proof.Result
}

type VerificationService struct {
	publisher
	tx        repository.Transactor
	validator ProofValidator
	now       func() time.Time
}

func NewVerificationService(tx repository.Transactor, validator ProofValidator) *VerificationService {
	return &VerificationService{tx: tx, validator: validator, now: time.Now}
}

type VerifyInput struct {
	AgentID  string `json:"agent_id"`
	Platform string `json:"platform"`
	ProofURL string `json:"proof_url"`
}

type VerifyResult struct {
	Verified      bool
	Platform      string
	ScoreAdded    int
	NewTrustScore int
}

// Verify fetches the proof first and only then opens a short transaction to
// record a successful verification.
func (s *VerificationService) Verify(ctx context.Context, callerID string, input VerifyInput) (*VerifyResult, error) {
	if callerID != input.AgentID {
		return nil, ErrAuthorizationMismatch
	}

	check := s.validator.Validate(ctx, input.Platform, input.ProofURL, input.AgentID)

	var agent *domain.Agent
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		agents, err := tx.LockAgents(ctx, input.AgentID)
		if err != nil {
			return err
		}
		var ok bool
		if agent, ok = agents[input.AgentID]; !ok {
			return ErrAgentNotFound
		}
		if !check.Verified {
			agent.Refresh()
			return nil
		}

		now := s.now().UTC()
		v := &domain.Verification{
			ID:         uuid.New(),
			AgentID:    input.AgentID,
			Platform:   check.Platform,
			ProofURL:   input.ProofURL,
			IsVerified: true,
			VerifiedAt: now,
		}
		if err := tx.InsertVerification(ctx, v); err != nil {
			return err
		}

		agent.VerificationScore += check.Boost
		agent.LastActiveAt = now
		return tx.SaveAgent(ctx, agent)
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("recording verification: %w", err)
	}

	result := &VerifyResult{
		Verified:      check.Verified,
		Platform:      check.Platform,
		NewTrustScore: agent.TrustScore,
	}
	if check.Verified {
		result.ScoreAdded = check.Boost
		s.agentsChanged(ctx, agent)
	}
	return result, nil
}
