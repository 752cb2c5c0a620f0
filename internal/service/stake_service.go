package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentkred/kred/internal/domain"
	"github.com/agentkred/kred/internal/repository"
)

var (
	ErrInvalidTxHash      = errors.New("invalid transaction hash")
	ErrInvalidStakeAmount = errors.New("stake amount must be a finite non-negative number")
)

type StakeService struct {
	publisher
	tx  repository.Transactor
	now func() time.Time
}

func NewStakeService(tx repository.Transactor) *StakeService {
	return &StakeService{tx: tx, now: time.Now}
}

type StakeInput struct {
	AgentID string  `json:"agent_id"`
	TxHash  string  `json:"tx_hash"`
	Amount  float64 `json:"amount"`
}

// Stake adds a claimed stake to the agent. The hash is not checked on chain.
func (s *StakeService) Stake(ctx context.Context, callerID string, input StakeInput) (*domain.Agent, error) {
	if callerID != input.AgentID {
		return nil, ErrAuthorizationMismatch
	}
	if !strings.HasPrefix(input.TxHash, "0x") {
		return nil, ErrInvalidTxHash
	}
	if math.IsNaN(input.Amount) || math.IsInf(input.Amount, 0) || input.Amount < 0 {
		return nil, ErrInvalidStakeAmount
	}

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

		total := decimal.NewFromFloat(agent.StakedAmount).Add(decimal.NewFromFloat(input.Amount))
		agent.StakedAmount = total.InexactFloat64()
		hash := input.TxHash
		agent.StakingTxHash = &hash
		agent.LastActiveAt = s.now().UTC()
		return tx.SaveAgent(ctx, agent)
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("recording stake: %w", err)
	}

	s.agentsChanged(ctx, agent)
	return agent, nil
}
