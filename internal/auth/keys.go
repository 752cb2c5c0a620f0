package auth

import (
	"context"

	"github.com/agentkred/kred/internal/repository"
)

type agentKeys struct {
	agents repository.AgentRepository
}

// KeysFromAgents resolves public keys from the agent store.
func KeysFromAgents(agents repository.AgentRepository) KeyResolver {
	return agentKeys{agents: agents}
}

func (k agentKeys) PublicKey(ctx context.Context, agentID string) (string, error) {
	a, err := k.agents.GetByID(ctx, agentID)
	if err != nil || a == nil {
		return "", err
	}
	return a.PublicKey, nil
}
