package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/agentkred/kred/internal/domain"
)

const agentColumns = `id, name, public_key, bio, tags, social_links, trust_score,
	verification_score, review_score, moltbook_karma, staked_amount, staking_tx_hash,
	last_active_at, created_at`

var leaderboardOrder = map[domain.LeaderboardSort]string{
	domain.SortTrustScore:   "trust_score DESC",
	domain.SortStakedAmount: "staked_amount DESC",
	domain.SortReviewScore:  "review_score DESC",
	domain.SortActive:       "last_active_at DESC",
}

type AgentRepo struct {
	pool *pgxpool.Pool
}

func NewAgentRepo(pool *pgxpool.Pool) *AgentRepo {
	return &AgentRepo{pool: pool}
}

func (r *AgentRepo) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	a, err := scanAgent(r.pool.QueryRow(ctx, "SELECT "+agentColumns+" FROM agents WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "agentRepo.GetByID.Scan")
	}
	a.Refresh()
	return a, nil
}

func (r *AgentRepo) ListTop(ctx context.Context, sortBy domain.LeaderboardSort, limit int) ([]domain.Agent, error) {
	order, ok := leaderboardOrder[sortBy]
	if !ok {
		order = leaderboardOrder[domain.SortTrustScore]
	}
	query := fmt.Sprintf("SELECT %s FROM agents ORDER BY %s, id LIMIT $1", agentColumns, order)

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "agentRepo.ListTop.Query")
	}
	defer rows.Close()

	var agents []domain.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "agentRepo.ListTop.Scan")
		}
		a.Refresh()
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

func scanAgent(row pgx.Row) (*domain.Agent, error) {
	var a domain.Agent
	err := row.Scan(
		&a.ID, &a.Name, &a.PublicKey, &a.Bio, &a.Tags, &a.SocialLinks, &a.TrustScore,
		&a.VerificationScore, &a.ReviewScore, &a.MoltbookKarma, &a.StakedAmount, &a.StakingTxHash,
		&a.LastActiveAt, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
