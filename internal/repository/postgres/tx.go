package postgres

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/agentkred/kred/internal/domain"
	"github.com/agentkred/kred/internal/repository"
)

const uniqueViolation = "23505"

// Transactor runs read-modify-write sequences inside a Postgres transaction.
// Rows are locked with SELECT ... FOR UPDATE in id order.
type Transactor struct {
	pool *pgxpool.Pool
}

func NewTransactor(pool *pgxpool.Pool) *Transactor {
	return &Transactor{pool: pool}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "transactor.Begin")
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "transactor.Commit")
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockAgents(ctx context.Context, ids ...string) (map[string]*domain.Agent, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	rows, err := t.tx.Query(ctx,
		"SELECT "+agentColumns+" FROM agents WHERE id = ANY($1) ORDER BY id FOR UPDATE", sorted)
	if err != nil {
		return nil, errors.Wrap(err, "tx.LockAgents.Query")
	}
	defer rows.Close()

	agents := make(map[string]*domain.Agent, len(ids))
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "tx.LockAgents.Scan")
		}
		a.Refresh()
		agents[a.ID] = a
	}
	return agents, rows.Err()
}

func (t *pgTx) InsertAgent(ctx context.Context, a *domain.Agent) error {
	a.Refresh()
	query := `
		INSERT INTO agents (` + agentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := t.tx.Exec(ctx, query,
		a.ID, a.Name, a.PublicKey, a.Bio, a.Tags, a.SocialLinks, a.TrustScore,
		a.VerificationScore, a.ReviewScore, a.MoltbookKarma, a.StakedAmount, a.StakingTxHash,
		a.LastActiveAt, a.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrAgentExists
	}
	return errors.Wrap(err, "tx.InsertAgent.Exec")
}

func (t *pgTx) SaveAgent(ctx context.Context, a *domain.Agent) error {
	a.Refresh()
	query := `
		UPDATE agents SET
			name = $1, bio = $2, tags = $3, social_links = $4, trust_score = $5,
			verification_score = $6, review_score = $7, staked_amount = $8,
			staking_tx_hash = $9, last_active_at = $10
		WHERE id = $11`

	_, err := t.tx.Exec(ctx, query,
		a.Name, a.Bio, a.Tags, a.SocialLinks, a.TrustScore,
		a.VerificationScore, a.ReviewScore, a.StakedAmount,
		a.StakingTxHash, a.LastActiveAt, a.ID,
	)
	return errors.Wrap(err, "tx.SaveAgent.Exec")
}

func (t *pgTx) InsertVerification(ctx context.Context, v *domain.Verification) error {
	query := `
		INSERT INTO verifications (id, agent_id, platform, proof_url, is_verified, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := t.tx.Exec(ctx, query, v.ID, v.AgentID, v.Platform, v.ProofURL, v.IsVerified, v.VerifiedAt)
	return errors.Wrap(err, "tx.InsertVerification.Exec")
}

func (t *pgTx) InsertReview(ctx context.Context, r *domain.Review) error {
	query := `
		INSERT INTO reviews (id, reviewer_id, target_id, score, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := t.tx.Exec(ctx, query, r.ID, r.ReviewerID, r.TargetID, r.Score, r.Comment, r.CreatedAt)
	return errors.Wrap(err, "tx.InsertReview.Exec")
}

func (t *pgTx) HasReview(ctx context.Context, reviewerID, targetID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE reviewer_id = $1 AND target_id = $2)`,
		reviewerID, targetID,
	).Scan(&exists)
	return exists, errors.Wrap(err, "tx.HasReview.Scan")
}
