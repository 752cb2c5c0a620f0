package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/agentkred/kred/internal/domain"
)

type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

func (r *ReviewRepo) ListByTarget(ctx context.Context, targetID string) ([]domain.Review, error) {
	query := `
		SELECT rv.id, rv.reviewer_id, rv.target_id, rv.score, rv.comment, rv.created_at, a.name
		FROM reviews rv
		JOIN agents a ON rv.reviewer_id = a.id
		WHERE rv.target_id = $1
		ORDER BY rv.created_at DESC`

	rows, err := r.pool.Query(ctx, query, targetID)
	if err != nil {
		return nil, errors.Wrap(err, "reviewRepo.ListByTarget.Query")
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID, &rv.ReviewerID, &rv.TargetID, &rv.Score, &rv.Comment, &rv.CreatedAt,
			&rv.ReviewerName,
		); err != nil {
			return nil, errors.Wrap(err, "reviewRepo.ListByTarget.Scan")
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

type VerificationRepo struct {
	pool *pgxpool.Pool
}

func NewVerificationRepo(pool *pgxpool.Pool) *VerificationRepo {
	return &VerificationRepo{pool: pool}
}

func (r *VerificationRepo) ListByAgent(ctx context.Context, agentID string) ([]domain.Verification, error) {
	query := `
		SELECT id, agent_id, platform, proof_url, is_verified, verified_at
		FROM verifications
		WHERE agent_id = $1
		ORDER BY verified_at DESC`

	rows, err := r.pool.Query(ctx, query, agentID)
	if err != nil {
		return nil, errors.Wrap(err, "verificationRepo.ListByAgent.Query")
	}
	defer rows.Close()

	var out []domain.Verification
	for rows.Next() {
		var v domain.Verification
		if err := rows.Scan(&v.ID, &v.AgentID, &v.Platform, &v.ProofURL, &v.IsVerified, &v.VerifiedAt); err != nil {
			return nil, errors.Wrap(err, "verificationRepo.ListByAgent.Scan")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
