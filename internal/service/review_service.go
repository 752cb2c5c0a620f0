package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentkred/kred/internal/domain"
	"github.com/agentkred/kred/internal/repository"
)

var (
	ErrInsufficientReputation = errors.New("reviewer trust score is below the review threshold")
	ErrSelfReview             = errors.New("agents cannot review themselves")
	ErrInvalidReviewScore     = errors.New("review score out of range")
)

type ReviewService struct {
	publisher
	tx  repository.Transactor
	now func() time.Time
}

func NewReviewService(tx repository.Transactor) *ReviewService {
	return &ReviewService{tx: tx, now: time.Now}
}

type SubmitReviewInput struct {
	ReviewerID string `json:"reviewer_id"`
	TargetID   string `json:"target_id"`
	Score      int    `json:"score"`
	Comment    string `json:"comment"`
}

type ReviewResult struct {
	Review        *domain.Review
	Boost         int
	Reciprocal    bool
	NewTrustScore int
}

// Submit records a review and credits the target with a boost weighted by
// the reviewer's current trust score.
func (s *ReviewService) Submit(ctx context.Context, callerID string, input SubmitReviewInput) (*ReviewResult, error) {
	if callerID != input.ReviewerID {
		return nil, ErrAuthorizationMismatch
	}
	if input.ReviewerID == input.TargetID {
		return nil, ErrSelfReview
	}
	if input.Score < domain.MinReviewScore || input.Score > domain.MaxReviewScore {
		return nil, ErrInvalidReviewScore
	}

	var (
		result   ReviewResult
		reviewer *domain.Agent
		target   *domain.Agent
	)
	err := s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		agents, err := tx.LockAgents(ctx, input.ReviewerID, input.TargetID)
		if err != nil {
			return err
		}
		var ok bool
		if reviewer, ok = agents[input.ReviewerID]; !ok {
			return ErrAgentNotFound
		}
		if target, ok = agents[input.TargetID]; !ok {
			return ErrAgentNotFound
		}

		reviewerTrust := reviewer.Refresh()
		if reviewerTrust < domain.MinReviewerTrust {
			return ErrInsufficientReputation
		}

		reciprocal, err := tx.HasReview(ctx, input.TargetID, input.ReviewerID)
		if err != nil {
			return err
		}
		boost := domain.ReviewBoost(reviewerTrust, input.Score, reciprocal)

		now := s.now().UTC()
		review := &domain.Review{
			ID:           uuid.New(),
			ReviewerID:   input.ReviewerID,
			TargetID:     input.TargetID,
			Score:        input.Score,
			Comment:      input.Comment,
			CreatedAt:    now,
			ReviewerName: reviewer.Name,
		}
		if err := tx.InsertReview(ctx, review); err != nil {
			return err
		}

		target.ReviewScore += boost
		target.Refresh()
		if err := tx.SaveAgent(ctx, target); err != nil {
			return err
		}

		reviewer.LastActiveAt = now
		if err := tx.SaveAgent(ctx, reviewer); err != nil {
			return err
		}

		result = ReviewResult{
			Review:        review,
			Boost:         boost,
			Reciprocal:    reciprocal,
			NewTrustScore: target.TrustScore,
		}
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("submitting review: %w", err)
	}

	s.agentsChanged(ctx, target, reviewer)
	s.reviewCreated(result.Review)
	return &result, nil
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrAgentNotFound,
		ErrAuthorizationMismatch,
		ErrInsufficientReputation,
		ErrSelfReview,
		ErrInvalidReviewScore,
		ErrInvalidTxHash,
		ErrInvalidStakeAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
