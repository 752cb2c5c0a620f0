package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID         uuid.UUID `json:"id"`
	ReviewerID string    `json:"reviewer_id"`
	TargetID   string    `json:"target_id"`
	Score      int       `json:"score"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
	// Joined fields
	ReviewerName string `json:"reviewer_name,omitempty"`
}

type Verification struct {
	ID         uuid.UUID `json:"id"`
	AgentID    string    `json:"agent_id"`
	Platform   string    `json:"platform"`
	ProofURL   string    `json:"proof_url"`
	IsVerified bool      `json:"is_verified"`
	VerifiedAt time.Time `json:"verified_at"`
}

const (
	MinReviewScore      = 1
	MaxReviewScore      = 5
	MinReviewerTrust    = 50
	ReviewWeight        = 0.1
	ReciprocityDiscount = 0.5
)

// ReviewBoost is what a review adds to the target's review score. A review
// answering one the target already left for the reviewer counts half.
func ReviewBoost(reviewerTrust, score int, reciprocal bool) int {
	factor := 1.0
	if reciprocal {
		factor = ReciprocityDiscount
	}
	return int(math.Floor(float64(reviewerTrust) * ReviewWeight * float64(score) * factor))
}
