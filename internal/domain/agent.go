package domain

import (
	"math"
	"time"
)

const (
	BaseTrustScore = 10
	MaxStakePoints = 1000
	KarmaWeight    = 0.5
)

type Agent struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	PublicKey         string    `json:"public_key"`
	Bio               *string   `json:"bio"`
	Tags              *string   `json:"tags"`
	SocialLinks       *string   `json:"social_links"`
	TrustScore        int       `json:"trust_score"`
	VerificationScore int       `json:"verification_score"`
	ReviewScore       int       `json:"review_score"`
	MoltbookKarma     int       `json:"moltbook_karma"`
	StakedAmount      float64   `json:"staked_amount"`
	StakingTxHash     *string   `json:"staking_tx_hash,omitempty"`
	LastActiveAt      time.Time `json:"last_active_at"`
	CreatedAt         time.Time `json:"created_at"`
}

// ComputeTrustScore derives the trust score from an agent's counters.
// It is pure: the same counters always produce the same score.
func ComputeTrustScore(verificationScore, reviewScore, moltbookKarma int, stakedAmount float64) int {
	karmaPoints := int(math.Floor(float64(moltbookKarma) * KarmaWeight))

	stakePoints := MaxStakePoints
	if floored := math.Floor(stakedAmount); floored < MaxStakePoints {
		stakePoints = int(floored)
	}

	return BaseTrustScore + verificationScore + reviewScore + karmaPoints + stakePoints
}

// Refresh recomputes TrustScore from the counters and returns it.
func (a *Agent) Refresh() int {
	a.TrustScore = ComputeTrustScore(a.VerificationScore, a.ReviewScore, a.MoltbookKarma, a.StakedAmount)
	return a.TrustScore
}

// Clone returns a deep copy, so staged writes never alias stored rows.
func (a *Agent) Clone() *Agent {
	c := *a
	c.Bio = cloneString(a.Bio)
	c.Tags = cloneString(a.Tags)
	c.SocialLinks = cloneString(a.SocialLinks)
	c.StakingTxHash = cloneString(a.StakingTxHash)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// LeaderboardSort is the column the leaderboard orders by.
type LeaderboardSort string

const (
	SortTrustScore   LeaderboardSort = "trust_score"
	SortStakedAmount LeaderboardSort = "staked_amount"
	SortReviewScore  LeaderboardSort = "review_score"
	SortActive       LeaderboardSort = "active"
)

// ParseLeaderboardSort falls back to trust score for unknown values.
func ParseLeaderboardSort(s string) LeaderboardSort {
	switch LeaderboardSort(s) {
	case SortStakedAmount, SortReviewScore, SortActive:
		return LeaderboardSort(s)
	default:
		return SortTrustScore
	}
}
