package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentkred/kred/internal/domain"
	"github.com/agentkred/kred/internal/repository"
)

func seed(t *testing.T, s *Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		err := s.WithinTx(context.Background(), func(tx repository.Tx) error {
			return tx.InsertAgent(context.Background(), &domain.Agent{
				ID: id, Name: "name-" + id, PublicKey: "00", CreatedAt: time.Now(), LastActiveAt: time.Now(),
			})
		})
		require.NoError(t, err)
	}
}

func TestInsertAgentRejectsDuplicate(t *testing.T) {
	s := New()
	seed(t, s, "alpha")

	err := s.WithinTx(context.Background(), func(tx repository.Tx) error {
		return tx.InsertAgent(context.Background(), &domain.Agent{ID: "alpha"})
	})
	assert.ErrorIs(t, err, repository.ErrAgentExists)

	a, err := s.GetByID(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, "name-alpha", a.Name)
	assert.Equal(t, domain.BaseTrustScore, a.TrustScore)
}

func TestFailedTxDiscardsWrites(t *testing.T) {
	s := New()
	seed(t, s, "alpha")
	boom := errors.New("boom")

	err := s.WithinTx(context.Background(), func(tx repository.Tx) error {
		agents, err := tx.LockAgents(context.Background(), "alpha")
		if err != nil {
			return err
		}
		a := agents["alpha"]
		a.VerificationScore += 50
		if err := tx.SaveAgent(context.Background(), a); err != nil {
			return err
		}
		if err := tx.InsertReview(context.Background(), &domain.Review{ID: uuid.New(), ReviewerID: "x", TargetID: "alpha"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	a, err := s.GetByID(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, 0, a.VerificationScore)

	reviews, err := s.ListByTarget(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestConcurrentIncrementsAreNotLost(t *testing.T) {
	s := New()
	seed(t, s, "alpha", "beta")

	const workers = 64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Alternate lock order to make sure sorted locking avoids deadlocks.
			ids := []string{"alpha", "beta"}
			if i%2 == 1 {
				ids = []string{"beta", "alpha"}
			}
			err := s.WithinTx(context.Background(), func(tx repository.Tx) error {
				agents, err := tx.LockAgents(context.Background(), ids...)
				if err != nil {
					return err
				}
				for _, a := range agents {
					a.ReviewScore++
					if err := tx.SaveAgent(context.Background(), a); err != nil {
						return err
					}
				}
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for _, id := range []string{"alpha", "beta"} {
		a, err := s.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, workers, a.ReviewScore)
		assert.Equal(t, domain.BaseTrustScore+workers, a.TrustScore)
	}
	assert.Zero(t, s.lockCount())
}

func TestLockAgentsSkipsMissing(t *testing.T) {
	s := New()
	seed(t, s, "alpha")

	err := s.WithinTx(context.Background(), func(tx repository.Tx) error {
		agents, err := tx.LockAgents(context.Background(), "alpha", "ghost")
		require.NoError(t, err)
		assert.Len(t, agents, 1)
		assert.Contains(t, agents, "alpha")
		return nil
	})
	require.NoError(t, err)
}

func TestLocksAreDroppedAfterTx(t *testing.T) {
	s := New()
	seed(t, s, "alpha")

	for i := 0; i < 100; i++ {
		err := s.WithinTx(context.Background(), func(tx repository.Tx) error {
			_, err := tx.LockAgents(context.Background(), "alpha", uuid.NewString())
			require.NoError(t, err)
			assert.Equal(t, 2, s.lockCount())
			return errors.New("rollback")
		})
		require.Error(t, err)
	}
	assert.Zero(t, s.lockCount())

	assert.False(t, s.SetKarma("ghost", 5))
	assert.Zero(t, s.lockCount())
}

func TestHasReviewSeesPendingAndCommitted(t *testing.T) {
	s := New()
	seed(t, s, "alpha", "beta")
	ctx := context.Background()

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		ok, err := tx.HasReview(ctx, "alpha", "beta")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, tx.InsertReview(ctx, &domain.Review{ID: uuid.New(), ReviewerID: "alpha", TargetID: "beta", CreatedAt: time.Now()}))

		ok, err = tx.HasReview(ctx, "alpha", "beta")
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx repository.Tx) error {
		ok, err := tx.HasReview(ctx, "alpha", "beta")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tx.HasReview(ctx, "beta", "alpha")
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestListingsAreNewestFirst(t *testing.T) {
	s := New()
	seed(t, s, "alpha", "beta", "gamma")
	ctx := context.Background()

	for _, reviewer := range []string{"beta", "gamma"} {
		err := s.WithinTx(ctx, func(tx repository.Tx) error {
			return tx.InsertReview(ctx, &domain.Review{ID: uuid.New(), ReviewerID: reviewer, TargetID: "alpha", Score: 3, CreatedAt: time.Now()})
		})
		require.NoError(t, err)
	}

	reviews, err := s.ListByTarget(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "gamma", reviews[0].ReviewerID)
	assert.Equal(t, "name-gamma", reviews[0].ReviewerName)
	assert.Equal(t, "beta", reviews[1].ReviewerID)
}

func TestListTopOrdering(t *testing.T) {
	s := New()
	seed(t, s, "alpha", "beta", "gamma")
	ctx := context.Background()

	bump := func(id string, fn func(a *domain.Agent)) {
		err := s.WithinTx(ctx, func(tx repository.Tx) error {
			agents, err := tx.LockAgents(ctx, id)
			if err != nil {
				return err
			}
			fn(agents[id])
			return tx.SaveAgent(ctx, agents[id])
		})
		require.NoError(t, err)
	}
	bump("beta", func(a *domain.Agent) { a.VerificationScore = 50 })
	bump("gamma", func(a *domain.Agent) { a.StakedAmount = 500 })
	bump("alpha", func(a *domain.Agent) { a.ReviewScore = 5 })

	top, err := s.ListTop(ctx, domain.SortTrustScore, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "gamma", top[0].ID)
	assert.Equal(t, "beta", top[1].ID)

	top, err = s.ListTop(ctx, domain.SortReviewScore, 10)
	require.NoError(t, err)
	assert.Equal(t, "alpha", top[0].ID)

	top, err = s.ListTop(ctx, domain.SortStakedAmount, 10)
	require.NoError(t, err)
	assert.Equal(t, "gamma", top[0].ID)
}

func TestSetKarmaFeedsScore(t *testing.T) {
	s := New()
	seed(t, s, "alpha")

	assert.True(t, s.SetKarma("alpha", 21))
	assert.False(t, s.SetKarma("ghost", 1))

	a, err := s.GetByID(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, 21, a.MoltbookKarma)
	assert.Equal(t, domain.BaseTrustScore+10, a.TrustScore)
}
