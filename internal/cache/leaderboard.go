// Package cache keeps rendered leaderboard pages in Redis. Pages are keyed
// by a generation counter; invalidation bumps the counter and lets old pages
// expire on their own.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mborders/logmatic"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/agentkred/kred/internal/domain"
)

const (
	keyPrefix     = "kred:leaderboard"
	generationKey = keyPrefix + ":gen"
	DefaultTTL    = 30 * time.Second
)

// Open connects to the Redis instance at url and checks it answers.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "cache.Open.ParseURL")
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrap(err, "cache.Open.Ping")
	}
	return rdb, nil
}

// Leaderboard implements service.LeaderboardCache. Redis failures degrade to
// cache misses.
type Leaderboard struct {
	rdb redis.Cmdable
	ttl time.Duration
	log *logmatic.Logger
}

func NewLeaderboard(rdb redis.Cmdable, ttl time.Duration, log *logmatic.Logger) *Leaderboard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Leaderboard{rdb: rdb, ttl: ttl, log: log}
}

func pageKey(gen int64, sortBy domain.LeaderboardSort, limit int) string {
	return fmt.Sprintf("%s:%d:%s:%d", keyPrefix, gen, sortBy, limit)
}

func (l *Leaderboard) generation(ctx context.Context) (int64, error) {
	gen, err := l.rdb.Get(ctx, generationKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// Get returns the page for the current generation. The generation is -1
// when it could not be read.
func (l *Leaderboard) Get(ctx context.Context, sortBy domain.LeaderboardSort, limit int) ([]domain.Agent, int64, bool) {
	gen, err := l.generation(ctx)
	if err != nil {
		l.log.Warn("cache: reading generation: %v", err)
		return nil, -1, false
	}

	raw, err := l.rdb.Get(ctx, pageKey(gen, sortBy, limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			l.log.Warn("cache: reading leaderboard page: %v", err)
		}
		return nil, gen, false
	}

	var agents []domain.Agent
	if err := json.Unmarshal(raw, &agents); err != nil {
		l.log.Warn("cache: decoding leaderboard page: %v", err)
		return nil, gen, false
	}
	return agents, gen, true
}

// Set stores a page under the generation its miss was read at.
func (l *Leaderboard) Set(ctx context.Context, gen int64, sortBy domain.LeaderboardSort, limit int, agents []domain.Agent) {
	if gen < 0 {
		return
	}

	raw, err := json.Marshal(agents)
	if err != nil {
		l.log.Error("cache: encoding leaderboard page: %v", err)
		return
	}
	if err := l.rdb.Set(ctx, pageKey(gen, sortBy, limit), raw, l.ttl).Err(); err != nil {
		l.log.Warn("cache: writing leaderboard page: %v", err)
	}
}

func (l *Leaderboard) Invalidate(ctx context.Context) {
	if err := l.rdb.Incr(ctx, generationKey).Err(); err != nil {
		l.log.Warn("cache: bumping generation: %v", err)
	}
}
