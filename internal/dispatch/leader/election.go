// Package leader elects a single poll loop across replicas with a
// redis lease. Followers keep trying; the lease expiring on its own
// covers a leader that died without releasing.
package leader

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/redis"
)

type Election struct {
	redis    *redis.Client
	key      string
	id       string
	ttl      time.Duration
	isLeader atomic.Bool
	log      zerolog.Logger
}

func NewElection(rdb *redis.Client, key string, ttl time.Duration, log zerolog.Logger) *Election {
	return &Election{
		redis: rdb,
		key:   key,
		id:    uuid.NewString(),
		ttl:   ttl,
		log:   log,
	}
}

func (e *Election) IsLeader() bool {
	return e.isLeader.Load()
}

// Run keeps the election loop alive until the context ends: acquire or
// extend at half-TTL cadence, demote on a failed extend.
func (e *Election) Run(ctx context.Context) {
	ticker := time.NewTicker(e.ttl / 2)
	defer ticker.Stop()

	e.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			e.resign()
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *Election) tick(ctx context.Context) {
	if e.isLeader.Load() {
		extended, err := e.redis.ExtendLock(ctx, e.key, e.id, e.ttl)
		if err != nil || !extended {
			e.isLeader.Store(false)
			e.log.Warn().Err(err).Msg("leadership lost")
		}
		return
	}

	acquired, err := e.redis.AcquireLock(ctx, e.key, e.id, e.ttl)
	if err != nil {
		e.log.Error().Err(err).Msg("leader acquire failed")
		return
	}
	if acquired {
		e.isLeader.Store(true)
		e.log.Info().Str("instance", e.id).Msg("leadership acquired")
	}
}

func (e *Election) resign() {
	if !e.isLeader.Load() {
		return
	}
	e.isLeader.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.redis.ReleaseLock(ctx, e.key, e.id); err != nil {
		e.log.Warn().Err(err).Msg("leader release failed")
	}
}
