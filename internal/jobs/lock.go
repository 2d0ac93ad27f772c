package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"foundation-backend/internal/logger"
)

const lockPrefix = "fdn:job:"

// JobLock makes sure a job runs on one runner at a time.
type JobLock interface {
	// Acquire returns ok=false when another runner holds name.
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

type redisJobLock struct {
	locker *redislock.Client
}

func NewRedisJobLock(rdb redis.UniversalClient) JobLock {
	return &redisJobLock{locker: redislock.New(rdb)}
}

func (l *redisJobLock) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	lock, err := l.locker.Obtain(ctx, lockPrefix+name, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	release := func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Warn("Failed to release job lock", "job", name, "error", err)
		}
	}
	return release, true, nil
}
