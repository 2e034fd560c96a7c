package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotObtained is returned when another holder owns the key.
var ErrLockNotObtained = errors.New("cache: lock not obtained")

// Locker hands out short-lived distributed locks backed by Redis.
type Locker struct {
	client *redislock.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewLocker builds a Locker. A nil Redis client yields a no-op locker.
func NewLocker(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	l := &Locker{ttl: ttl, logger: logger}
	if rdb != nil {
		l.client = redislock.New(rdb)
	}
	return l
}

// Obtain acquires key and returns a release func. Callers must invoke release.
func (l *Locker) Obtain(ctx context.Context, key string) (func(), error) {
	if l == nil || l.client == nil {
		return func() {}, nil
	}
	lock, err := l.client.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("release lock", slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}
