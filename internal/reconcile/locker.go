package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"voice-receptionist/pkg/utils"
)

// Locker serializes work on one external call across instances.
type Locker interface {
	Lock(ctx context.Context, externalCallID string) (unlock func(), err error)
}

// NopLocker relies on the store alone (unique constraints + row locks).
type NopLocker struct{}

func (NopLocker) Lock(ctx context.Context, externalCallID string) (func(), error) {
	return func() {}, nil
}

// RedisLocker takes a short-lived per-call lock in Redis. If the lock is
// held it retries until Wait elapses.
type RedisLocker struct {
	rdb    *redis.Client
	TTL    time.Duration
	Wait   time.Duration
	Prefix string
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{
		rdb:    rdb,
		TTL:    15 * time.Second,
		Wait:   3 * time.Second,
		Prefix: "call-lock:",
	}
}

const lockRetryInterval = 50 * time.Millisecond

func (l *RedisLocker) Lock(ctx context.Context, externalCallID string) (func(), error) {
	key := l.Prefix + externalCallID
	deadline := time.Now().Add(l.Wait)

	for {
		token, err := utils.AcquireLock(ctx, l.rdb, key, l.TTL)
		if err == nil {
			return func() {
				// The request context may already be done; release on a fresh one.
				rctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = utils.ReleaseLock(rctx, l.rdb, key, token)
			}, nil
		}
		if !errors.Is(err, utils.ErrLockHeld) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, err
		}

		t := time.NewTimer(lockRetryInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
