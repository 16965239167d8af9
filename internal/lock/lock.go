// Package lock provides the single-flight guard that keeps overlapping
// triggers of the same named job from running concurrently. Acquisition
// is atomic at Redis and non-blocking: a second caller gets false
// immediately and must treat the run as a noop, not a failure.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "footysync:lock:"

// Lock is a Redis-backed named mutual-exclusion token. Every lock is
// taken with a lease so a holder that crashes without releasing
// self-clears when the lease expires.
type Lock struct {
	client *redis.Client
	lease  time.Duration
}

// New creates a lock manager. A non-positive lease defaults to 15
// minutes, comfortably above the longest expected run.
func New(client *redis.Client, lease time.Duration) *Lock {
	if lease <= 0 {
		lease = 15 * time.Minute
	}
	return &Lock{client: client, lease: lease}
}

// Acquire attempts to take the named lock. It returns true when this
// caller now holds it, false when another holder exists. An error means
// the lock could not even be asked for; callers must abort rather than
// proceed unprotected.
func (l *Lock) Acquire(ctx context.Context, name string) (bool, error) {
	ok, err := l.client.SetNX(ctx, keyPrefix+name, time.Now().UTC().Format(time.RFC3339), l.lease).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	return ok, nil
}

// Release frees the named lock. Release runs on every exit path of the
// holder; a failure here is logged but never escalated, since the lease
// clears the lock out of band.
func (l *Lock) Release(ctx context.Context, name string) {
	if err := l.client.Del(ctx, keyPrefix+name).Err(); err != nil {
		log.Error().Err(err).Str("lock", name).Msg("Failed to release lock")
	}
}
