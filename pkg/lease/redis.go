// Package lease provides a Redis-backed per-offer lease so that only one
// escalation pass works on a given job at a time.
package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dispatch:escalation-lease:"

// RedisLease implements db.EscalationLease with SET NX and a TTL. The TTL
// bounds how long a crashed pass can block later ones.
type RedisLease struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLease wraps an existing Redis client. ttl should comfortably
// exceed the duration of one escalation dispatch.
func NewRedisLease(client *redis.Client, ttl time.Duration) *RedisLease {
	return &RedisLease{client: client, ttl: ttl}
}

// Acquire attempts to take the lease for offerID. It returns false when
// another pass currently holds it.
func (l *RedisLease) Acquire(ctx context.Context, offerID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, keyPrefix+offerID, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire escalation lease: %w", err)
	}
	return ok, nil
}

// Release frees the lease for offerID.
func (l *RedisLease) Release(ctx context.Context, offerID string) error {
	if err := l.client.Del(ctx, keyPrefix+offerID).Err(); err != nil {
		return fmt.Errorf("failed to release escalation lease: %w", err)
	}
	return nil
}
