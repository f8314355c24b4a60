package match

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const notifiedKeyPrefix = "match:notified:"

// RedisGuard is a Redis-backed already-notified check shared across
// instances. It is an optimization in front of the match store, not the
// source of truth: the store's unique constraint still enforces the
// at-most-once invariant.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGuard constructs a guard. A zero ttl keeps marks forever.
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl}
}

func guardKey(requestID, donorID uuid.UUID) string {
	return notifiedKeyPrefix + requestID.String() + ":" + donorID.String()
}

// Mark records that a donor was notified for a request. Uses SETNX so the
// first writer wins; returns true when this call set the mark.
func (g *RedisGuard) Mark(ctx context.Context, requestID, donorID uuid.UUID) (bool, error) {
	return g.client.SetNX(ctx, guardKey(requestID, donorID), "1", g.ttl).Result()
}

// IsMarked checks whether a donor was already notified for a request.
// Returns false when the key is absent or expired.
func (g *RedisGuard) IsMarked(ctx context.Context, requestID, donorID uuid.UUID) (bool, error) {
	_, err := g.client.Get(ctx, guardKey(requestID, donorID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes a mark. Used when a match insert fails after the guard was
// set, so a later retry is not wrongly suppressed.
func (g *RedisGuard) Clear(ctx context.Context, requestID, donorID uuid.UUID) error {
	return g.client.Del(ctx, guardKey(requestID, donorID)).Err()
}
