package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const epochKeyPrefix = "access:epoch:"

// RedisRevocationStore keeps a revocation epoch per (user, content) pair.
// Tokens minted before the latest revocation carry a lower epoch and are
// rejected. Every read pushes the key's expiry one token TTL out, so a key
// outlives each token that recorded its epoch and the counter never
// restarts below an epoch still in circulation.
type RedisRevocationStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRevocationStore creates the store. ttl should equal the access
// token TTL.
func NewRedisRevocationStore(client *redis.Client, ttl time.Duration) *RedisRevocationStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisRevocationStore{client: client, ttl: ttl}
}

func epochKey(userID, contentID string) string {
	return epochKeyPrefix + userID + ":" + contentID
}

// Epoch returns the current epoch, zero when nothing was revoked.
func (s *RedisRevocationStore) Epoch(ctx context.Context, userID, contentID string) (int64, error) {
	n, err := s.client.GetEx(ctx, epochKey(userID, contentID), s.ttl).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read revocation epoch: %w", err)
	}
	return n, nil
}

// Revoke bumps the epoch, invalidating every token issued so far for the
// pair, and returns the new epoch.
func (s *RedisRevocationStore) Revoke(ctx context.Context, userID, contentID string) (int64, error) {
	key := epochKey(userID, contentID)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return incr.Val(), nil
}
