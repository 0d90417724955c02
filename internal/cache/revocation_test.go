package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisRevocationStore_EpochDefaultsToZero(t *testing.T) {
	_, client := setupRedis(t)
	store := NewRedisRevocationStore(client, time.Hour)

	epoch, err := store.Epoch(context.Background(), "fan-1", "content-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), epoch)
}

func TestRedisRevocationStore_RevokeIncrementsPerPair(t *testing.T) {
	_, client := setupRedis(t)
	store := NewRedisRevocationStore(client, time.Hour)
	ctx := context.Background()

	epoch, err := store.Revoke(ctx, "fan-1", "content-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), epoch)

	epoch, err = store.Revoke(ctx, "fan-1", "content-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), epoch)

	current, err := store.Epoch(ctx, "fan-1", "content-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), current)

	other, err := store.Epoch(ctx, "fan-1", "content-2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), other)
}

func TestRedisRevocationStore_KeyExpiresWithTokenTTL(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisRevocationStore(client, 10*time.Minute)
	ctx := context.Background()

	_, err := store.Revoke(ctx, "fan-1", "content-1")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, mr.TTL(epochKey("fan-1", "content-1")))

	mr.FastForward(11 * time.Minute)

	epoch, err := store.Epoch(ctx, "fan-1", "content-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), epoch)
}

func TestRedisRevocationStore_ReadExtendsExpiry(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisRevocationStore(client, 10*time.Minute)
	ctx := context.Background()

	_, err := store.Revoke(ctx, "fan-1", "content-1")
	require.NoError(t, err)

	// A token minted here records epoch 1 and lives another ten minutes.
	mr.FastForward(8 * time.Minute)
	epoch, err := store.Epoch(ctx, "fan-1", "content-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), epoch)

	mr.FastForward(8 * time.Minute)
	epoch, err = store.Revoke(ctx, "fan-1", "content-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), epoch)
}

func TestRedisRevocationStore_ErrorsWhenRedisDown(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisRevocationStore(client, time.Hour)
	mr.Close()

	_, err := store.Epoch(context.Background(), "fan-1", "content-1")
	assert.Error(t, err)

	_, err = store.Revoke(context.Background(), "fan-1", "content-1")
	assert.Error(t, err)
}
