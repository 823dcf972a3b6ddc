package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRevocationStore(t *testing.T) (*RevocationStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewRevocationStore(client), mr
}

func TestRevocationStore_RevokeAndCheck(t *testing.T) {
	store, mr := setupRevocationStore(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "tok-a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "tok-a", time.Minute))

	revoked, err = store.IsRevoked(ctx, "tok-a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "tok-b")
	require.NoError(t, err)
	assert.False(t, revoked, "other tokens are unaffected")

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.NotContains(t, keys[0], "tok-a", "raw tokens must not be stored as keys")
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))
}

func TestRevocationStore_ExpiresWithToken(t *testing.T) {
	store, mr := setupRevocationStore(t)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "tok", 30*time.Second))
	mr.FastForward(31 * time.Second)

	revoked, err := store.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationStore_IgnoresNonPositiveTTL(t *testing.T) {
	store, mr := setupRevocationStore(t)

	require.NoError(t, store.Revoke(context.Background(), "tok", 0))
	assert.Empty(t, mr.Keys())
}

func TestRevocationStore_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRevocationStore(client)
	mr.Close()

	_, err := store.IsRevoked(context.Background(), "tok")
	assert.Error(t, err)
	assert.Error(t, store.Revoke(context.Background(), "tok", time.Minute))
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), Config{Addr: addr, Timeout: 200 * time.Millisecond})
	assert.Error(t, err)
}
