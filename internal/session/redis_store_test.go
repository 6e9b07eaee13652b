package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm-gateway/internal/identity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ""), mr
}

func TestRedisStorePutGetDelete(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	rec := Record{
		Principal: &identity.Principal{ID: "u1", Name: "Alice"},
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Put(ctx, "tok", rec))
	assert.True(t, mr.Exists("session:tok"))
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL("session:tok").Seconds(), 5)

	got, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Principal)
	assert.Equal(t, "u1", got.Principal.ID)
	assert.Equal(t, "Alice", got.Principal.Name)

	require.NoError(t, store.Delete(ctx, "tok"))
	got, err = store.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStoreGetMissing(t *testing.T) {
	store, _ := newTestRedisStore(t)

	got, err := store.Get(context.Background(), "absent")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "tok", Record{
		Principal: &identity.Principal{ID: "u1"},
		ExpiresAt: time.Now().Add(time.Minute),
	}))
	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStorePutRejectsPastExpiry(t *testing.T) {
	store, _ := newTestRedisStore(t)

	err := store.Put(context.Background(), "tok", Record{ExpiresAt: time.Now().Add(-time.Second)})
	assert.Error(t, err)
	assert.Error(t, store.Put(context.Background(), "", Record{ExpiresAt: time.Now().Add(time.Hour)}))
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newTestRedisStore(t)
	mr.Close()

	_, err := store.Get(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, identity.ErrStoreUnavailable))
}

func TestRedisStoreCustomPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client, "spring:session:")

	require.NoError(t, store.Put(context.Background(), "tok", Record{
		Principal: &identity.Principal{ID: "u1"},
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	assert.True(t, mr.Exists("spring:session:tok"))
}

func TestMemoryStoreExpiresLazily(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "tok", Record{
		Principal: &identity.Principal{ID: "u1"},
		ExpiresAt: now.Add(time.Minute),
	}))
	got, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, got)

	now = now.Add(2 * time.Minute)
	got, err = store.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreExpiryKeepsConcurrentPut(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	start := time.Now()

	require.NoError(t, store.Put(ctx, "tok", Record{
		Principal: &identity.Principal{ID: "stale"},
		ExpiresAt: start.Add(time.Minute),
	}))

	// a login re-issues the token between the expired read and the delete
	later := start.Add(2 * time.Minute)
	reissued := false
	store.now = func() time.Time {
		if !reissued {
			reissued = true
			require.NoError(t, store.Put(ctx, "tok", Record{
				Principal: &identity.Principal{ID: "fresh"},
				ExpiresAt: later.Add(time.Hour),
			}))
		}
		return later
	}

	got, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = store.Get(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "fresh", got.Principal.ID)
}
