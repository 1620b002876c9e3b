package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisKV(t *testing.T) (*miniredis.Miniredis, *RedisKV) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisKV(client)
}

func TestRedisKV_SetGetDelete(t *testing.T) {
	_, kv := setupRedisKV(t)
	ctx := context.Background()

	_, err := kv.Get(ctx, "residents:snapshot:admin")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "residents:snapshot:admin", `{"items":[]}`, time.Minute))
	v, err := kv.Get(ctx, "residents:snapshot:admin")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, v)

	require.NoError(t, kv.Delete(ctx, "residents:snapshot:admin"))
	_, err = kv.Get(ctx, "residents:snapshot:admin")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_TTLExpires(t *testing.T) {
	mr, kv := setupRedisKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "benefits:tracking:9", "{}", time.Second))
	mr.FastForward(2 * time.Second)
	_, err := kv.Get(ctx, "benefits:tracking:9")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_ScanKeys(t *testing.T) {
	_, kv := setupRedisKV(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "benefits:tracking:1", "{}", 0))
	require.NoError(t, kv.Set(ctx, "benefits:tracking:2", "{}", 0))
	require.NoError(t, kv.Set(ctx, "residents:snapshot:admin", "{}", 0))

	keys, err := kv.ScanKeys(ctx, "benefits:tracking:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"benefits:tracking:1", "benefits:tracking:2"}, keys)
}

func TestMemoryKV_Expiry(t *testing.T) {
	kv := NewMemoryKV()
	now := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, kv.Set(ctx, "b", "2", 0))

	v, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	now = now.Add(2 * time.Minute)
	_, err = kv.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)

	keys, err := kv.ScanKeys(ctx, "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)

	require.NoError(t, kv.Delete(ctx, "b"))
	_, err = kv.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss)
}
