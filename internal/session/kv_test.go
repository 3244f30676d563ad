package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupKV(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisKV(client), mr
}

func TestRedisKVRoundTrip(t *testing.T) {
	kv, _ := setupKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "guest:g@example.com", "wc_guest_email", "g@example.com"))

	got, err := kv.Get(ctx, "guest:g@example.com", "wc_guest_email", "")
	require.NoError(t, err)
	assert.Equal(t, "g@example.com", got)
}

func TestRedisKVDefaultWhenAbsent(t *testing.T) {
	kv, _ := setupKV(t)

	got, err := kv.Get(context.Background(), "guest:x", "wc_guest_email", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)
}

func TestRedisKVDelete(t *testing.T) {
	kv, mr := setupKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "guest:g", "k", "v"))
	require.NoError(t, kv.Delete(ctx, "guest:g", "k"))
	assert.False(t, mr.Exists("session:guest:g:k"))
}

func TestRedisKVValuesExpire(t *testing.T) {
	kv, mr := setupKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "guest:g", "k", "v"))

	mr.FastForward(defaultSessionTTL + time.Minute)

	got, err := kv.Get(ctx, "guest:g", "k", "gone")
	require.NoError(t, err)
	assert.Equal(t, "gone", got)
}
