package dedup

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartfollow/followup-service-go/internal/session"
)

func setupSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewSessionStore(session.NewRedisKV(client)), mr
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store, _ := setupSessionStore(t)
	ctx := context.Background()

	marks := []Mark{{EmailID: 5, ProductID: 42}, {EmailID: 5, ProductID: 43}}
	require.NoError(t, store.Set(ctx, "guest:g@example.com", marks))

	got, err := store.Get(ctx, "guest:g@example.com")
	require.NoError(t, err)
	assert.Equal(t, marks, got)
}

func TestSessionStoreGetAbsent(t *testing.T) {
	store, _ := setupSessionStore(t)

	got, err := store.Get(context.Background(), "guest:nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStoreGetUndecodable(t *testing.T) {
	store, mr := setupSessionStore(t)

	require.NoError(t, mr.Set("session:guest:g@example.com:cart_email_marks", "not json"))

	got, err := store.Get(context.Background(), "guest:g@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStoreSetEmptyDeletes(t *testing.T) {
	store, mr := setupSessionStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "guest:g@example.com", []Mark{{EmailID: 1, ProductID: 2}}))
	require.NoError(t, store.Set(ctx, "guest:g@example.com", nil))

	assert.False(t, mr.Exists("session:guest:g@example.com:cart_email_marks"))

	got, err := store.Get(ctx, "guest:g@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}
