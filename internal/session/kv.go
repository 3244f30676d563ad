package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is the visitor-scoped session store contract. The core receives
// identity explicitly instead of reading ambient session state, so keys
// are namespaced by a scope (the visitor's storage key).
type KV interface {
	// Get returns the stored value, or def when nothing is stored.
	Get(ctx context.Context, scope, key, def string) (string, error)
	Set(ctx context.Context, scope, key, value string) error
	Delete(ctx context.Context, scope, key string) error
}

// Guest session state matches the platform's session lifetime.
const defaultSessionTTL = 48 * time.Hour

type RedisKV struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client, ttl: defaultSessionTTL}
}

func (r *RedisKV) Get(ctx context.Context, scope, key, def string) (string, error) {
	v, err := r.client.Get(ctx, sessionKey(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return v, nil
}

func (r *RedisKV) Set(ctx context.Context, scope, key, value string) error {
	if err := r.client.Set(ctx, sessionKey(scope, key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, scope, key string) error {
	if err := r.client.Del(ctx, sessionKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func sessionKey(scope, key string) string {
	return fmt.Sprintf("session:%s:%s", scope, key)
}
