// Package cache provides the Redis-backed implementation of the store.KV
// contract. Values are whole JSON documents under fixed keys; representation
// details (sets, lists) stay with the callers in store.
package cache

import (
	"context"
	"fmt"

	"WaveFM/model"

	"github.com/go-redis/redis/v8"
)

// keyPrefix namespaces all player keys in a possibly shared Redis.
const keyPrefix = "wavefm:"

// RedisKV implements store.KV on a Redis client.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV creates a KV store over client.
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	// No expiration: these values are durable application state, not cache.
	if err := r.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisKV) Del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
