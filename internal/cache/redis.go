// internal/cache/redis.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis creates a client for addr/db and pings it once.
func ConnectRedis(addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// RedisKV implements kv.Store on plain Redis strings. Keys are prefixed.
type RedisKV struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisKV wraps client. An empty prefix defaults to "ttt:".
func NewRedisKV(client *redis.Client, keyPrefix string) *RedisKV {
	if client == nil {
		panic("redis client cannot be nil for RedisKV")
	}
	if keyPrefix == "" {
		keyPrefix = "ttt:"
	}
	return &RedisKV{client: client, keyPrefix: keyPrefix}
}

func (r *RedisKV) key(k string) string {
	return r.keyPrefix + k
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get %s: %w", r.key(key), err)
	}
	return val, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", r.key(key), err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis: del %s: %w", r.key(key), err)
	}
	return nil
}
