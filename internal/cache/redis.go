package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tripweaver/tripweaver/internal/faults"
)

// RedisStore implements Store on a Redis backend.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisStore connects to Redis using a URL
// (e.g. "redis://localhost:6379/0") and verifies connectivity.
func NewRedisStore(ctx context.Context, url string, logger *slog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping redis: %w", err)
	}
	return &RedisStore{client: client, logger: logger}, nil
}

// NewRedisStoreFromClient wraps an existing client. Used by tests that share
// one client across a container's lifetime.
func NewRedisStoreFromClient(client *redis.Client, logger *slog.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, faults.Wrap(faults.CacheError, "get "+key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return faults.Wrap(faults.CacheError, "set "+key, err)
	}
	return nil
}

// DeleteByPattern removes all keys matching pattern via KEYS + DEL.
// KEYS is O(n) over the keyspace; acceptable here because invalidation is a
// rare admin operation and the keyspace is bounded by TTLs.
func (s *RedisStore) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		return 0, faults.Wrap(faults.CacheError, "keys "+pattern, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	deleted, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, faults.Wrap(faults.CacheError, "del "+pattern, err)
	}
	return int(deleted), nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return faults.Wrap(faults.CacheError, "ping", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
