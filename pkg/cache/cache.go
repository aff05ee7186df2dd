// Package cache wraps the external key-value cache service.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Doot-Foundation/doot-oracle/pkg/logging"
)

// Store is the cache contract the pipeline depends on. The redis client
// satisfies it in production; tests use an in-memory fake.
type Store interface {
	// Get returns the value for a key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes a value under a key.
	Set(ctx context.Context, key string, value []byte) error
	// Ping checks connectivity to the cache service.
	Ping(ctx context.Context) error
}

// RedisStore is the production Store backed by redis.
type RedisStore struct {
	client *redis.Client
	logger *logging.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a redis-backed store. The client is safe for
// concurrent use from multiple in-flight tasks.
func NewRedisStore(addr, password string, db int, logger *logging.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client, logger: logger}
}

// Get returns the value for a key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, nil
}

// Set writes a value under a key. Values are durable until overwritten; the
// snapshot and consensus layers own their own supersession protocols.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection to the cache service.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// GetJSON reads and unmarshals a JSON value. Missing keys surface ErrNotFound.
func GetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON marshals and writes a JSON value.
func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
