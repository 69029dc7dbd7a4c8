// Package redis implements domain.StateStore on a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"notes/internal/domain"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "notes:"

// Store keeps client state under prefixed Redis keys without expiry.
type Store struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

var _ domain.StateStore = (*Store)(nil)

// Open parses a redis:// URL, connects and pings.
func Open(ctx context.Context, rawURL string, logger *zap.Logger) (*Store, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, DefaultPrefix, logger), nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, prefix: prefix, logger: logger}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Get implements domain.StateStore.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		s.logger.Error("Failed to get state from redis", zap.Error(err), zap.String("key", key))
		return "", err
	}
	return v, nil
}

// Set implements domain.StateStore.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		s.logger.Error("Failed to set state in redis", zap.Error(err), zap.String("key", key))
		return err
	}
	return nil
}

// Delete implements domain.StateStore.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		s.logger.Error("Failed to delete state from redis", zap.Error(err), zap.Strings("keys", keys))
		return err
	}
	return nil
}
