package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/floorplan-inventory/backend/internal/config"
)

// Key prefix for state blobs
const redisKeyPrefix = "floorplan:"

// RedisStore implements BlobStore using Redis. Values never expire.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore connects to the Redis server at cfg.RedisURL.
func NewRedisStore(cfg *config.Config, logger *zap.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis blob store")
	return NewRedisStoreWithClient(client, logger), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

// Get retrieves the blob stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Warn("Failed to get blob", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}

	s.logger.Debug("Loaded blob", zap.String("key", key), zap.Int("bytes", len(data)))
	return data, nil
}

// Put stores the blob under key without expiry.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		s.logger.Warn("Failed to put blob", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to put %q: %w", key, err)
	}

	s.logger.Debug("Stored blob", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

// Delete removes the blob under key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		s.logger.Warn("Failed to delete blob", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	s.logger.Info("Closing Redis connection")
	return s.client.Close()
}
