package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/suppliers/backend/internal/domain/shared"
	"github.com/suppliers/backend/internal/infrastructure/config"
)

const dedupKeyPrefix = "documents:dedup:"

// RedisDedupStore implements IdempotencyStore using Redis. It is the
// deployment default: every consumer instance in the queue group shares the
// same view of which document ids were already handled.
type RedisDedupStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDedupStore creates a Redis-backed dedup store and verifies the
// connection before returning it
func NewRedisDedupStore(cfg *config.RedisConfig) (*RedisDedupStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisDedupStore{
		client:    client,
		keyPrefix: dedupKeyPrefix,
	}, nil
}

// NewRedisDedupStoreWithClient creates a store with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisDedupStoreWithClient(client *redis.Client, keyPrefix string) *RedisDedupStore {
	if keyPrefix == "" {
		keyPrefix = dedupKeyPrefix
	}
	return &RedisDedupStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed marks a document id as processed with a TTL.
// Returns true if the id was newly marked, false if it was already seen.
// SETNX makes the check-and-mark atomic across consumer instances.
func (s *RedisDedupStore) MarkProcessed(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	key := s.keyPrefix + messageID

	result, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark document as processed: %w", err)
	}

	return result, nil
}

// IsProcessed checks if a document id has already been processed
func (s *RedisDedupStore) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	key := s.keyPrefix + messageID

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if document is processed: %w", err)
	}

	return exists > 0, nil
}

// Close closes the Redis client
func (s *RedisDedupStore) Close() error {
	return s.client.Close()
}

// Ensure RedisDedupStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*RedisDedupStore)(nil)
