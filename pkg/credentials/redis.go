package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/pilotwire/pilotwire/pkg/models"
)

const redisKeyPrefix = "pilotwire:credentials:"

// RedisStore persists credential records in Redis, one key per workflow.
type RedisStore struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewRedisStore connects using a redis:// URL and verifies the connection.
func NewRedisStore(ctx context.Context, logger *slog.Logger, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStore{
		client: client,
		logger: logger.With("module", "credentials_redis"),
	}, nil
}

func redisKey(workflowID string) string {
	return redisKeyPrefix + workflowID
}

// Get returns the stored blob for a workflow, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, workflowID string) (*models.StorageState, error) {
	raw, err := s.client.Get(ctx, redisKey(workflowID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, NewStoreError("Get", workflowID, ErrNotFound)
		}

		return nil, NewStoreError("Get", workflowID, err)
	}

	var state models.StorageState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, NewStoreError("Get", workflowID, err)
	}

	return &state, nil
}

// Save validates and stores the blob. Records do not expire: storage-state
// lifetimes are governed by the cookies inside, not by the store.
func (s *RedisStore) Save(ctx context.Context, workflowID string, state *models.StorageState) error {
	if err := ValidateStorageState(state); err != nil {
		return NewStoreError("Save", workflowID, err)
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return NewStoreError("Save", workflowID, err)
	}

	err = s.client.Set(ctx, redisKey(workflowID), raw, 0).Err()
	if err != nil {
		return NewStoreError("Save", workflowID, err)
	}

	return nil
}

// Remove deletes the record for a workflow, or returns ErrNotFound.
func (s *RedisStore) Remove(ctx context.Context, workflowID string) error {
	deleted, err := s.client.Del(ctx, redisKey(workflowID)).Result()
	if err != nil {
		return NewStoreError("Remove", workflowID, err)
	}

	if deleted == 0 {
		return NewStoreError("Remove", workflowID, ErrNotFound)
	}

	return nil
}

// Has reports whether a record exists for the workflow.
func (s *RedisStore) Has(ctx context.Context, workflowID string) (bool, error) {
	count, err := s.client.Exists(ctx, redisKey(workflowID)).Result()
	if err != nil {
		return false, NewStoreError("Has", workflowID, err)
	}

	return count > 0, nil
}

// Close closes the client connection.
func (s *RedisStore) Close(_ context.Context) error {
	return s.client.Close()
}
