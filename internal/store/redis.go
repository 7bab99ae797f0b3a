package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

const (
	batchKeyPrefix   = "inkwell:batch:"
	episodeKeyPrefix = "inkwell:episode:"

	defaultOpTimeout = 5 * time.Second
)

// RedisStore persists batch and episode records as JSON values in Redis.
// Records are durable operational state, not cache entries, so no TTL is
// applied.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisStore creates a store backed by the given Redis endpoint.
func NewRedisStore(addr, password string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{
		client: client,
		logger: slog.Default().With("component", "store"),
	}
}

// NewRedisStoreWithClient wraps an existing client, mainly for tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		logger: slog.Default().With("component", "store"),
	}
}

// Close releases the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }

// Ping verifies connectivity, used at worker startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultOpTimeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// SaveOutcome writes an episode outcome, honoring the never-regress rule:
// a completed outcome is never overwritten by a non-completed one.
func (s *RedisStore) SaveOutcome(ctx context.Context, batchID string, outcome domain.EpisodeOutcome) error {
	key := episodeKey(batchID, outcome.EpisodeIndex)

	prior, err := s.GetOutcome(ctx, batchID, outcome.EpisodeIndex)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("read prior outcome %s: %w", key, err)
	}
	if err == nil && regresses(prior, outcome) {
		s.logger.Warn("refusing to regress completed episode",
			"batch_id", batchID,
			"episode", outcome.EpisodeIndex,
			"incoming_status", outcome.Status)
		return nil
	}

	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal outcome %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("save outcome %s: %w", key, err)
	}
	return nil
}

// GetOutcome loads an episode outcome, returning ErrNotFound when absent.
func (s *RedisStore) GetOutcome(ctx context.Context, batchID string, episode int) (domain.EpisodeOutcome, error) {
	key := episodeKey(batchID, episode)

	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.EpisodeOutcome{}, ErrNotFound
	}
	if err != nil {
		return domain.EpisodeOutcome{}, fmt.Errorf("get outcome %s: %w", key, err)
	}

	var outcome domain.EpisodeOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return domain.EpisodeOutcome{}, fmt.Errorf("decode outcome %s: %w", key, err)
	}
	return outcome, nil
}

// SaveBatch writes the batch state record.
func (s *RedisStore) SaveBatch(ctx context.Context, state domain.BatchState) error {
	key := batchKeyPrefix + state.BatchID

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal batch %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("save batch %s: %w", key, err)
	}
	return nil
}

// GetBatch loads the batch state record, returning ErrNotFound when absent.
func (s *RedisStore) GetBatch(ctx context.Context, batchID string) (domain.BatchState, error) {
	key := batchKeyPrefix + batchID

	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.BatchState{}, ErrNotFound
	}
	if err != nil {
		return domain.BatchState{}, fmt.Errorf("get batch %s: %w", key, err)
	}

	var state domain.BatchState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.BatchState{}, fmt.Errorf("decode batch %s: %w", key, err)
	}
	return state, nil
}

func episodeKey(batchID string, episode int) string {
	return fmt.Sprintf("%s%s:%d", episodeKeyPrefix, batchID, episode)
}
