package store

import (
	"context"
	"sync"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

// MemoryStore is an in-process Store for tests and single-node development
// runs. It enforces the same never-regress rule as the Redis backend.
type MemoryStore struct {
	mu       sync.RWMutex
	batches  map[string]domain.BatchState
	episodes map[string]domain.EpisodeOutcome
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		batches:  make(map[string]domain.BatchState),
		episodes: make(map[string]domain.EpisodeOutcome),
	}
}

func (s *MemoryStore) SaveOutcome(_ context.Context, batchID string, outcome domain.EpisodeOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := episodeKey(batchID, outcome.EpisodeIndex)
	if prior, ok := s.episodes[key]; ok && regresses(prior, outcome) {
		return nil
	}
	s.episodes[key] = outcome
	return nil
}

func (s *MemoryStore) GetOutcome(_ context.Context, batchID string, episode int) (domain.EpisodeOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outcome, ok := s.episodes[episodeKey(batchID, episode)]
	if !ok {
		return domain.EpisodeOutcome{}, ErrNotFound
	}
	return outcome, nil
}

func (s *MemoryStore) SaveBatch(_ context.Context, state domain.BatchState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[state.BatchID] = state
	return nil
}

func (s *MemoryStore) GetBatch(_ context.Context, batchID string) (domain.BatchState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.batches[batchID]
	if !ok {
		return domain.BatchState{}, ErrNotFound
	}
	return state, nil
}
