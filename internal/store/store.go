// Package store persists per-episode outcomes and batch state records so a
// restarted orchestrator resumes from the last durable position.
package store

import (
	"context"
	"errors"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// EpisodeStore persists episode outcomes keyed by (batch, episode index).
//
// Implementations must uphold the never-regress rule: once an episode's
// persisted outcome is COMPLETED, a later save of a non-completed outcome
// for the same key is a no-op. Completed content is replaced only by
// explicit external re-generation, which writes another completed outcome.
type EpisodeStore interface {
	SaveOutcome(ctx context.Context, batchID string, outcome domain.EpisodeOutcome) error
	GetOutcome(ctx context.Context, batchID string, episode int) (domain.EpisodeOutcome, error)
}

// BatchStore persists batch state records. State is read-modify-written by
// a single orchestrator per batch, so implementations need atomicity only
// at the level of one record write.
type BatchStore interface {
	SaveBatch(ctx context.Context, state domain.BatchState) error
	GetBatch(ctx context.Context, batchID string) (domain.BatchState, error)
}

// Store combines both record kinds behind one backend.
type Store interface {
	EpisodeStore
	BatchStore
}

// regresses reports whether writing next over prior would violate the
// never-regress rule.
func regresses(prior, next domain.EpisodeOutcome) bool {
	return prior.Status == domain.EpisodeCompleted && next.Status != domain.EpisodeCompleted
}
