package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-ai/inkwell/internal/domain"
	"github.com/inkwell-ai/inkwell/pkg/activity"
	"github.com/inkwell-ai/inkwell/pkg/events"
)

// episodeOutcomeEvent is emitted once per episode terminal outcome.
type episodeOutcomeEvent struct {
	EpisodeIndex    int       `json:"episode_index"`
	Status          string    `json:"status"`
	RelaxedAccepted bool      `json:"relaxed_accepted,omitempty"`
	Attempts        int       `json:"attempts"`
	Reason          string    `json:"reason,omitempty"`
	ProducedAt      time.Time `json:"produced_at"`
}

// batchPausedEvent is emitted when the orchestrator transitions to PAUSED.
type batchPausedEvent struct {
	Position                int       `json:"position"`
	ConsecutiveHardFailures int       `json:"consecutive_hard_failures"`
	Reason                  string    `json:"reason"`
	PausedAt                time.Time `json:"paused_at"`
}

// EventEmitter builds and emits batch pipeline events with stable
// idempotency keys so activity retries never duplicate them downstream.
type EventEmitter struct {
	base activity.BaseActivities
}

// NewEventEmitter creates an emitter over the shared activity base.
func NewEventEmitter(base activity.BaseActivities) *EventEmitter {
	return &EventEmitter{base: base}
}

// EmitEpisodeOutcome emits episode.drafted, episode.degraded, or
// episode.hard_failed depending on the outcome's status.
func (e *EventEmitter) EmitEpisodeOutcome(
	ctx context.Context,
	batchID, seriesID string,
	outcome domain.EpisodeOutcome,
	wfCtx activity.WorkflowContext,
) {
	var eventType string
	switch outcome.Status {
	case domain.EpisodeCompleted:
		eventType = events.TypeEpisodeDrafted
	case domain.EpisodeDegraded:
		eventType = events.TypeEpisodeDegraded
	case domain.EpisodeHardFailed:
		eventType = events.TypeEpisodeHardFailed
	default:
		activity.SafeLogError(ctx, "unknown outcome status, event skipped",
			"status", outcome.Status, "episode", outcome.EpisodeIndex)
		return
	}

	payload, err := json.Marshal(episodeOutcomeEvent{
		EpisodeIndex:    outcome.EpisodeIndex,
		Status:          string(outcome.Status),
		RelaxedAccepted: outcome.RelaxedAccepted,
		Attempts:        outcome.Attempts.Attempts,
		Reason:          outcome.Reason,
		ProducedAt:      time.Now(),
	})
	if err != nil {
		activity.SafeLogError(ctx, "failed to marshal episode outcome event",
			"episode", outcome.EpisodeIndex, "error", err)
		return
	}

	e.base.EmitEventSafe(ctx, events.Envelope{
		ID:             uuid.New().String(),
		Type:           eventType,
		Source:         "batch-activity",
		Version:        "1.0.0",
		Timestamp:      time.Now(),
		IdempotencyKey: fmt.Sprintf("%s:episode:%d:%s", batchID, outcome.EpisodeIndex, outcome.Status),
		BatchID:        batchID,
		SeriesID:       seriesID,
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}, fmt.Sprintf("EpisodeOutcome[%d]", outcome.EpisodeIndex))
}

// EmitBatchPaused emits a batch.paused event naming the pause reason.
func (e *EventEmitter) EmitBatchPaused(
	ctx context.Context,
	state domain.BatchState,
	reason string,
	wfCtx activity.WorkflowContext,
) {
	payload, err := json.Marshal(batchPausedEvent{
		Position:                state.Position,
		ConsecutiveHardFailures: state.ConsecutiveHardFailures,
		Reason:                  reason,
		PausedAt:                time.Now(),
	})
	if err != nil {
		activity.SafeLogError(ctx, "failed to marshal batch paused event",
			"batch_id", state.BatchID, "error", err)
		return
	}

	e.base.EmitEventSafe(ctx, events.Envelope{
		ID:             uuid.New().String(),
		Type:           events.TypeBatchPaused,
		Source:         "batch-activity",
		Version:        "1.0.0",
		Timestamp:      time.Now(),
		IdempotencyKey: fmt.Sprintf("%s:paused:%d", state.BatchID, state.Position),
		BatchID:        state.BatchID,
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}, "BatchPaused")
}
