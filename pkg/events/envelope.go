// Package events defines the generic envelope for pipeline event emission
// and the sink interface downstream consumers implement.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types emitted by the episode pipeline.
const (
	TypeEpisodeDrafted    = "episode.drafted"
	TypeEpisodeDegraded   = "episode.degraded"
	TypeEpisodeHardFailed = "episode.hard_failed"
	TypeBatchPaused       = "batch.paused"
	TypeBatchDone         = "batch.done"
)

// Envelope wraps pipeline events with metadata for routing, deduplication,
// and correlation back to the workflow run that produced them.
type Envelope struct {
	// ID uniquely identifies this event instance, generated per emission.
	ID string `json:"id"`

	// Type routes the event, e.g. "episode.drafted" or "batch.paused".
	Type string `json:"type"`

	// Source names the emitting component, e.g. "batch-activity".
	Source string `json:"source"`

	// Version enables payload schema evolution, starting at "1.0.0".
	Version string `json:"version"`

	// Timestamp is the wall-clock emission time.
	Timestamp time.Time `json:"timestamp"`

	// IdempotencyKey is derived from workflow context and event content so
	// activity retries do not duplicate events downstream.
	IdempotencyKey string `json:"idempotency_key"`

	// BatchID identifies the batch whose processing produced the event.
	BatchID string `json:"batch_id"`

	// SeriesID identifies the drama series for per-series projections.
	SeriesID string `json:"series_id,omitempty"`

	// WorkflowID and RunID correlate the event to its Temporal execution.
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`

	// Payload is the type-specific event body.
	Payload json.RawMessage `json:"payload"`
}

// EventSink receives emitted events. Implementations may be outbox tables,
// queues, or log outputs; they must treat duplicate idempotency keys as
// no-ops and return quickly. Sink failures never fail the emitting
// operation.
type EventSink interface {
	Append(ctx context.Context, envelope Envelope) error
}

// NoOpEventSink drops every event. Used in tests and when emission is
// disabled.
type NoOpEventSink struct{}

// Append implements EventSink by succeeding without side effects.
func (n *NoOpEventSink) Append(context.Context, Envelope) error { return nil }

// NewNoOpEventSink creates a sink that drops everything.
func NewNoOpEventSink() EventSink { return &NoOpEventSink{} }
