// Package batch implements the Temporal activities behind the episode
// pipeline: contract construction, escalated generation, outcome
// classification, and durable persistence of batch progress.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"

	"github.com/inkwell-ai/inkwell/internal/contract"
	"github.com/inkwell-ai/inkwell/internal/domain"
	"github.com/inkwell-ai/inkwell/internal/escalation"
	"github.com/inkwell-ai/inkwell/internal/store"
	"github.com/inkwell-ai/inkwell/pkg/activity"
)

// GenerateEpisodeInput carries everything one episode attempt needs. The
// escalation ladder runs entirely inside the activity, so the workflow only
// ever sees classified outcomes.
type GenerateEpisodeInput struct {
	BatchID      string                  `json:"batch_id"`
	EpisodeIndex int                     `json:"episode_index"`
	Narrative    domain.NarrativeContext `json:"narrative"`
	Config       domain.GenerationConfig `json:"config"`
}

// Validate checks input invariants before any generator call is spent.
func (in GenerateEpisodeInput) Validate() error {
	if in.BatchID == "" {
		return fmt.Errorf("%w: empty batch id", domain.ErrInvalidBatch)
	}
	if in.EpisodeIndex < 0 {
		return fmt.Errorf("%w: negative episode index %d", domain.ErrInvalidRange, in.EpisodeIndex)
	}
	if err := in.Config.Validate(); err != nil {
		return err
	}
	return nil
}

// Activities hosts the batch pipeline's Temporal activities.
type Activities struct {
	activity.BaseActivities

	builder    *contract.Builder
	escalator  *escalation.Escalator
	classifier *escalation.Classifier
	store      store.Store
	events     *EventEmitter
}

// NewActivities wires the pipeline stages behind the activity surface.
func NewActivities(
	base activity.BaseActivities,
	builder *contract.Builder,
	escalator *escalation.Escalator,
	st store.Store,
) *Activities {
	return &Activities{
		BaseActivities: base,
		builder:        builder,
		escalator:      escalator,
		classifier:     escalation.NewClassifier(),
		store:          st,
		events:         NewEventEmitter(base),
	}
}

// GenerateEpisode runs the full pipeline for one episode: build the
// contract, escalate generation until a terminal state, classify, persist,
// and emit the outcome event. Hard failures are data, not errors: the
// workflow receives a HARD_FAILED outcome and applies its own pause rules.
//
// Errors returned from this activity are integrity breaches (unassemblable
// accepted output, persistence loss) and are always non-retryable; the
// escalator already owns retry semantics for generation itself.
func (a *Activities) GenerateEpisode(
	ctx context.Context,
	input GenerateEpisodeInput,
) (*domain.EpisodeOutcome, error) {
	if err := input.Validate(); err != nil {
		return nil, nonRetryable("GenerateEpisode", err, "invalid input")
	}

	wfCtx := a.GetWorkflowContext(ctx)
	activity.SafeLog(ctx, "starting episode generation",
		"batch_id", input.BatchID,
		"episode", input.EpisodeIndex,
		"workflow_id", wfCtx.WorkflowID)
	startTime := time.Now()

	base, hints, err := a.builder.Build(ctx, input.EpisodeIndex, input.Narrative)
	if err != nil {
		return nil, nonRetryable("GenerateEpisode", err, "contract construction failed")
	}

	a.RecordHeartbeat(ctx, "contract built", input.EpisodeIndex)

	res, runErr := a.escalator.WithConfig(input.Config).Run(ctx, base, input.Narrative, hints)
	outcome, err := a.classifier.Classify(input.EpisodeIndex, res, runErr)
	if err != nil {
		return nil, nonRetryable("GenerateEpisode", err, "outcome classification failed")
	}

	if err := a.store.SaveOutcome(ctx, input.BatchID, outcome); err != nil {
		return nil, nonRetryable("GenerateEpisode", err, "outcome persistence failed")
	}

	a.events.EmitEpisodeOutcome(ctx, input.BatchID, input.Narrative.SeriesID, outcome, wfCtx)

	activity.SafeLog(ctx, "episode generation finished",
		"batch_id", input.BatchID,
		"episode", input.EpisodeIndex,
		"status", outcome.Status,
		"attempts", outcome.Attempts.Attempts,
		"latency_ms", time.Since(startTime).Milliseconds())

	return &outcome, nil
}

// SaveBatchState persists the batch record after a state transition.
func (a *Activities) SaveBatchState(ctx context.Context, state domain.BatchState) error {
	if err := a.store.SaveBatch(ctx, state); err != nil {
		return nonRetryable("SaveBatchState", err, "batch persistence failed")
	}
	return nil
}

// LoadBatchState returns the persisted batch record, or nil when this is a
// fresh batch with no durable history.
func (a *Activities) LoadBatchState(ctx context.Context, batchID string) (*domain.BatchState, error) {
	state, err := a.store.GetBatch(ctx, batchID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, nonRetryable("LoadBatchState", err, "batch load failed")
	}
	return &state, nil
}

// EmitBatchPaused surfaces a pause transition to downstream consumers. It
// never fails: events serve observability only.
func (a *Activities) EmitBatchPaused(ctx context.Context, state domain.BatchState, reason string) error {
	wfCtx := a.GetWorkflowContext(ctx)
	a.events.EmitBatchPaused(ctx, state, reason, wfCtx)
	return nil
}

// nonRetryable wraps an error as a Temporal non-retryable application error.
func nonRetryable(tag string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, tag, cause)
}
