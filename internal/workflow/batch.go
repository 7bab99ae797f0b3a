// Package workflow orchestrates episode batches using Temporal workflows.
// Control flow is deterministic: per-episode generation runs in activities,
// the workflow consumes classified outcomes, applies the pause rules, and
// persists batch state after every transition.
package workflow

import (
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/inkwell-ai/inkwell/internal/batch"
	"github.com/inkwell-ai/inkwell/internal/domain"
)

const (
	// SignalPause requests a pause at the next episode boundary. Attempts in
	// flight finish first; there is no mid-attempt cancellation.
	SignalPause = "pause"

	// SignalResume restarts a paused batch. The start position is recomputed
	// so completed episodes are never re-attempted.
	SignalResume = "resume"

	// QueryState returns the current BatchState for the status surface.
	QueryState = "state"

	// Activity name constants keep workflow and registration in sync.
	activityGenerateEpisode = "GenerateEpisode"
	activitySaveBatchState  = "SaveBatchState"
	activityLoadBatchState  = "LoadBatchState"
	activityEmitBatchPaused = "EmitBatchPaused"
)

// BatchWorkflow processes the requested episode range in strict ascending
// order. Per episode it calls the generation activity exactly once (the
// escalation ladder lives inside the activity) and routes the classified
// outcome:
//
//	completed  → record, reset failure counter, advance.
//	degraded   → record, advance. One episode's shortfall never stalls the
//	             batch.
//	hard fail  → record, bump counter; pause when the counter crosses the
//	             threshold or the failure hit the very first episode.
//
// A pause request (signal or threshold) takes effect at the episode
// boundary; the workflow then blocks until resumed. State is persisted
// after every transition so a crashed or continued run resumes from the
// last durable position.
func BatchWorkflow(ctx workflow.Context, req domain.BatchRequest) (*domain.BatchState, error) {
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "batch.v", workflow.DefaultVersion, currentVersion)

	if err := req.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"invalid batch request",
			"Validation",
			err,
		)
	}

	logger := workflow.GetLogger(ctx)

	// The escalation ladder owns all generation retries, so Temporal must
	// not add its own on top.
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		HeartbeatTimeout:    2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	state, err := restoreOrCreateState(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := workflow.SetQueryHandler(ctx, QueryState, func() (domain.BatchState, error) {
		return state, nil
	}); err != nil {
		return nil, fmt.Errorf("register state query: %w", err)
	}

	pauseCh := workflow.GetSignalChannel(ctx, SignalPause)
	resumeCh := workflow.GetSignalChannel(ctx, SignalResume)

	state.Status = domain.BatchRunning
	state.Position = state.ResumePosition()
	if err := saveState(ctx, state); err != nil {
		return nil, err
	}

	for !state.Exhausted() {
		// Operator pause takes effect here, at the episode boundary.
		if drainSignal(pauseCh) {
			if err := pauseAndWait(ctx, &state, "operator request", resumeCh); err != nil {
				return &state, err
			}
		}

		episode := state.Position
		logger.Info("processing episode", "batch_id", state.BatchID, "episode", episode)

		var outcome *domain.EpisodeOutcome
		err := workflow.ExecuteActivity(ctx, activityGenerateEpisode, batch.GenerateEpisodeInput{
			BatchID:      req.BatchID,
			EpisodeIndex: episode,
			Narrative:    req.Narrative,
			Config:       req.Config,
		}).Get(ctx, &outcome)
		if err != nil {
			// Activity errors are integrity breaches: classified outcomes,
			// including hard failures, come back as values.
			state.Status = domain.BatchFailed
			_ = saveState(ctx, state)
			return &state, fmt.Errorf("episode %d integrity breach: %w", episode, err)
		}
		if outcome == nil || outcome.EpisodeIndex != episode {
			state.Status = domain.BatchFailed
			_ = saveState(ctx, state)
			return &state, temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("episode %d returned a mismatched outcome", episode),
				"Integrity",
				errors.New("outcome does not match requested episode"),
			)
		}

		switch outcome.Status {
		case domain.EpisodeCompleted:
			state.RecordCompleted(episode, workflow.Now(ctx))

		case domain.EpisodeDegraded:
			state.RecordDegraded(episode, workflow.Now(ctx))

		case domain.EpisodeHardFailed:
			state.RecordHardFail(episode, workflow.Now(ctx))
			var pauseReason string
			switch {
			case episode == req.Range.First:
				pauseReason = "hard failure on first episode"
			case state.ConsecutiveHardFailures >= req.Config.FailureThreshold:
				pauseReason = "hard failure threshold crossed"
			}
			if pauseReason != "" {
				// Stay on the failed episode so the post-intervention resume
				// re-attempts it.
				state.Position = episode
				if err := pauseAndWait(ctx, &state, pauseReason, resumeCh); err != nil {
					return &state, err
				}
			} else if err := saveState(ctx, state); err != nil {
				return &state, err
			}
			continue

		default:
			state.Status = domain.BatchFailed
			_ = saveState(ctx, state)
			return &state, temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("episode %d has unknown outcome status %q", episode, outcome.Status),
				"Integrity",
				nil,
			)
		}

		if err := saveState(ctx, state); err != nil {
			return &state, err
		}
	}

	state.Status = domain.BatchDone
	if err := saveState(ctx, state); err != nil {
		return &state, err
	}
	logger.Info("batch done",
		"batch_id", state.BatchID,
		"completed", len(state.Completed),
		"degraded", len(state.Degraded),
		"hard_failed", len(state.HardFailed))
	return &state, nil
}

// restoreOrCreateState loads durable batch state from a prior run, falling
// back to a fresh record for a new batch.
func restoreOrCreateState(ctx workflow.Context, req domain.BatchRequest) (domain.BatchState, error) {
	var prior *domain.BatchState
	if err := workflow.ExecuteActivity(ctx, activityLoadBatchState, req.BatchID).Get(ctx, &prior); err != nil {
		return domain.BatchState{}, fmt.Errorf("load batch state: %w", err)
	}
	if prior != nil {
		return *prior, nil
	}

	// workflow.Now keeps the record's timestamp replay-safe.
	state, err := domain.NewBatchState(req.BatchID, req.Range, workflow.Now(ctx))
	if err != nil {
		return domain.BatchState{}, temporal.NewNonRetryableApplicationError(
			"invalid batch state", "Validation", err)
	}
	return state, nil
}

// pauseAndWait persists the paused status, emits the pause event, and
// blocks until a resume signal arrives. On resume the position is
// recomputed so completed episodes are never re-attempted.
func pauseAndWait(
	ctx workflow.Context,
	state *domain.BatchState,
	reason string,
	resumeCh workflow.ReceiveChannel,
) error {
	state.Status = domain.BatchPaused
	if err := saveState(ctx, *state); err != nil {
		return err
	}
	_ = workflow.ExecuteActivity(ctx, activityEmitBatchPaused, *state, reason).Get(ctx, nil)
	workflow.GetLogger(ctx).Info("batch paused",
		"batch_id", state.BatchID, "position", state.Position, "reason", reason)

	resumeCh.Receive(ctx, nil)

	state.Status = domain.BatchRunning
	state.Position = state.ResumePosition()
	state.ConsecutiveHardFailures = 0
	if err := saveState(ctx, *state); err != nil {
		return err
	}
	workflow.GetLogger(ctx).Info("batch resumed",
		"batch_id", state.BatchID, "position", state.Position)
	return nil
}

// saveState persists the record after a transition. Persistence loss is
// fatal for the batch: resuming from stale state could re-run episodes.
func saveState(ctx workflow.Context, state domain.BatchState) error {
	if err := workflow.ExecuteActivity(ctx, activitySaveBatchState, state).Get(ctx, nil); err != nil {
		return fmt.Errorf("persist batch state: %w", err)
	}
	return nil
}

// drainSignal non-blockingly consumes any pending signal on the channel.
func drainSignal(ch workflow.ReceiveChannel) bool {
	received := false
	for ch.ReceiveAsync(nil) {
		received = true
	}
	return received
}
