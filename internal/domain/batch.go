package domain

import (
	"fmt"
	"time"
)

// BatchStatus is the orchestrator's coarse state. String values are
// persisted with the batch record.
type BatchStatus string

const (
	// BatchIdle means the batch has been declared but not started.
	BatchIdle BatchStatus = "idle"

	// BatchRunning means episodes are being processed in index order.
	BatchRunning BatchStatus = "running"

	// BatchPaused means processing stopped at an episode boundary, either by
	// operator request or by crossing the hard-failure threshold.
	BatchPaused BatchStatus = "paused"

	// BatchDone means every episode in range reached a terminal outcome.
	BatchDone BatchStatus = "done"

	// BatchFailed means the batch aborted on an integrity breach.
	BatchFailed BatchStatus = "failed"
)

// EpisodeRange is a contiguous, inclusive range of episode indices.
type EpisodeRange struct {
	First int `json:"first" validate:"min=0"`
	Last  int `json:"last"`
}

// Validate checks range ordering.
func (r EpisodeRange) Validate() error {
	if r.First < 0 || r.Last < r.First {
		return fmt.Errorf("%w: [%d,%d]", ErrInvalidRange, r.First, r.Last)
	}
	return nil
}

// Len returns the number of episodes in the range.
func (r EpisodeRange) Len() int { return r.Last - r.First + 1 }

// Contains reports whether the index falls inside the range.
func (r EpisodeRange) Contains(idx int) bool { return idx >= r.First && idx <= r.Last }

// BatchState is the batch's single persisted state record. It is
// read-modify-written only by the orchestrator and saved after every
// transition so a restart resumes from the last durable position.
type BatchState struct {
	BatchID string       `json:"batch_id"`
	Range   EpisodeRange `json:"range"`
	Status  BatchStatus  `json:"status"`

	// Position is the next episode index to attempt.
	Position int `json:"position"`

	Completed  []int `json:"completed,omitempty"`
	Degraded   []int `json:"degraded,omitempty"`
	HardFailed []int `json:"hard_failed,omitempty"`

	// ConsecutiveHardFailures counts hard failures since the last
	// draft-complete episode. Reset on every completion.
	ConsecutiveHardFailures int `json:"consecutive_hard_failures"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewBatchState creates an idle state positioned at the start of the range.
// The caller supplies the timestamp: inside a workflow that must be
// workflow.Now, never the wall clock.
func NewBatchState(batchID string, r EpisodeRange, now time.Time) (BatchState, error) {
	if batchID == "" {
		return BatchState{}, fmt.Errorf("%w: empty batch id", ErrInvalidBatch)
	}
	if err := r.Validate(); err != nil {
		return BatchState{}, err
	}
	return BatchState{
		BatchID:   batchID,
		Range:     r,
		Status:    BatchIdle,
		Position:  r.First,
		UpdatedAt: now.UTC(),
	}, nil
}

// RecordCompleted appends a draft-complete episode, resets the consecutive
// failure counter, and advances past the episode.
func (s *BatchState) RecordCompleted(idx int, now time.Time) {
	s.Completed = append(s.Completed, idx)
	s.ConsecutiveHardFailures = 0
	s.advance(idx, now)
}

// RecordDegraded appends a degraded episode and advances. A single episode's
// structural shortfall never stalls the batch, so the failure counter is
// untouched.
func (s *BatchState) RecordDegraded(idx int, now time.Time) {
	s.Degraded = append(s.Degraded, idx)
	s.advance(idx, now)
}

// RecordHardFail appends a hard-failed episode, bumps the consecutive
// failure counter, and advances.
func (s *BatchState) RecordHardFail(idx int, now time.Time) {
	s.HardFailed = append(s.HardFailed, idx)
	s.ConsecutiveHardFailures++
	s.advance(idx, now)
}

func (s *BatchState) advance(idx int, now time.Time) {
	if idx >= s.Position {
		s.Position = idx + 1
	}
	s.UpdatedAt = now.UTC()
}

// ResumePosition recomputes the start position for a resumed or restarted
// batch as max(last completed + 1, stored position), guaranteeing completed
// episodes are never re-attempted after a crash.
func (s BatchState) ResumePosition() int {
	pos := s.Position
	for _, idx := range s.Completed {
		if idx+1 > pos {
			pos = idx + 1
		}
	}
	if pos < s.Range.First {
		pos = s.Range.First
	}
	return pos
}

// Exhausted reports whether the position has moved past the end of range.
func (s BatchState) Exhausted() bool { return s.Position > s.Range.Last }
