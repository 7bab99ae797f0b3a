package domain

import (
	"fmt"
	"time"
)

// EpisodeStatus classifies the terminal result of one episode's generation.
// String values are persisted; do not renumber or rename existing values.
type EpisodeStatus string

const (
	// EpisodeCompleted means generation satisfied the contract and assembled
	// content is ready for downstream quality review.
	EpisodeCompleted EpisodeStatus = "completed"

	// EpisodeDegraded means generation finished but never satisfied the
	// contract, even after relaxation. Best-available content is kept and
	// flagged for follow-up so the batch can keep moving.
	EpisodeDegraded EpisodeStatus = "degraded"

	// EpisodeHardFailed means a non-structural failure (generator
	// unreachable) stopped the episode before any acceptable content
	// existed. Requires intervention.
	EpisodeHardFailed EpisodeStatus = "hard_failed"
)

// AttemptSummary captures what persists of an escalation run after its
// per-attempt records are discarded: how many calls were made and how the
// last attempt fell short.
type AttemptSummary struct {
	Attempts    int    `json:"attempts"`
	LastVariant string `json:"last_variant,omitempty"`
	LastVerdict string `json:"last_verdict,omitempty"`
}

// EpisodeOutcome is the single persisted result of one episode's pipeline
// run. It is produced once per episode per run and mutated only by explicit
// external re-generation.
type EpisodeOutcome struct {
	EpisodeIndex int           `json:"episode_index"`
	Status       EpisodeStatus `json:"status"`

	// Content holds assembled episode text for completed outcomes and the
	// best-available text for degraded outcomes. Always empty on hard fail.
	Content string `json:"content,omitempty"`

	// RelaxedAccepted flags completed outcomes that only passed under the
	// relaxed contract variant.
	RelaxedAccepted bool `json:"relaxed_accepted,omitempty"`

	// Reason carries the degradation reason or the raw hard-failure error.
	Reason string `json:"reason,omitempty"`

	// RemediationNote is the human-readable follow-up note attached to
	// degraded outcomes.
	RemediationNote string `json:"remediation_note,omitempty"`

	Attempts    AttemptSummary `json:"attempt_summary"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// NewCompletedOutcome builds a draft-complete outcome. Content must be
// non-empty: a completed episode without content is a programming-invariant
// breach surfaced at construction.
func NewCompletedOutcome(episode int, content string, relaxed bool, attempts AttemptSummary) (EpisodeOutcome, error) {
	if content == "" {
		return EpisodeOutcome{}, fmt.Errorf("%w: completed episode %d has no content", ErrBatchIntegrity, episode)
	}
	return EpisodeOutcome{
		EpisodeIndex:    episode,
		Status:          EpisodeCompleted,
		Content:         content,
		RelaxedAccepted: relaxed,
		Attempts:        attempts,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

// NewDegradedOutcome builds a degraded outcome carrying the last attempt's
// shortfall and a remediation note for human follow-up.
func NewDegradedOutcome(episode int, bestContent, reason string, attempts AttemptSummary) EpisodeOutcome {
	return EpisodeOutcome{
		EpisodeIndex:    episode,
		Status:          EpisodeDegraded,
		Content:         bestContent,
		Reason:          reason,
		RemediationNote: remediationNote(episode, reason, attempts),
		Attempts:        attempts,
		GeneratedAt:     time.Now().UTC(),
	}
}

// NewHardFailOutcome builds a hard-failure outcome recording the raw error.
// Hard failures never carry content.
func NewHardFailOutcome(episode int, reason string) EpisodeOutcome {
	return EpisodeOutcome{
		EpisodeIndex: episode,
		Status:       EpisodeHardFailed,
		Reason:       reason,
		GeneratedAt:  time.Now().UTC(),
	}
}

// remediationNote renders the operator-facing follow-up note for a degraded
// episode.
func remediationNote(episode int, reason string, attempts AttemptSummary) string {
	return fmt.Sprintf(
		"episode %d accepted in degraded form after %d attempts (last variant %s): %s. "+
			"Review the flagged slots and re-generate this episode manually.",
		episode, attempts.Attempts, attempts.LastVariant, reason)
}
