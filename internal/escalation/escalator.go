// Package escalation drives repeated slot generation against an episode
// contract through a graduated ladder: strict attempts, a tightened
// instruction variant, then a single relaxed attempt, ending in either a
// validated slot set or a terminal degraded result.
//
// The ladder is an explicit finite-state machine rather than nested retry
// conditionals, so each transition is unit-testable in isolation.
package escalation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inkwell-ai/inkwell/internal/domain"
	"github.com/inkwell-ai/inkwell/internal/llm"
)

// State is the escalator's position in the ladder.
type State uint8

const (
	// StateStrict covers attempts 1..N against the base or tightened
	// contract.
	StateStrict State = iota

	// StateRelaxed is the single post-exhaustion attempt against the
	// relaxed contract variant.
	StateRelaxed

	// StateSuccess is terminal: a validated slot set exists.
	StateSuccess

	// StateDegraded is terminal: every attempt failed structurally.
	StateDegraded
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateStrict:
		return "strict"
	case StateRelaxed:
		return "relaxed"
	case StateSuccess:
		return "terminal_success"
	case StateDegraded:
		return "terminal_degraded"
	default:
		return "unknown"
	}
}

// Generator produces slot output for one contract variant. One call is one
// external generator invocation.
type Generator interface {
	Generate(ctx context.Context, c domain.Contract, narrative domain.NarrativeContext) (domain.SlotOutput, error)
}

// Validator judges output against a contract.
type Validator interface {
	Validate(c domain.Contract, output domain.SlotOutput) domain.Verdict
}

// AttemptRecord tracks one generation attempt. Records live only for the
// episode's duration; after the terminal state only the AttemptSummary
// escapes.
type AttemptRecord struct {
	Number  int
	Variant domain.Variant
	Err     error
	Verdict domain.Verdict
	Valid   bool

	output domain.SlotOutput
}

// Result is a terminal escalation outcome. Exactly one of the two terminal
// shapes applies: Accepted with a validated output, or degraded with the
// last verdict and whatever best-effort output exists.
type Result struct {
	// State is StateSuccess or StateDegraded.
	State State

	// Contract is the variant the accepted output validated against.
	Contract domain.Contract

	// Output is the validated slot set on success, or the last decodable
	// output (possibly nil) on degradation.
	Output domain.SlotOutput

	// Relaxed flags success that only came under the relaxed variant.
	Relaxed bool

	// LastVerdict is the verdict of the final attempt.
	LastVerdict domain.Verdict

	// Summary is what survives of the attempt records.
	Summary domain.AttemptSummary
}

// Accepted reports whether the escalation ended in a validated slot set.
func (r *Result) Accepted() bool { return r.State == StateSuccess }

// Escalator runs the ladder for single episodes. It is stateless across
// episodes; per-episode attempt records are discarded at the terminal state.
type Escalator struct {
	gen    Generator
	val    Validator
	cfg    domain.GenerationConfig
	logger *slog.Logger
}

// New creates an escalator with the given collaborators and configuration.
func New(gen Generator, val Validator, cfg domain.GenerationConfig) *Escalator {
	return &Escalator{
		gen:    gen,
		val:    val,
		cfg:    cfg,
		logger: slog.Default().With("component", "escalation"),
	}
}

// WithConfig returns a copy of the escalator running under the given
// configuration, sharing the collaborators. Used when a batch overrides the
// worker's defaults.
func (e *Escalator) WithConfig(cfg domain.GenerationConfig) *Escalator {
	clone := *e
	clone.cfg = cfg
	return &clone
}

// Run executes the ladder for one episode contract:
//
//	STRICT(1): base contract.
//	STRICT(n), n in 2..N: tightened contract with vocabulary hints.
//	RELAXED: relaxed contract, once, after strict attempts exhaust.
//
// A valid verdict at any rung terminates in StateSuccess (flagged Relaxed
// when it came from the relaxed rung). Exhaustion terminates in
// StateDegraded carrying the last violations and attempt count.
//
// Non-structural errors — the generator unreachable, a prompt that cannot
// render — are never absorbed into the ladder: they propagate immediately,
// leaving no Result. Total generator calls never exceed N+1.
func (e *Escalator) Run(
	ctx context.Context,
	base domain.Contract,
	narrative domain.NarrativeContext,
	hints domain.VocabularyHints,
) (*Result, error) {
	// Attempts must not alias the caller's narrative state.
	narrative = narrative.Clone()

	records := make([]AttemptRecord, 0, e.cfg.MaxStrictAttempts+1)
	var lastOutput domain.SlotOutput

	for n := 1; n <= e.cfg.MaxStrictAttempts; n++ {
		variant := base
		if n >= 2 {
			variant = base.Tightened(hints)
		}

		record, err := e.attempt(ctx, n, variant, narrative)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
		if record.Valid {
			return e.success(variant, false, records), nil
		}
		if record.output != nil {
			lastOutput = record.output
		}
	}

	relaxed := base.Relaxed(e.cfg.Relaxation)
	record, err := e.attempt(ctx, len(records)+1, relaxed, narrative)
	if err != nil {
		return nil, err
	}
	records = append(records, record)
	if record.Valid {
		return e.success(relaxed, true, records), nil
	}
	if record.output != nil {
		lastOutput = record.output
	}

	return e.degraded(relaxed, lastOutput, records), nil
}

// attempt performs one generate+validate rung. Only structural generator
// errors become failed attempts; transport and infrastructure errors would
// fail identically on every rung, so they abort the ladder instead of
// burning the budget.
func (e *Escalator) attempt(
	ctx context.Context,
	number int,
	variant domain.Contract,
	narrative domain.NarrativeContext,
) (AttemptRecord, error) {
	record := AttemptRecord{Number: number, Variant: variant.Variant()}

	output, err := e.gen.Generate(ctx, variant, narrative)
	if err != nil {
		if !llm.IsStructural(err) {
			return AttemptRecord{}, fmt.Errorf("attempt %d: %w", number, err)
		}
		// Structural generator failure: the attempt is spent, the ladder
		// advances.
		record.Err = err
		record.Verdict = domain.NewVerdict([]domain.Violation{
			{Slot: "", Reason: err.Error()},
		}, nil)
		e.logger.Info("attempt failed structurally before validation",
			"episode", variant.EpisodeIndex(),
			"attempt", number,
			"variant", variant.Variant().String(),
			"error", err)
		return record, nil
	}

	record.Verdict = e.val.Validate(variant, output)
	record.Valid = record.Verdict.Valid
	if record.Valid {
		e.logger.Info("attempt accepted",
			"episode", variant.EpisodeIndex(),
			"attempt", number,
			"variant", variant.Variant().String())
	} else {
		e.logger.Info("attempt rejected",
			"episode", variant.EpisodeIndex(),
			"attempt", number,
			"variant", variant.Variant().String(),
			"violations", record.Verdict.Summary())
	}

	// Keep the decoded output on the record until the rung resolves.
	record.output = output
	return record, nil
}

func (e *Escalator) success(accepted domain.Contract, relaxed bool, records []AttemptRecord) *Result {
	last := records[len(records)-1]
	return &Result{
		State:       StateSuccess,
		Contract:    accepted,
		Output:      last.output,
		Relaxed:     relaxed,
		LastVerdict: last.Verdict,
		Summary:     summarize(records),
	}
}

func (e *Escalator) degraded(relaxed domain.Contract, best domain.SlotOutput, records []AttemptRecord) *Result {
	last := records[len(records)-1]
	return &Result{
		State:       StateDegraded,
		Contract:    relaxed,
		Output:      best,
		LastVerdict: last.Verdict,
		Summary:     summarize(records),
	}
}

// summarize collapses attempt records into what persists after the ladder.
func summarize(records []AttemptRecord) domain.AttemptSummary {
	last := records[len(records)-1]
	return domain.AttemptSummary{
		Attempts:    len(records),
		LastVariant: last.Variant.String(),
		LastVerdict: last.Verdict.Summary(),
	}
}
