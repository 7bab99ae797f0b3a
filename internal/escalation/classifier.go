package escalation

import (
	"fmt"

	"github.com/inkwell-ai/inkwell/internal/assembly"
	"github.com/inkwell-ai/inkwell/internal/domain"
	"github.com/inkwell-ai/inkwell/internal/llm"
)

// Classifier turns terminal escalation results into one of exactly three
// episode outcomes: completed, degraded, or hard-failed. Accepted output is
// assembled here so classification and assembly cannot drift apart. The
// orchestrator consumes only the classified outcome, never escalator
// internals.
type Classifier struct{}

// NewClassifier creates an outcome classifier.
func NewClassifier() *Classifier { return &Classifier{} }

// Classify maps an escalation terminal (or abort error) to an outcome:
//
//   - TERMINAL_SUCCESS: COMPLETED with assembled content, flagged when
//     acceptance only came under the relaxed variant.
//   - TERMINAL_DEGRADED: DEGRADED with best-available content and a
//     remediation note.
//   - Transport abort: HARD_FAILED recording the raw error, no content.
//
// An assembly failure on accepted output is not classified; it propagates
// as an error because a validated-then-unassemblable episode is a pipeline
// defect, not a content problem.
func (c *Classifier) Classify(episode int, res *Result, runErr error) (domain.EpisodeOutcome, error) {
	if runErr != nil {
		if llm.IsTransport(runErr) {
			return domain.NewHardFailOutcome(episode, runErr.Error()), nil
		}
		return domain.EpisodeOutcome{}, fmt.Errorf("classify episode %d: %w", episode, runErr)
	}
	if res == nil {
		return domain.EpisodeOutcome{}, fmt.Errorf("classify episode %d: no escalation result", episode)
	}

	switch res.State {
	case StateSuccess:
		content, err := assembly.Assemble(res.Contract, res.Output)
		if err != nil {
			return domain.EpisodeOutcome{}, fmt.Errorf("assemble episode %d: %w", episode, err)
		}
		return domain.NewCompletedOutcome(episode, content, res.Relaxed, res.Summary)

	case StateDegraded:
		best := c.bestAvailable(res)
		return domain.NewDegradedOutcome(episode, best, res.Summary.LastVerdict, res.Summary), nil

	default:
		return domain.EpisodeOutcome{}, fmt.Errorf("classify episode %d: non-terminal state %s", episode, res.State)
	}
}

// bestAvailable assembles whatever decodable output the final attempts left
// behind. A degraded episode may legitimately carry no content at all.
func (c *Classifier) bestAvailable(res *Result) string {
	if res.Output == nil {
		return ""
	}
	content, err := assembly.Assemble(res.Contract, res.Output)
	if err != nil {
		// Only undeclared or empty text survived; nothing worth keeping.
		return ""
	}
	return content
}
