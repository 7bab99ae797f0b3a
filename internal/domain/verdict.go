package domain

import (
	"fmt"
	"strings"
)

// Violation names a single contract breach found by the structural validator.
type Violation struct {
	// Slot is the slot the violation applies to.
	Slot SlotName `json:"slot"`

	// Reason is a human-readable description of the breach.
	Reason string `json:"reason"`
}

// String returns "slot: reason" for log and remediation output.
func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Slot, v.Reason)
}

// Verdict is the structural validator's pure, derived judgment of one
// (contract, output) pair. It is never mutated after construction: Valid is
// true exactly when Violations is empty. Notes record tolerated oddities
// (missing optional slots, undeclared slots) that are not violations.
type Verdict struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
	Notes      []string    `json:"notes,omitempty"`
}

// NewVerdict derives a verdict from an ordered violation list.
func NewVerdict(violations []Violation, notes []string) Verdict {
	return Verdict{
		Valid:      len(violations) == 0,
		Violations: violations,
		Notes:      notes,
	}
}

// Summary renders the violations as a single human-readable line,
// or "valid" when there are none.
func (v Verdict) Summary() string {
	if v.Valid {
		return "valid"
	}
	parts := make([]string, len(v.Violations))
	for i, violation := range v.Violations {
		parts[i] = violation.String()
	}
	return strings.Join(parts, "; ")
}
