// Package validation is the single source of truth for whether generated
// slot output satisfies an episode contract. Verdicts are zero-tolerance:
// no partial credit, no automatic content repair.
package validation

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

// Validator derives verdicts from (contract, output) pairs. It is stateless
// and deterministic: identical inputs always yield identical verdicts.
type Validator struct {
	logger *slog.Logger
}

// New creates a structural validator.
func New() *Validator {
	return &Validator{logger: slog.Default().With("component", "validation")}
}

// Validate applies the zero-tolerance acceptance algorithm:
//
//  1. Every mandatory slot must be present with trimmed length at or above
//     its declared minimum — any shortfall is a violation.
//  2. Missing optional slots are logged, never violations.
//  3. Present optional slots may be empty.
//  4. Slots the contract never declared are tolerated and noted so drift
//     stays detectable.
//
// Violations are reported in contract declaration order so verdicts are
// stable across runs.
func (v *Validator) Validate(c domain.Contract, output domain.SlotOutput) domain.Verdict {
	var violations []domain.Violation
	var notes []string

	declared := make(map[domain.SlotName]struct{})
	for _, decl := range c.Slots() {
		declared[decl.Name] = struct{}{}

		text, present := output[decl.Name]
		if !present {
			if decl.Mandatory {
				violations = append(violations, domain.Violation{
					Slot:   decl.Name,
					Reason: "mandatory slot missing",
				})
			} else {
				notes = append(notes, fmt.Sprintf("optional slot %s absent", decl.Name))
				v.logger.Debug("optional slot absent",
					"episode", c.EpisodeIndex(), "slot", decl.Name)
			}
			continue
		}

		if !decl.Mandatory {
			// Present optional slots may be empty; nothing more to check.
			continue
		}

		trimmed := utf8.RuneCountInString(strings.TrimSpace(text))
		if trimmed < decl.Spec.MinLength {
			violations = append(violations, domain.Violation{
				Slot: decl.Name,
				Reason: fmt.Sprintf("trimmed length %d below minimum %d",
					trimmed, decl.Spec.MinLength),
			})
		}
	}

	// Undeclared slots are noted in sorted order for determinism.
	var undeclared []string
	for name := range output {
		if _, ok := declared[name]; !ok {
			undeclared = append(undeclared, string(name))
		}
	}
	sort.Strings(undeclared)
	for _, name := range undeclared {
		notes = append(notes, fmt.Sprintf("undeclared slot %s ignored", name))
	}

	return domain.NewVerdict(violations, notes)
}
