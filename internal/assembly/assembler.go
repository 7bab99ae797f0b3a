// Package assembly turns validated slot output into linear episode text.
// Assembly is pure and deterministic: it never invents, paraphrases, pads,
// or normalizes content, and it fails loudly rather than emit nothing.
package assembly

import (
	"strings"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

// Separator joins adjacent slots in the assembled episode.
const Separator = "\n\n"

// Assemble concatenates slot text in the contract's declaration order —
// never the iteration order of the underlying map. Slots absent from the
// output (skipped optionals) are simply not emitted; undeclared slots are
// never emitted. Validated text appears verbatim.
//
// An empty SlotOutput is an AssemblyFailure: returns ErrEmptyAssembly.
func Assemble(c domain.Contract, output domain.SlotOutput) (string, error) {
	if output.IsEmpty() {
		return "", domain.ErrEmptyAssembly
	}

	parts := make([]string, 0, len(output))
	for _, name := range c.SlotNames() {
		text, ok := output[name]
		if !ok {
			continue
		}
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		// Output held only undeclared slots; nothing assemblable.
		return "", domain.ErrEmptyAssembly
	}

	return strings.Join(parts, Separator), nil
}
