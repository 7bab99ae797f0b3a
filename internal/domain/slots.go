package domain

import "maps"

// SlotOutput maps slot names to generated text for one generation attempt.
// Optional entries may be absent. A SlotOutput is owned exclusively by the
// attempt that produced it and is discarded when validation fails.
type SlotOutput map[SlotName]string

// IsEmpty reports whether no slot text was produced.
func (s SlotOutput) IsEmpty() bool { return len(s) == 0 }

// Clone returns a copy of the output to prevent aliasing across attempts.
// Returns nil for nil input to maintain consistency.
func (s SlotOutput) Clone() SlotOutput {
	if s == nil {
		return nil
	}
	out := make(SlotOutput, len(s))
	maps.Copy(out, s)
	return out
}
