package domain

// NarrativeContext is the read-only narrative state handed to contract
// construction and slot generation: prior-episode summaries, character
// constraints, and the pacing phase the episode falls in. The pipeline
// treats it as opaque input; business rules that compute it live with the
// narrative-state collaborator.
type NarrativeContext struct {
	// SeriesID identifies the serialized drama this episode belongs to.
	SeriesID string `json:"series_id" validate:"required"`

	// PriorSummaries holds one summary per already-drafted episode, oldest
	// first.
	PriorSummaries []string `json:"prior_summaries,omitempty"`

	// CharacterConstraints maps character names to active constraints
	// ("presumed dead since ep. 12", "cannot reveal the letter yet").
	CharacterConstraints map[string]string `json:"character_constraints,omitempty"`

	// PacingPhase names the arc position, e.g. "setup", "escalation",
	// "climax".
	PacingPhase string `json:"pacing_phase,omitempty"`
}

// Clone returns a deep copy so attempts cannot alias shared narrative state.
func (n NarrativeContext) Clone() NarrativeContext {
	out := n
	if n.PriorSummaries != nil {
		out.PriorSummaries = make([]string, len(n.PriorSummaries))
		copy(out.PriorSummaries, n.PriorSummaries)
	}
	out.CharacterConstraints = cloneStringMap(n.CharacterConstraints)
	return out
}
