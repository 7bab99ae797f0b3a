// Package contract constructs per-episode generation contracts from the
// series' narrative context and an external constraint source.
package contract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

// ConstraintSource supplies vocabulary constraints for tightened retry
// variants. Sources are read-only collaborators; a lookup failure must not
// block contract construction.
type ConstraintSource interface {
	VocabularyHints(ctx context.Context, narrative domain.NarrativeContext, episode int) (domain.VocabularyHints, error)
}

// StaticConstraintSource returns the same hints for every episode. The
// zero value returns empty hints, which leaves tightened variants with the
// base instructions.
type StaticConstraintSource struct {
	Hints domain.VocabularyHints
}

func (s StaticConstraintSource) VocabularyHints(context.Context, domain.NarrativeContext, int) (domain.VocabularyHints, error) {
	return s.Hints, nil
}

// DefaultSlotDecls is the serialized-drama episode shape: a hook at each
// end, escalating conflict in between, optional texture slots.
func DefaultSlotDecls() []domain.SlotDecl {
	return []domain.SlotDecl{
		{
			Name: "cold_open",
			Spec: domain.SlotSpec{
				Instruction: "Write a cold open that drops the viewer into mid-action tension within the first lines.",
				MinLength:   200,
				SemanticTag: "hook",
			},
			Mandatory: true,
		},
		{
			Name: "escalation",
			Spec: domain.SlotSpec{
				Instruction: "Escalate the central conflict established in prior episodes. Raise the stakes for the protagonist.",
				MinLength:   400,
				SemanticTag: "conflict",
			},
			Mandatory: true,
		},
		{
			Name: "dialogue_core",
			Spec: domain.SlotSpec{
				Instruction: "Write the episode's core confrontation as dialogue. Every line must reveal motive or shift power.",
				MinLength:   400,
				SemanticTag: "dialogue",
			},
			Mandatory: true,
		},
		{
			Name: "flashback",
			Spec: domain.SlotSpec{
				Instruction: "Optionally reveal backstory that reframes the present conflict.",
				SemanticTag: "texture",
			},
			Mandatory: false,
		},
		{
			Name: "cliffhanger",
			Spec: domain.SlotSpec{
				Instruction: "End on a cliffhanger that makes skipping the next episode impossible.",
				MinLength:   150,
				SemanticTag: "hook",
			},
			Mandatory: true,
		},
		{
			Name: "next_episode_teaser",
			Spec: domain.SlotSpec{
				Instruction: "Optionally tease the next episode in one or two sentences.",
				SemanticTag: "texture",
			},
			Mandatory: false,
		},
	}
}

// Builder assembles base contracts for episodes. Slot declarations are fixed
// at construction; narrative context flows through to generation untouched.
type Builder struct {
	decls  []domain.SlotDecl
	source ConstraintSource
	logger *slog.Logger
}

// NewBuilder creates a builder over the given slot declarations. Pass
// DefaultSlotDecls() for the standard episode shape.
func NewBuilder(decls []domain.SlotDecl, source ConstraintSource) *Builder {
	if source == nil {
		source = StaticConstraintSource{}
	}
	return &Builder{
		decls:  decls,
		source: source,
		logger: slog.Default().With("component", "contract"),
	}
}

// Build constructs the strict base contract for an episode together with
// the vocabulary hints its tightened variants will use. A constraint source
// failure degrades to empty hints rather than blocking the episode.
func (b *Builder) Build(ctx context.Context, episode int, narrative domain.NarrativeContext) (domain.Contract, domain.VocabularyHints, error) {
	c, err := domain.NewContract(episode, b.decls)
	if err != nil {
		return domain.Contract{}, domain.VocabularyHints{}, fmt.Errorf("build contract for episode %d: %w", episode, err)
	}

	hints, err := b.source.VocabularyHints(ctx, narrative, episode)
	if err != nil {
		b.logger.Warn("constraint source unavailable, proceeding without hints",
			"episode", episode, "error", err)
		hints = domain.VocabularyHints{}
	}
	return c, hints, nil
}
