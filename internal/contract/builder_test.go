package contract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

type failingSource struct{}

func (failingSource) VocabularyHints(context.Context, domain.NarrativeContext, int) (domain.VocabularyHints, error) {
	return domain.VocabularyHints{}, errors.New("constraint service down")
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder(DefaultSlotDecls(), StaticConstraintSource{
		Hints: domain.VocabularyHints{Required: []string{"storm"}},
	})

	c, hints, err := b.Build(context.Background(), 7, domain.NarrativeContext{SeriesID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, 7, c.EpisodeIndex())
	assert.Equal(t, domain.VariantStrict, c.Variant())
	assert.Equal(t, []string{"storm"}, hints.Required)

	// Declaration order is the assembly order; it must survive construction.
	assert.Equal(t, []domain.SlotName{
		"cold_open", "escalation", "dialogue_core", "flashback", "cliffhanger", "next_episode_teaser",
	}, c.SlotNames())
}

func TestBuilder_DefaultShapeHasMandatoryBookends(t *testing.T) {
	b := NewBuilder(DefaultSlotDecls(), nil)
	c, _, err := b.Build(context.Background(), 1, domain.NarrativeContext{SeriesID: "s1"})
	require.NoError(t, err)

	mandatory := c.MandatorySlots()
	assert.Contains(t, mandatory, domain.SlotName("cold_open"))
	assert.Contains(t, mandatory, domain.SlotName("cliffhanger"))

	optional := c.OptionalSlots()
	assert.Contains(t, optional, domain.SlotName("flashback"))
	assert.Contains(t, optional, domain.SlotName("next_episode_teaser"))
}

func TestBuilder_ConstraintSourceFailureDegradesToEmptyHints(t *testing.T) {
	b := NewBuilder(DefaultSlotDecls(), failingSource{})

	c, hints, err := b.Build(context.Background(), 2, domain.NarrativeContext{SeriesID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 2, c.EpisodeIndex())
	assert.Empty(t, hints.Required)
	assert.Empty(t, hints.Forbidden)
}

func TestBuilder_InvalidDeclsFail(t *testing.T) {
	onlyOptional := []domain.SlotDecl{
		{Name: "flashback", Spec: domain.SlotSpec{Instruction: "recall"}, Mandatory: false},
	}
	b := NewBuilder(onlyOptional, nil)

	_, _, err := b.Build(context.Background(), 1, domain.NarrativeContext{SeriesID: "s1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidContract)
}
