package escalation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-ai/inkwell/internal/domain"
	"github.com/inkwell-ai/inkwell/internal/llm"
)

type scriptedCall struct {
	output domain.SlotOutput
	err    error
}

// scriptedGenerator replays outputs or errors in order and records the
// contract variant each call received.
type scriptedGenerator struct {
	tb       *testing.T
	calls    []scriptedCall
	next     int
	variants []domain.Variant
	seen     []domain.Contract
}

func (g *scriptedGenerator) Generate(_ context.Context, c domain.Contract, _ domain.NarrativeContext) (domain.SlotOutput, error) {
	g.variants = append(g.variants, c.Variant())
	g.seen = append(g.seen, c)
	require.Less(g.tb, g.next, len(g.calls), "generator called more times than scripted")
	call := g.calls[g.next]
	g.next++
	return call.output, call.err
}

// scriptedValidator replays verdicts in order.
type scriptedValidator struct {
	verdicts []domain.Verdict
	next     int
}

func (v *scriptedValidator) Validate(domain.Contract, domain.SlotOutput) domain.Verdict {
	verdict := v.verdicts[v.next]
	v.next++
	return verdict
}

func baseContract(t *testing.T) domain.Contract {
	t.Helper()
	c, err := domain.NewContract(4, []domain.SlotDecl{
		{Name: "cold_open", Spec: domain.SlotSpec{Instruction: "You must open hard.", MinLength: 10}, Mandatory: true},
		{Name: "cliffhanger", Spec: domain.SlotSpec{Instruction: "You must end on a hook.", MinLength: 5}, Mandatory: true},
	})
	require.NoError(t, err)
	return c
}

func valid() domain.Verdict { return domain.NewVerdict(nil, nil) }

func invalid(slot string) domain.Verdict {
	return domain.NewVerdict([]domain.Violation{
		{Slot: domain.SlotName(slot), Reason: "trimmed length 1 below minimum 10"},
	}, nil)
}

func goodOutput() domain.SlotOutput {
	return domain.SlotOutput{"cold_open": "a long enough opening", "cliffhanger": "gasps"}
}

func TestEscalator_FirstAttemptSucceeds(t *testing.T) {
	gen := &scriptedGenerator{tb: t, calls: []scriptedCall{{output: goodOutput()}}}
	val := &scriptedValidator{verdicts: []domain.Verdict{valid()}}
	esc := New(gen, val, domain.DefaultGenerationConfig())

	res, err := esc.Run(context.Background(), baseContract(t), domain.NarrativeContext{SeriesID: "s1"}, domain.VocabularyHints{})
	require.NoError(t, err)

	assert.Equal(t, StateSuccess, res.State)
	assert.True(t, res.Accepted())
	assert.False(t, res.Relaxed)
	assert.Equal(t, 1, res.Summary.Attempts)
	require.Len(t, gen.variants, 1)
	assert.Equal(t, domain.VariantStrict, gen.variants[0])
}

func TestEscalator_SecondAttemptUsesTightenedContract(t *testing.T) {
	gen := &scriptedGenerator{tb: t, calls: []scriptedCall{
		{output: domain.SlotOutput{"cold_open": "x"}},
		{output: goodOutput()},
	}}
	val := &scriptedValidator{verdicts: []domain.Verdict{invalid("cold_open"), valid()}}
	esc := New(gen, val, domain.DefaultGenerationConfig())

	hints := domain.VocabularyHints{Required: []string{"rain"}, Forbidden: []string{"sunshine"}}
	res, err := esc.Run(context.Background(), baseContract(t), domain.NarrativeContext{SeriesID: "s1"}, hints)
	require.NoError(t, err)

	assert.Equal(t, StateSuccess, res.State)
	assert.Equal(t, 2, res.Summary.Attempts)
	require.Len(t, gen.variants, 2)
	assert.Equal(t, domain.VariantStrict, gen.variants[0])
	assert.Equal(t, domain.VariantTightened, gen.variants[1])

	tightened, ok := gen.seen[1].Spec("cold_open")
	require.True(t, ok)
	assert.Contains(t, tightened.Spec.Instruction, "rain")
	assert.Contains(t, tightened.Spec.Instruction, "sunshine")
}

func TestEscalator_RelaxedSuccessIsFlagged(t *testing.T) {
	cfg := domain.DefaultGenerationConfig()
	gen := &scriptedGenerator{tb: t, calls: []scriptedCall{
		{output: goodOutput()},
		{output: goodOutput()},
		{output: goodOutput()},
		{output: goodOutput()},
	}}
	val := &scriptedValidator{verdicts: []domain.Verdict{
		invalid("cold_open"), invalid("cold_open"), invalid("cold_open"), valid(),
	}}
	esc := New(gen, val, cfg)

	res, err := esc.Run(context.Background(), baseContract(t), domain.NarrativeContext{SeriesID: "s1"}, domain.VocabularyHints{})
	require.NoError(t, err)

	assert.Equal(t, StateSuccess, res.State)
	assert.True(t, res.Relaxed)
	assert.Equal(t, cfg.MaxStrictAttempts+1, res.Summary.Attempts)
	assert.Equal(t, domain.VariantRelaxed, gen.variants[len(gen.variants)-1])
}

func TestEscalator_ExhaustionDegradesWithLastVerdict(t *testing.T) {
	gen := &scriptedGenerator{tb: t, calls: []scriptedCall{
		{output: goodOutput()},
		{output: goodOutput()},
		{output: goodOutput()},
		{output: goodOutput()},
	}}
	val := &scriptedValidator{verdicts: []domain.Verdict{
		invalid("cold_open"), invalid("cold_open"), invalid("cold_open"), invalid("cliffhanger"),
	}}
	esc := New(gen, val, domain.DefaultGenerationConfig())

	res, err := esc.Run(context.Background(), baseContract(t), domain.NarrativeContext{SeriesID: "s1"}, domain.VocabularyHints{})
	require.NoError(t, err)

	assert.Equal(t, StateDegraded, res.State)
	assert.False(t, res.Accepted())
	assert.Equal(t, 4, res.Summary.Attempts)
	assert.Equal(t, domain.VariantRelaxed.String(), res.Summary.LastVariant)
	assert.Contains(t, res.Summary.LastVerdict, "cliffhanger")
	assert.NotNil(t, res.Output, "best-available output survives degradation")
}

func TestEscalator_StructuralGeneratorErrorSpendsAttempt(t *testing.T) {
	gen := &scriptedGenerator{tb: t, calls: []scriptedCall{
		{err: llm.NewMalformedOutputError("not JSON", "oops")},
		{output: goodOutput()},
	}}
	val := &scriptedValidator{verdicts: []domain.Verdict{valid()}}
	esc := New(gen, val, domain.DefaultGenerationConfig())

	res, err := esc.Run(context.Background(), baseContract(t), domain.NarrativeContext{SeriesID: "s1"}, domain.VocabularyHints{})
	require.NoError(t, err)

	assert.Equal(t, StateSuccess, res.State)
	assert.Equal(t, 2, res.Summary.Attempts)
}

func TestEscalator_InfrastructureErrorPropagatesImmediately(t *testing.T) {
	renderErr := errors.New("render episode prompt: template: episode:3: executing \"episode\" at <.Slots>: nil pointer")
	gen := &scriptedGenerator{tb: t, calls: []scriptedCall{{err: renderErr}}}
	val := &scriptedValidator{}
	esc := New(gen, val, domain.DefaultGenerationConfig())

	res, err := esc.Run(context.Background(), baseContract(t), domain.NarrativeContext{SeriesID: "s1"}, domain.VocabularyHints{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, renderErr)
	assert.Equal(t, 1, gen.next, "a deterministic fault must not burn the attempt budget")
	assert.Equal(t, 0, val.next)
}

// mutatingGenerator tampers with the narrative it is handed, the way a
// buggy collaborator sharing map state would.
type mutatingGenerator struct {
	output domain.SlotOutput
}

func (g *mutatingGenerator) Generate(_ context.Context, _ domain.Contract, narrative domain.NarrativeContext) (domain.SlotOutput, error) {
	if len(narrative.PriorSummaries) > 0 {
		narrative.PriorSummaries[0] = "tampered"
	}
	narrative.CharacterConstraints["Mara"] = "tampered"
	return g.output, nil
}

func TestEscalator_CallerNarrativeNeverAliased(t *testing.T) {
	narrative := domain.NarrativeContext{
		SeriesID:             "s1",
		PriorSummaries:       []string{"Mara finds the letter."},
		CharacterConstraints: map[string]string{"Mara": "cannot reveal the letter yet"},
	}

	gen := &mutatingGenerator{output: goodOutput()}
	val := &scriptedValidator{verdicts: []domain.Verdict{valid()}}
	esc := New(gen, val, domain.DefaultGenerationConfig())

	_, err := esc.Run(context.Background(), baseContract(t), narrative, domain.VocabularyHints{})
	require.NoError(t, err)

	assert.Equal(t, "Mara finds the letter.", narrative.PriorSummaries[0])
	assert.Equal(t, "cannot reveal the letter yet", narrative.CharacterConstraints["Mara"])
}

func TestEscalator_TransportErrorPropagatesImmediately(t *testing.T) {
	transportErr := &llm.TransportError{Op: "complete", Message: "connection refused"}
	gen := &scriptedGenerator{tb: t, calls: []scriptedCall{{err: transportErr}}}
	val := &scriptedValidator{}
	esc := New(gen, val, domain.DefaultGenerationConfig())

	res, err := esc.Run(context.Background(), baseContract(t), domain.NarrativeContext{SeriesID: "s1"}, domain.VocabularyHints{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, llm.IsTransport(err))
	assert.Equal(t, 1, gen.next, "no retry after a transport failure")
	assert.Equal(t, 0, val.next, "nothing reaches validation")
}

func TestEscalator_TransportErrorMidLadderPropagates(t *testing.T) {
	gen := &scriptedGenerator{tb: t, calls: []scriptedCall{
		{output: goodOutput()},
		{err: &llm.TransportError{Op: "complete", Message: "gateway timeout", StatusCode: 504}},
	}}
	val := &scriptedValidator{verdicts: []domain.Verdict{invalid("cold_open")}}
	esc := New(gen, val, domain.DefaultGenerationConfig())

	res, err := esc.Run(context.Background(), baseContract(t), domain.NarrativeContext{SeriesID: "s1"}, domain.VocabularyHints{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, llm.IsTransport(err))
}

func TestEscalator_AttemptBudgetNeverExceeded(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		cfg := domain.DefaultGenerationConfig()
		cfg.MaxStrictAttempts = n

		calls := make([]scriptedCall, n+1)
		verdicts := make([]domain.Verdict, n+1)
		for i := range calls {
			calls[i] = scriptedCall{output: goodOutput()}
			verdicts[i] = invalid("cold_open")
		}
		gen := &scriptedGenerator{tb: t, calls: calls}
		val := &scriptedValidator{verdicts: verdicts}
		esc := New(gen, val, cfg)

		res, err := esc.Run(context.Background(), baseContract(t), domain.NarrativeContext{SeriesID: "s1"}, domain.VocabularyHints{})
		require.NoError(t, err)
		assert.Equal(t, StateDegraded, res.State, "N=%d", n)
		assert.Equal(t, n+1, gen.next, "N=%d: exactly N+1 generator calls", n)
	}
}

func TestEscalator_BaseContractNeverMutated(t *testing.T) {
	base := baseContract(t)
	beforeDecl, ok := base.Spec("cold_open")
	require.True(t, ok)
	before := beforeDecl.Spec.Instruction

	gen := &scriptedGenerator{tb: t, calls: []scriptedCall{
		{output: goodOutput()}, {output: goodOutput()}, {output: goodOutput()}, {output: goodOutput()},
	}}
	val := &scriptedValidator{verdicts: []domain.Verdict{
		invalid("cold_open"), invalid("cold_open"), invalid("cold_open"), invalid("cold_open"),
	}}
	esc := New(gen, val, domain.DefaultGenerationConfig())

	_, err := esc.Run(context.Background(), base, domain.NarrativeContext{SeriesID: "s1"},
		domain.VocabularyHints{Required: []string{"storm"}})
	require.NoError(t, err)

	afterDecl, ok := base.Spec("cold_open")
	require.True(t, ok)
	assert.Equal(t, before, afterDecl.Spec.Instruction)
	assert.Equal(t, domain.VariantStrict, base.Variant())
}
