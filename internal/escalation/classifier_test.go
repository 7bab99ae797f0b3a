package escalation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-ai/inkwell/internal/domain"
	"github.com/inkwell-ai/inkwell/internal/llm"
)

func TestClassifier_StrictSuccessIsCompleted(t *testing.T) {
	c := baseContract(t)
	res := &Result{
		State:    StateSuccess,
		Contract: c,
		Output:   domain.SlotOutput{"cliffhanger": "gasps", "cold_open": "a long enough opening"},
		Summary:  domain.AttemptSummary{Attempts: 1, LastVariant: "strict"},
	}

	outcome, err := NewClassifier().Classify(4, res, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.EpisodeCompleted, outcome.Status)
	assert.Equal(t, "a long enough opening\n\ngasps", outcome.Content)
	assert.False(t, outcome.RelaxedAccepted)
	assert.Equal(t, 4, outcome.EpisodeIndex)
}

func TestClassifier_RelaxedSuccessIsFlagged(t *testing.T) {
	c := baseContract(t)
	res := &Result{
		State:    StateSuccess,
		Contract: c.Relaxed(domain.DefaultRelaxationPolicy()),
		Output:   goodOutput(),
		Relaxed:  true,
		Summary:  domain.AttemptSummary{Attempts: 4, LastVariant: "relaxed"},
	}

	outcome, err := NewClassifier().Classify(4, res, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.EpisodeCompleted, outcome.Status)
	assert.True(t, outcome.RelaxedAccepted)
	assert.NotEmpty(t, outcome.Content)
}

func TestClassifier_DegradedCarriesBestContentAndNote(t *testing.T) {
	c := baseContract(t)
	res := &Result{
		State:    StateDegraded,
		Contract: c,
		Output:   domain.SlotOutput{"cold_open": "too short"},
		Summary: domain.AttemptSummary{
			Attempts:    4,
			LastVariant: "relaxed",
			LastVerdict: "cliffhanger: mandatory slot missing",
		},
	}

	outcome, err := NewClassifier().Classify(4, res, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.EpisodeDegraded, outcome.Status)
	assert.Equal(t, "too short", outcome.Content)
	assert.Contains(t, outcome.RemediationNote, "episode 4")
	assert.Contains(t, outcome.RemediationNote, "4 attempts")
	assert.Contains(t, outcome.Reason, "cliffhanger")
}

func TestClassifier_DegradedWithoutOutputHasNoContent(t *testing.T) {
	res := &Result{
		State:    StateDegraded,
		Contract: baseContract(t),
		Summary:  domain.AttemptSummary{Attempts: 4, LastVariant: "relaxed", LastVerdict: "completion text was empty"},
	}

	outcome, err := NewClassifier().Classify(7, res, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.EpisodeDegraded, outcome.Status)
	assert.Empty(t, outcome.Content)
	assert.NotEmpty(t, outcome.RemediationNote)
}

func TestClassifier_TransportErrorIsHardFail(t *testing.T) {
	transportErr := &llm.TransportError{Op: "complete", Message: "connection refused"}

	outcome, err := NewClassifier().Classify(1, nil, transportErr)
	require.NoError(t, err)

	assert.Equal(t, domain.EpisodeHardFailed, outcome.Status)
	assert.Empty(t, outcome.Content)
	assert.Contains(t, outcome.Reason, "connection refused")
}

func TestClassifier_NonTransportErrorPropagates(t *testing.T) {
	_, err := NewClassifier().Classify(1, nil, errors.New("bug in pipeline"))
	require.Error(t, err)
}

func TestClassifier_AcceptedButUnassemblableIsAnError(t *testing.T) {
	res := &Result{
		State:    StateSuccess,
		Contract: baseContract(t),
		Output:   domain.SlotOutput{"rogue": "undeclared only"},
		Summary:  domain.AttemptSummary{Attempts: 1, LastVariant: "strict"},
	}

	_, err := NewClassifier().Classify(2, res, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyAssembly)
}

func TestClassifier_MissingResultIsAnError(t *testing.T) {
	_, err := NewClassifier().Classify(3, nil, nil)
	require.Error(t, err)
}
