package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompletedOutcome(t *testing.T) {
	summary := AttemptSummary{Attempts: 2, LastVariant: "tightened", LastVerdict: "valid"}

	t.Run("carries content", func(t *testing.T) {
		o, err := NewCompletedOutcome(4, "INT. KITCHEN - NIGHT", false, summary)
		require.NoError(t, err)
		assert.Equal(t, EpisodeCompleted, o.Status)
		assert.Equal(t, "INT. KITCHEN - NIGHT", o.Content)
		assert.False(t, o.RelaxedAccepted)
		assert.Equal(t, 2, o.Attempts.Attempts)
		assert.False(t, o.GeneratedAt.IsZero())
	})

	t.Run("relaxed acceptance is flagged", func(t *testing.T) {
		o, err := NewCompletedOutcome(4, "text", true, summary)
		require.NoError(t, err)
		assert.True(t, o.RelaxedAccepted)
	})

	t.Run("empty content is an integrity breach", func(t *testing.T) {
		_, err := NewCompletedOutcome(4, "", false, summary)
		assert.ErrorIs(t, err, ErrBatchIntegrity)
	})
}

func TestNewDegradedOutcome(t *testing.T) {
	o := NewDegradedOutcome(9, "partial draft", "cliffhanger: trimmed length 12 below minimum 80",
		AttemptSummary{Attempts: 4, LastVariant: "relaxed"})

	assert.Equal(t, EpisodeDegraded, o.Status)
	assert.Equal(t, "partial draft", o.Content)
	assert.Contains(t, o.RemediationNote, "episode 9")
	assert.Contains(t, o.RemediationNote, "4 attempts")
	assert.Contains(t, o.RemediationNote, "relaxed")
	assert.Contains(t, o.RemediationNote, "re-generate")
}

func TestNewHardFailOutcome(t *testing.T) {
	o := NewHardFailOutcome(1, "generator unreachable: dial tcp: connection refused")

	assert.Equal(t, EpisodeHardFailed, o.Status)
	assert.Empty(t, o.Content, "hard failures never carry content")
	assert.Contains(t, o.Reason, "connection refused")
}
