package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatchRequest(t *testing.T) {
	narrative := NarrativeContext{SeriesID: "midnight-heir"}

	t.Run("valid request gets defaults", func(t *testing.T) {
		req, err := NewBatchRequest("batch-1", EpisodeRange{First: 1, Last: 10}, narrative)
		require.NoError(t, err)
		assert.Equal(t, defaultMaxStrictAttempts, req.Config.MaxStrictAttempts)
		assert.Equal(t, defaultFailureThreshold, req.Config.FailureThreshold)
		assert.False(t, req.Config.Relaxation.LowerMinimums)
	})

	t.Run("missing batch id", func(t *testing.T) {
		_, err := NewBatchRequest("", EpisodeRange{First: 1, Last: 10}, narrative)
		assert.Error(t, err)
	})

	t.Run("missing series id", func(t *testing.T) {
		_, err := NewBatchRequest("batch-1", EpisodeRange{First: 1, Last: 10}, NarrativeContext{})
		assert.Error(t, err)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := NewBatchRequest("batch-1", EpisodeRange{First: 10, Last: 1}, narrative)
		assert.ErrorIs(t, err, ErrInvalidRange)
	})
}

func TestGenerationConfig_Validate(t *testing.T) {
	cfg := DefaultGenerationConfig()
	require.NoError(t, cfg.Validate())

	cfg.MaxStrictAttempts = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultGenerationConfig()
	cfg.FailureThreshold = 0
	assert.Error(t, cfg.Validate())
}
