package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inkwell.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultTemporalHostPort, cfg.Temporal.HostPort)
	assert.Equal(t, DefaultTaskQueue, cfg.Temporal.TaskQueue)
	assert.Empty(t, cfg.Redis.Addr)
	require.NotNil(t, cfg.LLM)
	assert.Equal(t, "drama-writer-large", cfg.LLM.Model)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
temporal:
  host_port: temporal.internal:7233
  task_queue: drama-queue
redis:
  addr: redis.internal:6379
  db: 2
llm:
  endpoint: https://llm.internal/v1/completions
  model: drama-writer-xl
generation:
  max_strict_attempts: 5
  failure_threshold: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "temporal.internal:7233", cfg.Temporal.HostPort)
	assert.Equal(t, DefaultNamespace, cfg.Temporal.Namespace, "unset fields keep defaults")
	assert.Equal(t, "drama-queue", cfg.Temporal.TaskQueue)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "drama-writer-xl", cfg.LLM.Model)

	gen := cfg.GenerationDefaults()
	assert.Equal(t, 5, gen.MaxStrictAttempts)
	assert.Equal(t, 3, gen.FailureThreshold)
	assert.False(t, gen.Relaxation.LowerMinimums)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/inkwell.yaml")
	require.Error(t, err)
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	path := writeConfig(t, "temporal: [not a map")
	_, err := Load(path)
	require.Error(t, err)
}

func TestGenerationDefaults_RelaxationScale(t *testing.T) {
	path := writeConfig(t, `
generation:
  lower_minimums: true
  minimum_scale: 0.5
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	gen := cfg.GenerationDefaults()
	assert.True(t, gen.Relaxation.LowerMinimums)
	assert.Equal(t, 0.5, gen.Relaxation.MinimumScale)
	assert.Equal(t, 3, gen.MaxStrictAttempts, "unset attempts keep domain default")
}
