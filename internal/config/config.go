// Package config loads the worker and CLI configuration from a YAML file,
// layering file values over built-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inkwell-ai/inkwell/internal/domain"
	"github.com/inkwell-ai/inkwell/internal/llm"
)

// Defaults for the Temporal connection.
const (
	DefaultTemporalHostPort = "localhost:7233"
	DefaultNamespace        = "default"
	DefaultTaskQueue        = "inkwell-episodes"
)

// TemporalConfig locates the Temporal server and the worker's task queue.
type TemporalConfig struct {
	HostPort  string `yaml:"host_port"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"task_queue"`
}

// RedisConfig locates the persistence backend. An empty address selects the
// in-memory store, which loses state across restarts.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GenerationConfig mirrors domain.GenerationConfig for YAML loading; zero
// fields take the domain defaults.
type GenerationConfig struct {
	MaxStrictAttempts int     `yaml:"max_strict_attempts"`
	FailureThreshold  int     `yaml:"failure_threshold"`
	LowerMinimums     bool    `yaml:"lower_minimums"`
	MinimumScale      float64 `yaml:"minimum_scale"`
}

// Config is the full application configuration.
type Config struct {
	Temporal   TemporalConfig   `yaml:"temporal"`
	Redis      RedisConfig      `yaml:"redis"`
	LLM        *llm.Config      `yaml:"llm"`
	Generation GenerationConfig `yaml:"generation"`
}

// Default returns the built-in configuration: local Temporal, in-memory
// store, local completion endpoint.
func Default() *Config {
	return &Config{
		Temporal: TemporalConfig{
			HostPort:  DefaultTemporalHostPort,
			Namespace: DefaultNamespace,
			TaskQueue: DefaultTaskQueue,
		},
		LLM: llm.DefaultConfig(),
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.LLM == nil {
		cfg.LLM = llm.DefaultConfig()
	}
	if cfg.Temporal.HostPort == "" {
		cfg.Temporal.HostPort = DefaultTemporalHostPort
	}
	if cfg.Temporal.Namespace == "" {
		cfg.Temporal.Namespace = DefaultNamespace
	}
	if cfg.Temporal.TaskQueue == "" {
		cfg.Temporal.TaskQueue = DefaultTaskQueue
	}
	return cfg, nil
}

// GenerationDefaults resolves the YAML generation section against the
// domain defaults.
func (c *Config) GenerationDefaults() domain.GenerationConfig {
	gen := domain.DefaultGenerationConfig()
	if c.Generation.MaxStrictAttempts > 0 {
		gen.MaxStrictAttempts = c.Generation.MaxStrictAttempts
	}
	if c.Generation.FailureThreshold > 0 {
		gen.FailureThreshold = c.Generation.FailureThreshold
	}
	if c.Generation.LowerMinimums {
		gen.Relaxation = domain.RelaxationPolicy{
			LowerMinimums: true,
			MinimumScale:  c.Generation.MinimumScale,
		}
	}
	return gen
}
