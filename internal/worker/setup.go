// Package worker provides initialization and registration for Temporal
// workers, keeping activity packages focused on pipeline logic.
package worker

import (
	"context"
	"fmt"

	"github.com/inkwell-ai/inkwell/internal/contract"
	"github.com/inkwell-ai/inkwell/internal/domain"
	"github.com/inkwell-ai/inkwell/internal/escalation"
	"github.com/inkwell-ai/inkwell/internal/generation"
	"github.com/inkwell-ai/inkwell/internal/llm"
	"github.com/inkwell-ai/inkwell/internal/store"
	"github.com/inkwell-ai/inkwell/internal/validation"
)

// Dependencies bundles everything the batch activities need, built once at
// worker startup and injected rather than held as global state.
type Dependencies struct {
	Client    llm.Client
	Store     store.Store
	Builder   *contract.Builder
	Escalator *escalation.Escalator
}

// InitializeLLMClient builds the generator client with its middleware
// pipeline (logging, caching, rate limiting). A nil config uses defaults.
func InitializeLLMClient(cfg *llm.Config) (llm.Client, error) {
	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize llm client: %w", err)
	}
	return client, nil
}

// InitializeStore connects the persistence backend. An empty address falls
// back to the in-memory store for development runs.
func InitializeStore(ctx context.Context, redisAddr, redisPassword string, redisDB int) (store.Store, error) {
	if redisAddr == "" {
		return store.NewMemoryStore(), nil
	}

	rs := store.NewRedisStore(redisAddr, redisPassword, redisDB)
	if err := rs.Ping(ctx); err != nil {
		return nil, fmt.Errorf("redis unreachable at %s: %w", redisAddr, err)
	}
	return rs, nil
}

// BuildDependencies assembles the pipeline stages behind the activities.
func BuildDependencies(
	client llm.Client,
	st store.Store,
	source contract.ConstraintSource,
	genCfg domain.GenerationConfig,
) Dependencies {
	generator := generation.NewSlotGenerator(client, generation.NewPromptCache())
	builder := contract.NewBuilder(contract.DefaultSlotDecls(), source)
	escalator := escalation.New(generator, validation.New(), genCfg)

	return Dependencies{
		Client:    client,
		Store:     st,
		Builder:   builder,
		Escalator: escalator,
	}
}
