// Package llm implements the content-generator collaborator: a resilient
// HTTP client for a text-completion endpoint with a composable middleware
// chain for logging, local rate limiting, and success-only response caching.
//
// The client enforces no output-format contract itself — it returns raw text
// and classified errors. Structural validation of what the model produced
// belongs to the generation pipeline above it, and so does every retry
// decision: this layer never retries.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Request is one completion call to the external generator.
type Request struct {
	// Prompt is the full rendered prompt text.
	Prompt string `json:"prompt"`

	// EpisodeIndex and Variant identify the attempt for logging and cache
	// partitioning.
	EpisodeIndex int    `json:"episode_index"`
	Variant      string `json:"variant"`

	// MaxTokens and Temperature override the configured defaults when >0.
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`

	// TraceID correlates the call with the surrounding workflow.
	TraceID string `json:"trace_id,omitempty"`
}

// Response is the raw completion result.
type Response struct {
	Text       string `json:"text"`
	TokensUsed int64  `json:"tokens_used"`
	Model      string `json:"model,omitempty"`
	FromCache  bool   `json:"from_cache,omitempty"`
	LatencyMs  int64  `json:"latency_ms,omitempty"`
}

// Handler processes completion requests. Middleware wraps handlers to form
// the processing chain.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware wraps a handler with additional behavior.
type Middleware func(Handler) Handler

// Chain applies middlewares to a handler in reverse order, so the first
// middleware in the list is the outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Client is the high-level completion interface handed to the pipeline.
// One Complete call is exactly one logical generator invocation.
type Client interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

type client struct {
	config  *Config
	handler Handler
}

// NewClient builds the completion client with its middleware chain:
// logging → cache → rate limit → HTTP core. Cache middleware is only
// installed when enabled and degrades to pass-through if Redis is down.
func NewClient(cfg *Config) (Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid llm config: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          DefaultMaxIdleConns,
				IdleConnTimeout:       DefaultIdleTimeout,
				TLSHandshakeTimeout:   DefaultTLSTimeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
			Timeout: cfg.HTTPTimeout,
		}
	}

	core := newHTTPHandler(httpClient, cfg)

	var middlewares []Middleware
	middlewares = append(middlewares, newLoggingMiddleware())

	if cfg.Cache.Enabled {
		cacheMW, err := newCacheMiddleware(cfg.Cache, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize response cache: %w", err)
		}
		middlewares = append(middlewares, cacheMW)
	}

	if cfg.RateLimit.Enabled {
		rlMW, err := newRateLimitMiddleware(cfg.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
		}
		middlewares = append(middlewares, rlMW)
	}

	return &client{
		config:  cfg,
		handler: Chain(core, middlewares...),
	}, nil
}

// Complete implements Client with exactly one delegated call through the
// middleware chain.
func (c *client) Complete(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || req.Prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = c.config.MaxTokens
	}
	if req.Temperature <= 0 {
		req.Temperature = c.config.Temperature
	}
	return c.handler.Handle(ctx, req)
}
