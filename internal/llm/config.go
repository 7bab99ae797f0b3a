package llm

import (
	"errors"
	"net/http"
	"os"
	"time"
)

// Configuration defaults for the completion client.
const (
	DefaultHTTPTimeout  = 120 * time.Second
	DefaultMaxIdleConns = 10
	DefaultIdleTimeout  = 90 * time.Second
	DefaultTLSTimeout   = 10 * time.Second

	DefaultMaxTokens   = 4000
	DefaultTemperature = 0.8

	DefaultTokensPerSecond = 1.0
	DefaultBurstSize       = 2

	DefaultCacheTTL = 24 * time.Hour
)

var errMissingEndpoint = errors.New("completion endpoint is required")

// RateLimitConfig configures the local token-bucket limiter applied to every
// outbound completion call.
type RateLimitConfig struct {
	Enabled         bool    `json:"enabled" yaml:"enabled"`
	TokensPerSecond float64 `json:"tokens_per_second" yaml:"tokens_per_second"`
	BurstSize       int     `json:"burst_size" yaml:"burst_size"`
}

// CacheConfig configures the success-only Redis response cache. When Redis is
// unreachable the client degrades gracefully to pass-through.
type CacheConfig struct {
	Enabled       bool          `json:"enabled" yaml:"enabled"`
	RedisAddr     string        `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `json:"-" yaml:"redis_password"` // Sensitive, not serialized
	RedisDB       int           `json:"redis_db" yaml:"redis_db"`
	TTL           time.Duration `json:"ttl" yaml:"ttl"`
}

// Config holds the completion client configuration: endpoint, auth, sampling
// defaults, and the middleware knobs. Network-layer retry is deliberately
// absent; all retrying belongs to the escalation ladder above this client.
type Config struct {
	// Endpoint is the completion API URL.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Model names the model requested from the endpoint.
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the endpoint. Populated from APIKeyEnv
	// when empty.
	APIKey    string `json:"-" yaml:"-"`
	APIKeyEnv string `json:"api_key_env" yaml:"api_key_env"`

	HTTPTimeout time.Duration `json:"http_timeout" yaml:"http_timeout"`
	HTTPClient  *http.Client  `json:"-" yaml:"-"`

	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `json:"temperature" yaml:"temperature"`

	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
}

// DefaultConfig returns a configuration suitable for local development:
// rate limiting on, caching off until a Redis address is supplied.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:    "http://localhost:8080/v1/completions",
		Model:       "drama-writer-large",
		APIKeyEnv:   "INKWELL_API_KEY",
		HTTPTimeout: DefaultHTTPTimeout,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		RateLimit: RateLimitConfig{
			Enabled:         true,
			TokensPerSecond: DefaultTokensPerSecond,
			BurstSize:       DefaultBurstSize,
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     DefaultCacheTTL,
		},
	}
}

// Validate checks required fields and resolves the API key from the
// environment when configured.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errMissingEndpoint
	}
	if c.APIKey == "" && c.APIKeyEnv != "" {
		c.APIKey = os.Getenv(c.APIKeyEnv)
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return nil
}
