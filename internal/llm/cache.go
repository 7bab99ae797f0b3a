package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheKeyPrefix namespaces completion cache entries in Redis.
const cacheKeyPrefix = "inkwell:completion:"

// cachedResponse is the stored representation of a successful completion.
type cachedResponse struct {
	Text       string `json:"text"`
	TokensUsed int64  `json:"tokens_used"`
	Model      string `json:"model,omitempty"`
	StoredAtMs int64  `json:"stored_at_ms"`
}

// cacheMiddleware is a success-only response cache. Identical prompts for
// the same model return the cached text, which keeps re-runs of a crashed
// batch from re-paying for episodes the model already wrote. Failures are
// never cached, and a dead Redis degrades to pass-through.
type cacheMiddleware struct {
	client *redis.Client
	model  string
	ttl    time.Duration
	logger *slog.Logger
}

func newCacheMiddleware(cfg CacheConfig, model string) (Middleware, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("cache enabled but redis address is empty")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	cm := &cacheMiddleware{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}),
		model:  model,
		ttl:    ttl,
		logger: slog.Default().With("component", "llm-cache"),
	}

	return cm.middleware(), nil
}

func (c *cacheMiddleware) middleware() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			key := c.cacheKey(req)

			if resp, ok := c.lookup(ctx, key); ok {
				return resp, nil
			}

			resp, err := next.Handle(ctx, req)
			if err != nil {
				return nil, err
			}

			c.store(ctx, key, resp)
			return resp, nil
		})
	}
}

// cacheKey derives a deterministic key from model and prompt. Variant is
// part of the prompt text, so tightened and relaxed attempts never collide
// with strict ones.
func (c *cacheMiddleware) cacheKey(req *Request) string {
	h := sha256.New()
	h.Write([]byte(c.model))
	h.Write([]byte{0})
	h.Write([]byte(req.Prompt))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *cacheMiddleware) lookup(ctx context.Context, key string) (*Response, bool) {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache lookup failed, passing through", "error", err)
		}
		return nil, false
	}

	var cached cachedResponse
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		// Corrupted entry; drop it and regenerate.
		_ = c.client.Del(ctx, key).Err()
		return nil, false
	}

	return &Response{
		Text:       cached.Text,
		TokensUsed: cached.TokensUsed,
		Model:      cached.Model,
		FromCache:  true,
	}, true
}

func (c *cacheMiddleware) store(ctx context.Context, key string, resp *Response) {
	raw, err := json.Marshal(cachedResponse{
		Text:       resp.Text,
		TokensUsed: resp.TokensUsed,
		Model:      resp.Model,
		StoredAtMs: time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache store failed", "error", err)
	}
}
