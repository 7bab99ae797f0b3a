package llm

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"
)

var (
	errTokensPerSecondInvalid = errors.New("tokensPerSecond must be greater than 0")
	errBurstSizeInvalid       = errors.New("burstSize must be greater than 0")
)

// newRateLimitMiddleware applies a local token bucket to outbound completion
// calls so concurrent batches respect the external provider's rate limits.
// Waiting blocks with context cancellation rather than rejecting.
func newRateLimitMiddleware(cfg RateLimitConfig) (Middleware, error) {
	if cfg.TokensPerSecond <= 0 {
		return nil, fmt.Errorf("%w, got %f", errTokensPerSecondInvalid, cfg.TokensPerSecond)
	}
	if cfg.BurstSize <= 0 {
		return nil, fmt.Errorf("%w, got %d", errBurstSizeInvalid, cfg.BurstSize)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.TokensPerSecond), cfg.BurstSize)

	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, &TransportError{
					Op:      "ratelimit",
					Message: "cancelled while waiting for rate limit",
					Cause:   err,
				}
			}
			return next.Handle(ctx, req)
		})
	}, nil
}
