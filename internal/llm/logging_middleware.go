package llm

import (
	"context"
	"log/slog"
	"time"
)

// newLoggingMiddleware logs every completion call with latency and outcome.
// Prompt text is never logged, only its size.
func newLoggingMiddleware() Middleware {
	logger := slog.Default().With("component", "llm")

	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			start := time.Now()
			resp, err := next.Handle(ctx, req)
			elapsed := time.Since(start)

			if err != nil {
				logger.Error("completion failed",
					"episode", req.EpisodeIndex,
					"variant", req.Variant,
					"prompt_bytes", len(req.Prompt),
					"elapsed", elapsed,
					"transport", IsTransport(err),
					"error", err)
				return nil, err
			}

			logger.Info("completion succeeded",
				"episode", req.EpisodeIndex,
				"variant", req.Variant,
				"prompt_bytes", len(req.Prompt),
				"output_bytes", len(resp.Text),
				"tokens_used", resp.TokensUsed,
				"from_cache", resp.FromCache,
				"elapsed", elapsed)
			return resp, nil
		})
	}
}
