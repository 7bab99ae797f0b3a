package llm

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedClient(t *testing.T, handler http.HandlerFunc) (Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client := newTestClient(t, handler, func(cfg *Config) {
		cfg.Cache = CacheConfig{Enabled: true, RedisAddr: mr.Addr(), TTL: DefaultCacheTTL}
	})
	return client, mr
}

func TestCacheMiddleware(t *testing.T) {
	t.Run("second identical prompt is served from cache", func(t *testing.T) {
		var calls atomic.Int32
		client, _ := newCachedClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte(`{"text":"the reveal","usage":{"total_tokens":9}}`))
		})

		first, err := client.Complete(context.Background(), &Request{Prompt: "episode 4 strict"})
		require.NoError(t, err)
		assert.False(t, first.FromCache)

		second, err := client.Complete(context.Background(), &Request{Prompt: "episode 4 strict"})
		require.NoError(t, err)
		assert.True(t, second.FromCache)
		assert.Equal(t, first.Text, second.Text)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("different prompts do not collide", func(t *testing.T) {
		var calls atomic.Int32
		client, _ := newCachedClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte(`{"text":"x","usage":{"total_tokens":1}}`))
		})

		_, err := client.Complete(context.Background(), &Request{Prompt: "episode 4 strict"})
		require.NoError(t, err)
		_, err = client.Complete(context.Background(), &Request{Prompt: "episode 4 relaxed"})
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("failures are never cached", func(t *testing.T) {
		var calls atomic.Int32
		client, _ := newCachedClient(t, func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				http.Error(w, "flaky", http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"text":"recovered","usage":{"total_tokens":3}}`))
		})

		_, err := client.Complete(context.Background(), &Request{Prompt: "p"})
		require.Error(t, err)

		resp, err := client.Complete(context.Background(), &Request{Prompt: "p"})
		require.NoError(t, err)
		assert.Equal(t, "recovered", resp.Text)
		assert.False(t, resp.FromCache)
	})

	t.Run("redis outage degrades to pass-through", func(t *testing.T) {
		var calls atomic.Int32
		client, mr := newCachedClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte(`{"text":"still works","usage":{"total_tokens":2}}`))
		})

		mr.Close()

		for i := 0; i < 2; i++ {
			resp, err := client.Complete(context.Background(), &Request{Prompt: "p"})
			require.NoError(t, err)
			assert.Equal(t, "still works", resp.Text)
		}
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("corrupted entry is dropped and regenerated", func(t *testing.T) {
		var calls atomic.Int32
		client, mr := newCachedClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte(`{"text":"fresh","usage":{"total_tokens":2}}`))
		})

		// Prime and then corrupt the stored entry.
		_, err := client.Complete(context.Background(), &Request{Prompt: "p"})
		require.NoError(t, err)
		for _, key := range mr.Keys() {
			require.NoError(t, mr.Set(key, "not-json"))
		}

		resp, err := client.Complete(context.Background(), &Request{Prompt: "p"})
		require.NoError(t, err)
		assert.False(t, resp.FromCache)
		assert.Equal(t, int32(2), calls.Load())
	})
}
