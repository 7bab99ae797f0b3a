package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// completionRequest is the wire format posted to the completion endpoint.
type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// completionResponse is the wire format returned by the endpoint.
type completionResponse struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
	Usage struct {
		TotalTokens int64 `json:"total_tokens"`
	} `json:"usage"`
}

// httpHandler is the core transport: one POST per completion call.
// Every failure it produces is non-structural; structural judgment of the
// returned text happens upstream.
type httpHandler struct {
	client *http.Client
	cfg    *Config
}

func newHTTPHandler(client *http.Client, cfg *Config) Handler {
	return &httpHandler{client: client, cfg: cfg}
}

func (h *httpHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	const op = "complete"

	body, err := json.Marshal(completionRequest{
		Model:       h.cfg.Model,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if h.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	}
	if req.TraceID != "" {
		httpReq.Header.Set("X-Trace-Id", req.TraceID)
	}

	start := time.Now()
	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: op, Message: err.Error(), Cause: err}
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, StatusCode: httpResp.StatusCode, Message: "reading response body", Cause: err}
	}

	if err := classifyStatus(op, httpResp.StatusCode, string(raw)); err != nil {
		return nil, err
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, NewMalformedOutputError("response is not valid JSON", string(raw))
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return nil, fmt.Errorf("%w", ErrEmptyCompletion)
	}

	return &Response{
		Text:       parsed.Text,
		TokensUsed: parsed.Usage.TotalTokens,
		Model:      parsed.Model,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
