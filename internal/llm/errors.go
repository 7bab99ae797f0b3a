package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Common generator errors for consistent error handling.
var (
	// ErrGeneratorUnavailable indicates the completion endpoint is down or
	// unreachable.
	ErrGeneratorUnavailable = errors.New("generator unavailable")

	// ErrEmptyCompletion indicates the generator returned no text at all.
	ErrEmptyCompletion = errors.New("generator returned empty completion")

	// ErrEmptyPrompt indicates a completion was requested without a prompt.
	ErrEmptyPrompt = errors.New("empty prompt")
)

// TransportError is a non-structural generator failure: the model endpoint
// could not be reached or answered with an infrastructure-level error. The
// escalation loop must never absorb these; they propagate immediately as a
// distinct hard-failure category.
type TransportError struct {
	Op         string `json:"op"`          // Operation that failed
	StatusCode int    `json:"status_code"` // HTTP status, 0 for network errors
	Message    string `json:"message"`
	Cause      error  `json:"-"`
}

// Error returns the formatted transport error with status context.
func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: transport failure (status %d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: transport failure: %s", e.Op, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *TransportError) Unwrap() error { return e.Cause }

// MalformedOutputError is a structural generator failure: the call itself
// succeeded but the output is not usable (non-text, empty, or undecodable).
// Visible failure is preferred to invented filler, so this never degrades
// into placeholder text; the escalator treats it like any other structural
// failure and retries.
type MalformedOutputError struct {
	Reason string `json:"reason"`
	Raw    string `json:"raw,omitempty"` // Truncated raw output for diagnostics
}

// Error returns the formatted malformed-output error.
func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed generator output: %s", e.Reason)
}

// maxRawSnippet bounds how much raw model output is carried in errors.
const maxRawSnippet = 200

// NewMalformedOutputError builds a structural output error with a bounded
// snippet of the offending raw text.
func NewMalformedOutputError(reason, raw string) *MalformedOutputError {
	if len(raw) > maxRawSnippet {
		raw = raw[:maxRawSnippet] + "..."
	}
	return &MalformedOutputError{Reason: reason, Raw: raw}
}

// IsTransport reports whether an error is a non-structural transport
// failure. The escalator uses this to short-circuit instead of retrying
// structurally; the activity boundary uses it to classify hard failures.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	if errors.Is(err, ErrGeneratorUnavailable) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return isNetworkError(err)
}

// IsStructural reports whether an error is a structural output failure that
// the escalation ladder may recover from.
func IsStructural(err error) bool {
	if err == nil {
		return false
	}
	var malformedErr *MalformedOutputError
	if errors.As(err, &malformedErr) {
		return true
	}
	return errors.Is(err, ErrEmptyCompletion)
}

// classifyStatus maps an HTTP response status to a transport error, or nil
// for success. Every non-2xx status is non-structural by definition: the
// contract machinery never retries what the infrastructure refused.
func classifyStatus(op string, status int, body string) error {
	if status >= 200 && status < 300 {
		return nil
	}

	msg := strings.TrimSpace(body)
	if len(msg) > maxRawSnippet {
		msg = msg[:maxRawSnippet]
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	return &TransportError{
		Op:         op,
		StatusCode: status,
		Message:    msg,
		Cause:      ErrGeneratorUnavailable,
	}
}

// isNetworkError checks if an error is network-related using proper type
// assertions rather than fragile string matching.
func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
