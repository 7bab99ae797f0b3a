package domain

import "fmt"

const (
	defaultMaxStrictAttempts = 3
	defaultFailureThreshold  = 2
)

// GenerationConfig tunes the per-episode escalation and the batch failure
// policy. Defaults match production behavior; overrides come from the
// operational layer.
type GenerationConfig struct {
	// MaxStrictAttempts is N in the STRICT(1..N) escalation ladder
	// (minimum 1). Total generator calls per episode never exceed N+1.
	MaxStrictAttempts int `json:"max_strict_attempts" validate:"required,min=1"`

	// FailureThreshold is the number of consecutive hard failures that
	// pauses the batch (minimum 1). A hard failure on the very first
	// episode pauses immediately regardless of this threshold.
	FailureThreshold int `json:"failure_threshold" validate:"required,min=1"`

	// Relaxation controls whether the relaxed variant also lowers minimum
	// lengths. Default: tone softening only.
	Relaxation RelaxationPolicy `json:"relaxation"`
}

// DefaultGenerationConfig returns the production defaults: three strict
// attempts, pause after two consecutive hard failures, tone-only relaxation.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		MaxStrictAttempts: defaultMaxStrictAttempts,
		FailureThreshold:  defaultFailureThreshold,
		Relaxation:        DefaultRelaxationPolicy(),
	}
}

// Validate checks the configuration against its constraints.
func (c GenerationConfig) Validate() error { return validate.Struct(c) }

// BatchRequest starts one batch run over a contiguous episode range.
type BatchRequest struct {
	// BatchID uniquely identifies this batch for persistence and control.
	BatchID string `json:"batch_id" validate:"required"`

	// Range is the inclusive episode index range to process in ascending
	// order.
	Range EpisodeRange `json:"range"`

	// Narrative is the read-only narrative context the batch starts from.
	Narrative NarrativeContext `json:"narrative"`

	// Config tunes escalation and failure handling.
	Config GenerationConfig `json:"config"`
}

// Validate checks the request, including range ordering and config bounds.
func (r BatchRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBatch, err)
	}
	if err := r.Range.Validate(); err != nil {
		return err
	}
	if err := r.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBatch, err)
	}
	return nil
}

// NewBatchRequest constructs a validated batch request with default config
// applied where the caller left it zero.
func NewBatchRequest(batchID string, r EpisodeRange, narrative NarrativeContext) (*BatchRequest, error) {
	req := &BatchRequest{
		BatchID:   batchID,
		Range:     r,
		Narrative: narrative,
		Config:    DefaultGenerationConfig(),
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}
