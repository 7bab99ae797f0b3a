package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inkwell-ai/inkwell/internal/domain"
	"github.com/inkwell-ai/inkwell/internal/llm"
)

// SlotGenerator produces text for every slot named in a contract variant via
// exactly one delegated call to the completion client. It owns the decode of
// the model's structured output; it does not judge whether the decoded slots
// satisfy the contract — that is the structural validator's job.
type SlotGenerator struct {
	client  llm.Client
	prompts *PromptCache
	logger  *slog.Logger
}

// NewSlotGenerator creates a generator around a completion client and an
// injected prompt cache.
func NewSlotGenerator(client llm.Client, prompts *PromptCache) *SlotGenerator {
	return &SlotGenerator{
		client:  client,
		prompts: prompts,
		logger:  slog.Default().With("component", "generation"),
	}
}

// Generate renders the prompt for the contract variant, performs the single
// external call, and decodes the response into a SlotOutput.
//
// Error surface: transport failures pass through untouched for the caller to
// classify; any non-text, empty, or undecodable output comes back as a
// structural MalformedOutputError. Placeholder text is never substituted —
// visible failure is preferred to invented filler.
func (g *SlotGenerator) Generate(
	ctx context.Context,
	c domain.Contract,
	narrative domain.NarrativeContext,
) (domain.SlotOutput, error) {
	prompt, err := g.prompts.RenderEpisodePrompt(c, narrative)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Complete(ctx, &llm.Request{
		Prompt:       prompt,
		EpisodeIndex: c.EpisodeIndex(),
		Variant:      c.Variant().String(),
	})
	if err != nil {
		return nil, fmt.Errorf("episode %d %s attempt: %w", c.EpisodeIndex(), c.Variant(), err)
	}

	output, err := decodeSlotOutput(resp.Text)
	if err != nil {
		g.logger.Warn("generator output rejected",
			"episode", c.EpisodeIndex(),
			"variant", c.Variant().String(),
			"error", err)
		return nil, err
	}

	return output, nil
}

// decodeSlotOutput parses the model's response into slot texts. The response
// must be one JSON object whose values are all strings; anything else is a
// structural failure.
func decodeSlotOutput(raw string) (domain.SlotOutput, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return nil, llm.NewMalformedOutputError("empty response", raw)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, llm.NewMalformedOutputError(fmt.Sprintf("not a JSON object: %v", err), raw)
	}
	if len(decoded) == 0 {
		return nil, llm.NewMalformedOutputError("JSON object has no slots", raw)
	}

	output := make(domain.SlotOutput, len(decoded))
	for name, value := range decoded {
		var text string
		if err := json.Unmarshal(value, &text); err != nil {
			return nil, llm.NewMalformedOutputError(
				fmt.Sprintf("slot %q holds a non-text value", name), string(value))
		}
		output[domain.SlotName(name)] = text
	}

	return output, nil
}

// stripCodeFences removes the markdown fences models often wrap around JSON.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
