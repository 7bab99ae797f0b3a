// Package generation turns an episode contract into model output: it renders
// one prompt covering every slot the contract variant names, makes exactly
// one call to the completion client, and decodes the structured result.
package generation

import (
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

// episodePromptTemplate renders the full generation prompt. The model is
// asked for a single JSON object keyed by slot name so each slot can be
// validated independently.
const episodePromptTemplate = `You are writing episode {{.EpisodeIndex}} of a serialized short-form drama.

{{- if .PacingPhase}}
Current arc phase: {{.PacingPhase}}.
{{- end}}
{{- if .PriorSummaries}}

What has happened so far:
{{- range .PriorSummaries}}
- {{.}}
{{- end}}
{{- end}}
{{- if .CharacterConstraints}}

Active character constraints:
{{- range $name, $constraint := .CharacterConstraints}}
- {{$name}}: {{$constraint}}
{{- end}}
{{- end}}

Write the following content units:
{{range .Slots}}
### {{.Name}}{{if .Mandatory}} (mandatory, at least {{.Spec.MinLength}} characters){{else}} (optional){{end}}
{{.Spec.Instruction}}
{{end}}
Respond with a single JSON object and nothing else. Use the slot names as keys
and the written text as string values, for example:
{"{{.FirstSlot}}": "..."}
Mandatory slots must be present. Omit optional slots you choose to skip.
`

// promptData is the template input assembled per attempt.
type promptData struct {
	EpisodeIndex         int
	PacingPhase          string
	PriorSummaries       []string
	CharacterConstraints map[string]string
	Slots                []domain.SlotDecl
	FirstSlot            domain.SlotName
}

// PromptCache parses and caches prompt templates. It is an explicit
// constructed dependency, built once at process startup and injected into
// the slot generator; parsing is lazy so construction stays cheap and
// template errors surface on first render.
type PromptCache struct {
	once    sync.Once
	episode *template.Template
	initErr error
}

// NewPromptCache creates an empty cache. Templates parse on first use.
func NewPromptCache() *PromptCache {
	return &PromptCache{}
}

func (p *PromptCache) init() {
	p.once.Do(func() {
		tmpl, err := template.New("episode").Parse(episodePromptTemplate)
		if err != nil {
			p.initErr = fmt.Errorf("parse episode prompt template: %w", err)
			return
		}
		p.episode = tmpl
	})
}

// RenderEpisodePrompt renders the generation prompt for one contract variant
// against read-only narrative context. Slot order in the prompt follows the
// contract's declaration order.
func (p *PromptCache) RenderEpisodePrompt(c domain.Contract, narrative domain.NarrativeContext) (string, error) {
	p.init()
	if p.initErr != nil {
		return "", p.initErr
	}

	slots := c.Slots()
	data := promptData{
		EpisodeIndex:         c.EpisodeIndex(),
		PacingPhase:          narrative.PacingPhase,
		PriorSummaries:       narrative.PriorSummaries,
		CharacterConstraints: narrative.CharacterConstraints,
		Slots:                slots,
		FirstSlot:            slots[0].Name,
	}

	var b strings.Builder
	if err := p.episode.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render episode prompt: %w", err)
	}
	return b.String(), nil
}
