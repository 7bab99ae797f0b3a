package domain

import (
	"fmt"
	"strings"
)

// SlotName identifies one independently generated and validated unit of
// episode text, e.g. "cold_open" or "cliffhanger".
type SlotName string

// SlotSpec declares the acceptance bar for a single slot before any
// generation happens. MinLength applies to the trimmed generated text.
type SlotSpec struct {
	// Instruction is the generation directive handed to the model for this slot.
	Instruction string `json:"instruction" validate:"required"`

	// MinLength is the minimum trimmed rune count of acceptable text.
	// Mandatory slots must declare a positive minimum.
	MinLength int `json:"min_length" validate:"min=0"`

	// SemanticTag optionally labels the narrative role of the slot
	// (e.g. "hook", "escalation") for downstream tooling.
	SemanticTag string `json:"semantic_tag,omitempty"`
}

// Variant distinguishes the escalation stage a contract was derived for.
// Using typed constants enables exhaustive switches in the escalator.
type Variant uint8

const (
	// VariantStrict is the base contract used on the first attempt.
	VariantStrict Variant = iota

	// VariantTightened augments instructions with explicit vocabulary hints.
	// Used from the second strict attempt onward.
	VariantTightened

	// VariantRelaxed softens mandatory instructions in tone ("must" becomes
	// "should"). Used only after strict and tightened attempts exhaust.
	VariantRelaxed
)

// String returns the string representation of a Variant.
func (v Variant) String() string {
	switch v {
	case VariantStrict:
		return "strict"
	case VariantTightened:
		return "tightened"
	case VariantRelaxed:
		return "relaxed"
	default:
		return "unknown"
	}
}

// SlotDecl is a single slot declaration within a contract.
// Declaration order is significant: it fixes assembly order.
type SlotDecl struct {
	Name      SlotName `json:"name"`
	Spec      SlotSpec `json:"spec"`
	Mandatory bool     `json:"mandatory"`
}

// Contract declares, per episode, which slots are mandatory vs optional and
// each slot's acceptance criteria. A Contract is immutable once handed to a
// generation attempt; tightened and relaxed variants are new values derived
// via Tightened and Relaxed, never in-place mutations.
type Contract struct {
	episodeIndex int
	variant      Variant
	decls        []SlotDecl
	byName       map[SlotName]int
}

// NewContract constructs a strict contract from slot declarations.
// Construction fails unless at least one mandatory slot declares a positive
// minimum length; a mandatory slot with zero or negative minimum is a
// construction failure, not a soft default.
func NewContract(episodeIndex int, decls []SlotDecl) (Contract, error) {
	if episodeIndex < 0 {
		return Contract{}, fmt.Errorf("%w: episode index %d", ErrInvalidContract, episodeIndex)
	}
	if len(decls) == 0 {
		return Contract{}, fmt.Errorf("%w: no slots declared", ErrInvalidContract)
	}

	byName := make(map[SlotName]int, len(decls))
	mandatory := 0
	for i, d := range decls {
		if d.Name == "" {
			return Contract{}, fmt.Errorf("%w: empty slot name at position %d", ErrInvalidContract, i)
		}
		if _, dup := byName[d.Name]; dup {
			return Contract{}, fmt.Errorf("%w: duplicate slot %q", ErrInvalidContract, d.Name)
		}
		if strings.TrimSpace(d.Spec.Instruction) == "" {
			return Contract{}, fmt.Errorf("%w: slot %q has no instruction", ErrInvalidContract, d.Name)
		}
		if d.Mandatory {
			if d.Spec.MinLength <= 0 {
				return Contract{}, fmt.Errorf(
					"%w: mandatory slot %q requires a positive minimum length, got %d",
					ErrInvalidContract, d.Name, d.Spec.MinLength)
			}
			mandatory++
		} else if d.Spec.MinLength < 0 {
			return Contract{}, fmt.Errorf(
				"%w: optional slot %q has negative minimum length %d",
				ErrInvalidContract, d.Name, d.Spec.MinLength)
		}
		byName[d.Name] = i
	}
	if mandatory == 0 {
		return Contract{}, fmt.Errorf("%w: at least one mandatory slot is required", ErrInvalidContract)
	}

	return Contract{
		episodeIndex: episodeIndex,
		variant:      VariantStrict,
		decls:        cloneDecls(decls),
		byName:       byName,
	}, nil
}

// EpisodeIndex returns the episode this contract was constructed for.
func (c Contract) EpisodeIndex() int { return c.episodeIndex }

// Variant returns the escalation variant this contract value represents.
func (c Contract) Variant() Variant { return c.variant }

// Slots returns the slot declarations in declaration order.
// The returned slice is a copy; mutating it does not affect the contract.
func (c Contract) Slots() []SlotDecl { return cloneDecls(c.decls) }

// SlotNames returns every declared slot name in declaration order.
func (c Contract) SlotNames() []SlotName {
	names := make([]SlotName, len(c.decls))
	for i, d := range c.decls {
		names[i] = d.Name
	}
	return names
}

// Spec returns the declaration for a slot name and whether it is declared.
func (c Contract) Spec(name SlotName) (SlotDecl, bool) {
	i, ok := c.byName[name]
	if !ok {
		return SlotDecl{}, false
	}
	return c.decls[i], true
}

// MandatorySlots returns the mandatory slot specs keyed by name.
func (c Contract) MandatorySlots() map[SlotName]SlotSpec {
	return c.slotsWhere(true)
}

// OptionalSlots returns the optional slot specs keyed by name.
func (c Contract) OptionalSlots() map[SlotName]SlotSpec {
	return c.slotsWhere(false)
}

func (c Contract) slotsWhere(mandatory bool) map[SlotName]SlotSpec {
	out := make(map[SlotName]SlotSpec)
	for _, d := range c.decls {
		if d.Mandatory == mandatory {
			out[d.Name] = d.Spec
		}
	}
	return out
}

// VocabularyHints carries explicit required/forbidden vocabulary produced by
// the narrative-constraint collaborator, used to tighten instructions when a
// strict attempt fails.
type VocabularyHints struct {
	Required  []string `json:"required,omitempty"`
	Forbidden []string `json:"forbidden,omitempty"`
}

// Tightened derives a new contract with the same slot set whose mandatory
// instructions are augmented with the vocabulary hints. The receiver is not
// modified.
func (c Contract) Tightened(hints VocabularyHints) Contract {
	decls := cloneDecls(c.decls)
	for i := range decls {
		if !decls[i].Mandatory {
			continue
		}
		decls[i].Spec.Instruction = tightenInstruction(decls[i].Spec.Instruction, hints)
	}
	out := c
	out.variant = VariantTightened
	out.decls = decls
	return out
}

// RelaxationPolicy controls how a relaxed contract variant is derived.
// Relaxation always softens instruction tone; whether it also lowers the
// structured minimum-length thresholds is an explicit policy decision rather
// than an assumed behavior.
type RelaxationPolicy struct {
	// LowerMinimums scales mandatory minimum lengths when true.
	LowerMinimums bool `json:"lower_minimums"`

	// MinimumScale is the factor applied to mandatory minimums when
	// LowerMinimums is set. Values outside (0,1] are treated as 1.
	MinimumScale float64 `json:"minimum_scale"`
}

// DefaultRelaxationPolicy keeps minimum lengths intact: relaxation softens
// wording only.
func DefaultRelaxationPolicy() RelaxationPolicy {
	return RelaxationPolicy{LowerMinimums: false, MinimumScale: 1.0}
}

// Relaxed derives a new contract whose mandatory instructions are downgraded
// in tone ("must" becomes "should"). Minimum lengths are lowered only when
// the policy says so, and never below one. The receiver is not modified.
func (c Contract) Relaxed(policy RelaxationPolicy) Contract {
	decls := cloneDecls(c.decls)
	for i := range decls {
		if !decls[i].Mandatory {
			continue
		}
		decls[i].Spec.Instruction = softenInstruction(decls[i].Spec.Instruction)
		if policy.LowerMinimums && policy.MinimumScale > 0 && policy.MinimumScale <= 1 {
			scaled := int(float64(decls[i].Spec.MinLength) * policy.MinimumScale)
			if scaled < 1 {
				scaled = 1
			}
			decls[i].Spec.MinLength = scaled
		}
	}
	out := c
	out.variant = VariantRelaxed
	out.decls = decls
	return out
}

// tightenInstruction appends explicit vocabulary requirements to an
// instruction. Empty hints leave the instruction unchanged.
func tightenInstruction(instruction string, hints VocabularyHints) string {
	var b strings.Builder
	b.WriteString(instruction)
	if len(hints.Required) > 0 {
		b.WriteString(" You must use the following vocabulary: ")
		b.WriteString(strings.Join(hints.Required, ", "))
		b.WriteString(".")
	}
	if len(hints.Forbidden) > 0 {
		b.WriteString(" You must not use: ")
		b.WriteString(strings.Join(hints.Forbidden, ", "))
		b.WriteString(".")
	}
	return b.String()
}

// softenInstruction downgrades directive tone without touching content
// requirements. Only whole-word "must" forms are rewritten.
func softenInstruction(instruction string) string {
	replacer := strings.NewReplacer(
		"must not ", "should not ",
		"Must not ", "Should not ",
		"must ", "should ",
		"Must ", "Should ",
	)
	return replacer.Replace(instruction)
}

func cloneDecls(decls []SlotDecl) []SlotDecl {
	out := make([]SlotDecl, len(decls))
	copy(out, decls)
	return out
}
