// Package ports defines interfaces for external service communication.
package ports

import (
	"context"

	"github.com/ersonp/legis/internal/domain/entities"
)

// LLMClient defines the interface for LLM operations.
type LLMClient interface {
	// SuggestValue reads source text and proposes the current value of a variable.
	SuggestValue(ctx context.Context, variable entities.Variable, sourceText string) (*ValueSuggestion, error)
}

// ValueSuggestion is a proposed value read from an authoritative source.
// It is advisory and never applied without a human verification.
type ValueSuggestion struct {
	Value         string  `json:"value"`
	EffectiveFrom string  `json:"effective_from,omitempty"`
	Confidence    float64 `json:"confidence"`
	Excerpt       string  `json:"excerpt,omitempty"`
}
