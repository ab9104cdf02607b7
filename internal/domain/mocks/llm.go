package mocks

import (
	"context"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
)

// LLMClient is a mock implementation of ports.LLMClient.
type LLMClient struct {
	Suggestion *ports.ValueSuggestion
	Err        error

	// Call tracking
	LastVariable   entities.Variable
	LastSourceText string
}

// SuggestValue returns the configured suggestion or error.
func (m *LLMClient) SuggestValue(ctx context.Context, variable entities.Variable, sourceText string) (*ports.ValueSuggestion, error) {
	m.LastVariable = variable
	m.LastSourceText = sourceText
	if m.Err != nil {
		return nil, m.Err
	}
	s := *m.Suggestion
	return &s, nil
}
