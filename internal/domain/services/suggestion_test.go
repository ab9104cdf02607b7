package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/mocks"
	"github.com/ersonp/legis/internal/domain/ports"
)

func TestSuggestionService_Suggest(t *testing.T) {
	freezeTime(t, day("2025-01-10"))
	f := newRegistryFixture(t)
	defineSalary(t, f.vars)
	ctx := context.Background()

	p, err := f.registry.Register(ctx, RegisterInput{
		TreeKey:         "salarizare",
		DataPointName:   "Salariul minim",
		Criticality:     entities.CriticalityCritical,
		VariableKey:     "salary_minim_brut",
		AutoUpdateable:  true,
		VerificationURL: "https://legislatie.just.ro/hg-1506-2024",
	})
	require.NoError(t, err)

	fetcher := &mocks.SourceFetcher{Text: "Salariul de baza minim brut pe tara garantat in plata se stabileste la 4.050 lei lunar."}
	llm := &mocks.LLMClient{Suggestion: &ports.ValueSuggestion{Value: "4050.00", EffectiveFrom: "2025-01-01", Confidence: 0.9}}
	service := NewSuggestionService(f.repo, fetcher, llm, nil)

	s, err := service.Suggest(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "4050", s.Proposed.Value)
	assert.Equal(t, "3300", s.CurrentValue)
	assert.True(t, s.Changed)
	assert.Equal(t, []string{"https://legislatie.just.ro/hg-1506-2024"}, fetcher.FetchedURLs)
	assert.Equal(t, "salary_minim_brut", llm.LastVariable.Key)
	assert.Equal(t, fetcher.Text, llm.LastSourceText)

	llm.Suggestion = &ports.ValueSuggestion{Value: "3300"}
	s, err = service.Suggest(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, s.Changed)

	stored, err := f.repo.FindUpdatePoint(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version, "suggesting never writes")
}

func TestSuggestionService_Suggest_Errors(t *testing.T) {
	freezeTime(t, day("2025-01-10"))
	f := newRegistryFixture(t)
	ctx := context.Background()

	manual, err := f.registry.Register(ctx, RegisterInput{
		TreeKey: "t", DataPointName: "manual", Criticality: entities.CriticalityLow,
		VerificationURL: "https://anaf.ro",
	})
	require.NoError(t, err)
	noURL, err := f.registry.Register(ctx, RegisterInput{
		TreeKey: "t", DataPointName: "no url", Criticality: entities.CriticalityLow, AutoUpdateable: true,
	})
	require.NoError(t, err)
	auto, err := f.registry.Register(ctx, RegisterInput{
		TreeKey: "t", DataPointName: "auto", Criticality: entities.CriticalityLow, AutoUpdateable: true,
		VerificationURL: "https://anaf.ro", CurrentValue: "212",
	})
	require.NoError(t, err)

	fetcher := &mocks.SourceFetcher{Text: "text"}
	llm := &mocks.LLMClient{Suggestion: &ports.ValueSuggestion{Value: "230"}}
	service := NewSuggestionService(f.repo, fetcher, llm, nil)

	_, err = service.Suggest(ctx, "missing")
	assert.ErrorIs(t, err, entities.ErrNotFound)

	_, err = service.Suggest(ctx, manual.ID)
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = service.Suggest(ctx, noURL.ID)
	assert.ErrorIs(t, err, entities.ErrValidation)

	fetcher.Err = errors.New("connection refused")
	_, err = service.Suggest(ctx, auto.ID)
	assert.ErrorContains(t, err, "fetching verification source")

	fetcher.Err = nil
	llm.Err = errors.New("rate limited")
	_, err = service.Suggest(ctx, auto.ID)
	assert.ErrorContains(t, err, "suggesting value")

	llm.Err = nil
	s, err := service.Suggest(ctx, auto.ID)
	require.NoError(t, err)
	assert.True(t, s.Changed)
	assert.Equal(t, entities.ValueText, llm.LastVariable.Type)
}
