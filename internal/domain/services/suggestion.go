package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
)

// Suggestion is a value proposed for an update point from its verification
// source. Applying it still requires MarkVerified.
type Suggestion struct {
	PointID      string                `json:"point_id"`
	VariableKey  string                `json:"variable_key,omitempty"`
	CurrentValue string                `json:"current_value"`
	SourceURL    string                `json:"source_url"`
	Proposed     ports.ValueSuggestion `json:"proposed"`
	Changed      bool                  `json:"changed"`
}

// SuggestionService reads verification sources and asks the LLM for the value
// they currently state.
type SuggestionService struct {
	relationalDB ports.RelationalDB
	fetcher      ports.SourceFetcher
	llm          ports.LLMClient
	logger       *zap.Logger
}

// NewSuggestionService creates a new SuggestionService.
func NewSuggestionService(relationalDB ports.RelationalDB, fetcher ports.SourceFetcher, llm ports.LLMClient, logger *zap.Logger) *SuggestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestionService{
		relationalDB: relationalDB,
		fetcher:      fetcher,
		llm:          llm,
		logger:       logger,
	}
}

// Suggest proposes a value for an auto-updateable point with a verification URL.
func (s *SuggestionService) Suggest(ctx context.Context, pointID string) (*Suggestion, error) {
	p, err := s.relationalDB.FindUpdatePoint(ctx, pointID)
	if err != nil {
		return nil, fmt.Errorf("finding update point: %w", err)
	}
	if p == nil {
		return nil, &entities.NotFoundError{Kind: "update point", ID: pointID}
	}
	if !p.AutoUpdateable {
		return nil, &entities.ValidationError{Field: "auto_updateable", Message: "point is not marked auto-updateable"}
	}
	if p.VerificationURL == "" {
		return nil, &entities.ValidationError{Field: "verification_url", Message: "point has no verification url"}
	}

	variable := entities.Variable{
		Name:  p.DataPointName,
		Type:  entities.ValueText,
		Value: p.CurrentValue,
	}
	if p.IsVariableBacked() {
		v, err := s.relationalDB.FindVariable(ctx, p.VariableKey)
		if err != nil {
			return nil, fmt.Errorf("finding variable: %w", err)
		}
		if v == nil {
			return nil, &entities.NotFoundError{Kind: "variable", ID: p.VariableKey}
		}
		v, err = withEffective(ctx, s.relationalDB, v, now())
		if err != nil {
			return nil, err
		}
		variable = *v
	}

	text, err := s.fetcher.Fetch(ctx, p.VerificationURL)
	if err != nil {
		return nil, fmt.Errorf("fetching verification source: %w", err)
	}

	proposed, err := s.llm.SuggestValue(ctx, variable, text)
	if err != nil {
		return nil, fmt.Errorf("suggesting value: %w", err)
	}

	if normalized, err := variable.Type.Normalize(proposed.Value); err == nil {
		proposed.Value = normalized
	}

	suggestion := &Suggestion{
		PointID:      p.ID,
		VariableKey:  p.VariableKey,
		CurrentValue: p.CurrentValue,
		SourceURL:    p.VerificationURL,
		Proposed:     *proposed,
		Changed:      proposed.Value != "" && proposed.Value != p.CurrentValue,
	}

	s.logger.Info("value suggested",
		zap.String("point_id", p.ID),
		zap.String("variable_key", p.VariableKey),
		zap.Bool("changed", suggestion.Changed),
		zap.Float64("confidence", proposed.Confidence),
	)
	return suggestion, nil
}
