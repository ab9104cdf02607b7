package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
)

// DefaultSearchLimit is used when a search does not set a limit.
const DefaultSearchLimit = 5

// SearchService finds variables by meaning so authors can pick the right placeholder.
type SearchService struct {
	relationalDB ports.RelationalDB
	embedder     ports.Embedder
	index        ports.VectorIndex
	collections  ports.CollectionManager
	logger       *zap.Logger
}

// NewSearchService creates a new SearchService.
func NewSearchService(
	relationalDB ports.RelationalDB,
	embedder ports.Embedder,
	index ports.VectorIndex,
	collections ports.CollectionManager,
	logger *zap.Logger,
) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		relationalDB: relationalDB,
		embedder:     embedder,
		index:        index,
		collections:  collections,
		logger:       logger,
	}
}

// Reindex embeds every variable and replaces the search collection.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	vars, err := s.relationalDB.ListVariables(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing variables: %w", err)
	}
	if len(vars) == 0 {
		return 0, nil
	}

	texts := make([]string, len(vars))
	for i := range vars {
		texts[i] = variableText(&vars[i])
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("generating embeddings: %w", err)
	}
	if len(embeddings) != len(vars) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d variables", len(embeddings), len(vars))
	}

	if err := s.collections.DeleteCollection(ctx); err != nil {
		return 0, fmt.Errorf("dropping collection: %w", err)
	}
	if err := s.collections.EnsureCollection(ctx, uint64(len(embeddings[0]))); err != nil {
		return 0, fmt.Errorf("creating collection: %w", err)
	}

	docs := make([]ports.VariableDocument, len(vars))
	for i := range vars {
		docs[i] = ports.VariableDocument{
			Key:       vars[i].Key,
			Name:      vars[i].Name,
			Text:      texts[i],
			Embedding: embeddings[i],
		}
	}
	if err := s.index.Upsert(ctx, docs); err != nil {
		return 0, fmt.Errorf("indexing variables: %w", err)
	}

	s.logger.Info("variables indexed", zap.Int("count", len(docs)))
	return len(docs), nil
}

// Search returns the variables closest to query.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]ports.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &entities.ValidationError{Field: "q", Message: "query is required"}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := s.index.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("searching variables: %w", err)
	}
	return hits, nil
}

// variableText is the text embedded for a variable.
func variableText(v *entities.Variable) string {
	var b strings.Builder
	b.WriteString(v.Name)
	b.WriteString(" (")
	b.WriteString(v.Key)
	b.WriteString(", ")
	b.WriteString(string(v.Type))
	if v.Unit != "" {
		b.WriteString(", ")
		b.WriteString(v.Unit)
	}
	b.WriteString(")")
	return b.String()
}
