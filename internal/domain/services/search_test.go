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

func newSearchService() (*SearchService, *mocks.RelationalDB, *mocks.Embedder, *mocks.VectorIndex, *mocks.CollectionManager) {
	db := mocks.NewRelationalDB()
	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.1, 0.2, 0.3}}
	index := &mocks.VectorIndex{}
	collections := &mocks.CollectionManager{}
	return NewSearchService(db, embedder, index, collections, nil), db, embedder, index, collections
}

func TestSearchService_Reindex(t *testing.T) {
	service, db, embedder, index, collections := newSearchService()
	db.Vars["tva_standard"] = entities.Variable{Key: "tva_standard", Name: "Cota standard TVA", Type: entities.ValuePercentage}
	db.Vars["salary_minim_brut"] = entities.Variable{Key: "salary_minim_brut", Name: "Salariul minim brut", Type: entities.ValueNumeric, Unit: "RON"}

	n, err := service.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, 1, collections.DeleteCollectionCallCount)
	assert.Equal(t, 1, collections.EnsureCollectionCallCount)
	assert.Equal(t, uint64(3), collections.LastVectorSize)
	assert.Equal(t, []string{
		"Salariul minim brut (salary_minim_brut, numeric, RON)",
		"Cota standard TVA (tva_standard, percentage)",
	}, embedder.EmbeddedTexts)
	require.Len(t, index.UpsertedDocs, 2)
	assert.Equal(t, "salary_minim_brut", index.UpsertedDocs[0].Key)
}

func TestSearchService_Reindex_Empty(t *testing.T) {
	service, _, _, index, collections := newSearchService()

	n, err := service.Reindex(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, collections.DeleteCollectionCallCount)
	assert.Zero(t, index.UpsertCallCount)
}

func TestSearchService_Reindex_EmbedderError(t *testing.T) {
	service, db, embedder, _, collections := newSearchService()
	db.Vars["a"] = entities.Variable{Key: "a", Name: "A", Type: entities.ValueText}
	embedder.Err = errors.New("quota exceeded")

	_, err := service.Reindex(context.Background())
	assert.ErrorContains(t, err, "generating embeddings")
	assert.Zero(t, collections.DeleteCollectionCallCount, "collection survives a failed embedding")
}

func TestSearchService_Search(t *testing.T) {
	service, _, embedder, index, _ := newSearchService()
	index.Hits = []ports.SearchHit{
		{Key: "tva_standard", Name: "Cota standard TVA", Score: 0.92},
		{Key: "tva_redus", Name: "Cota redusa TVA", Score: 0.81},
	}

	hits, err := service.Search(context.Background(), "  cota tva  ", 0)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	assert.Equal(t, DefaultSearchLimit, index.LastLimit)
	assert.Equal(t, []string{"cota tva"}, embedder.EmbeddedTexts)

	hits, err = service.Search(context.Background(), "tva", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	_, err = service.Search(context.Background(), "   ", 3)
	assert.ErrorIs(t, err, entities.ErrValidation)
}
