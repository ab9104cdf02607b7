package qdrant

import (
	"os"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/legis/internal/domain/ports"
	"github.com/ersonp/legis/internal/infrastructure/config"
)

func TestPointID_Stable(t *testing.T) {
	assert.Equal(t, pointID("tva_standard"), pointID("tva_standard"))
	assert.NotEqual(t, pointID("tva_standard"), pointID("tva_redus"))
	assert.Len(t, pointID("x"), 36)
}

func TestDocToPoint(t *testing.T) {
	point := docToPoint(ports.VariableDocument{
		Key:       "tva_standard",
		Name:      "Cota standard TVA",
		Text:      "Cota standard TVA (tva_standard, percentage)",
		Embedding: []float32{0.1, 0.2},
	})

	assert.Equal(t, pointID("tva_standard"), point.Id.GetUuid())
	assert.Equal(t, []float32{0.1, 0.2}, point.Vectors.GetVector().Data)
	assert.Equal(t, "tva_standard", point.Payload["key"].GetStringValue())
	assert.Equal(t, "Cota standard TVA", point.Payload["name"].GetStringValue())
}

func TestScoredPointsToHits(t *testing.T) {
	hits := scoredPointsToHits([]*pb.ScoredPoint{
		{
			Score: 0.87,
			Payload: map[string]*pb.Value{
				"key":  {Kind: &pb.Value_StringValue{StringValue: "prag_tva"}},
				"name": {Kind: &pb.Value_StringValue{StringValue: "Plafon TVA"}},
			},
		},
		{Score: 0.1},
	})

	require.Len(t, hits, 2)
	assert.Equal(t, ports.SearchHit{Key: "prag_tva", Name: "Plafon TVA", Score: 0.87}, hits[0])
	assert.Empty(t, hits[1].Key)
}

// TestRepository_Integration needs a Qdrant server on localhost:6334.
func TestRepository_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "1" {
		t.Skip("set INTEGRATION_TEST=1 to run against a local qdrant")
	}

	repo, err := NewRepository(config.QdrantConfig{
		Host:       "localhost",
		Port:       6334,
		Collection: "legis_integration_test",
	})
	require.NoError(t, err)
	defer repo.Close()

	ctx := t.Context()
	_ = repo.DeleteCollection(ctx)
	require.NoError(t, repo.EnsureCollection(ctx, 3))
	t.Cleanup(func() { _ = repo.DeleteCollection(ctx) })

	docs := []ports.VariableDocument{
		{Key: "tva_standard", Name: "Cota standard TVA", Embedding: []float32{1, 0, 0}},
		{Key: "salary_minim_brut", Name: "Salariul minim brut", Embedding: []float32{0, 1, 0}},
	}
	require.NoError(t, repo.Upsert(ctx, docs))
	require.NoError(t, repo.Upsert(ctx, docs[:1]))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count, "re-upserting a key replaces its point")

	hits, err := repo.Search(ctx, []float32{0.9, 0.1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "tva_standard", hits[0].Key)
}
