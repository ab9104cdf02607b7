package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/legis/internal/domain/entities"
)

func TestSeedHandler_Handle(t *testing.T) {
	f := newFixture()
	handler := NewSeedHandler(f.variables, f.registry, nil)
	ctx := context.Background()

	values := 0
	for _, v := range entities.DefaultVariables {
		values += len(v.Values)
	}

	result, err := handler.Handle(ctx, entities.DefaultVariables, entities.DefaultPoints)
	require.NoError(t, err)
	assert.Equal(t, len(entities.DefaultVariables), result.Variables)
	assert.Equal(t, values, result.Values)
	assert.Equal(t, len(entities.DefaultPoints), result.Points)
	assert.Zero(t, result.Skipped)

	salary, err := f.variables.Get(ctx, "salary_minim_brut")
	require.NoError(t, err)
	assert.Equal(t, "3700", salary.Value)

	for _, p := range f.db.Points {
		if p.VariableKey == "salary_minim_brut" {
			assert.Equal(t, "3700", p.CurrentValue)
		}
	}

	again, err := handler.Handle(ctx, entities.DefaultVariables, entities.DefaultPoints)
	require.NoError(t, err)
	assert.Zero(t, again.Variables)
	assert.Zero(t, again.Points)
	assert.Equal(t, len(entities.DefaultVariables)+len(entities.DefaultPoints), again.Skipped)
}

func TestSeedHandler_Handle_EmptyValues(t *testing.T) {
	f := newFixture()
	handler := NewSeedHandler(f.variables, f.registry, nil)

	_, err := handler.Handle(context.Background(), []entities.SeedVariable{{Key: "x", Name: "X", Type: entities.ValueText}}, nil)
	assert.ErrorContains(t, err, "has no values")
}
