package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/legis/internal/domain/entities"
)

func TestVariableService_Define(t *testing.T) {
	freezeTime(t, day("2025-01-10").Add(12*time.Hour))
	repo := setupRepo(t)
	svc := NewVariableService(repo, nil)

	v := defineSalary(t, svc)
	assert.Equal(t, "3300", v.Value)
	assert.Equal(t, int64(1), v.Version)
	assert.Equal(t, "3300 RON", v.Formatted())

	history, err := svc.History(context.Background(), "salary_minim_brut")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, day("2024-01-01"), history[0].EffectiveFrom)
}

func TestVariableService_Define_Validation(t *testing.T) {
	repo := setupRepo(t)
	svc := NewVariableService(repo, nil)
	ctx := context.Background()
	defineSalary(t, svc)

	tests := []struct {
		name  string
		input DefineInput
		field string
	}{
		{"bad key", DefineInput{Key: "Salary", Name: "x", Type: entities.ValueNumeric, Value: "1"}, "key"},
		{"missing name", DefineInput{Key: "x", Type: entities.ValueNumeric, Value: "1"}, "name"},
		{"bad type", DefineInput{Key: "x", Name: "x", Type: "money", Value: "1"}, "type"},
		{"bad value", DefineInput{Key: "x", Name: "x", Type: entities.ValueNumeric, Value: "abc"}, "value"},
		{"duplicate key", DefineInput{Key: "salary_minim_brut", Name: "x", Type: entities.ValueNumeric, Value: "1"}, "key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Define(ctx, tt.input)
			require.ErrorIs(t, err, entities.ErrValidation)
			var verr *entities.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestVariableService_Set(t *testing.T) {
	freezeTime(t, day("2025-01-10").Add(12*time.Hour))
	repo := setupRepo(t)
	svc := NewVariableService(repo, nil)
	ctx := context.Background()
	defineSalary(t, svc)

	v, err := svc.Set(ctx, SetInput{Key: "salary_minim_brut", Value: "3400", Reason: "HG"})
	require.NoError(t, err)
	assert.Equal(t, "3400", v.Value)
	assert.Equal(t, int64(2), v.Version)
	require.NotNil(t, v.LastVerified)

	got, err := svc.Get(ctx, "salary_minim_brut")
	require.NoError(t, err)
	assert.Equal(t, "3400", got.Value)

	entries, err := repo.FindAuditLog(ctx, "salary_minim_brut")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entities.ActionVariableSet, entries[0].Action)
}

func TestVariableService_Set_NotFound(t *testing.T) {
	svc := NewVariableService(setupRepo(t), nil)
	_, err := svc.Set(context.Background(), SetInput{Key: "missing", Value: "1"})
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestVariableService_Set_Retroactive(t *testing.T) {
	freezeTime(t, day("2025-01-10").Add(12*time.Hour))
	repo := setupRepo(t)
	svc := NewVariableService(repo, nil)
	ctx := context.Background()
	defineSalary(t, svc)

	_, err := svc.Set(ctx, SetInput{Key: "salary_minim_brut", Value: "3000", EffectiveFrom: day("2023-01-01")})
	require.ErrorIs(t, err, entities.ErrValidation)

	v, err := svc.Set(ctx, SetInput{Key: "salary_minim_brut", Value: "3000", EffectiveFrom: day("2023-01-01"), Force: true})
	require.NoError(t, err)
	assert.Equal(t, "3300", v.Value, "a backdated value does not replace the latest one")

	history, err := svc.History(ctx, "salary_minim_brut")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "3000", history[0].Value)
	assert.True(t, history[0].Forced)
	assert.False(t, history[1].Forced)
}

func TestVariableService_Set_PinnedVersion(t *testing.T) {
	repo := setupRepo(t)
	svc := NewVariableService(repo, nil)
	ctx := context.Background()
	defineSalary(t, svc)

	_, err := svc.Set(ctx, SetInput{Key: "salary_minim_brut", Value: "3400", ExpectedVersion: 7})
	require.ErrorIs(t, err, entities.ErrConcurrencyConflict)

	_, err = svc.Set(ctx, SetInput{Key: "salary_minim_brut", Value: "3400", ExpectedVersion: 1})
	require.NoError(t, err)

	_, err = svc.Set(ctx, SetInput{Key: "salary_minim_brut", Value: "3500", ExpectedVersion: 1})
	assert.ErrorIs(t, err, entities.ErrConcurrencyConflict)

	history, err := svc.History(ctx, "salary_minim_brut")
	require.NoError(t, err)
	assert.Len(t, history, 2, "failed writes leave no history")
}

func TestVariableService_ScheduledValue(t *testing.T) {
	freezeTime(t, day("2025-01-10").Add(12*time.Hour))
	repo := setupRepo(t)
	vars := NewVariableService(repo, nil)
	registry := NewRegistryService(repo, vars, nil)
	ctx := context.Background()
	defineSalary(t, vars)

	p, err := registry.Register(ctx, RegisterInput{
		TreeKey:       "salarizare",
		DataPointName: "Salariul minim",
		Criticality:   entities.CriticalityCritical,
		VariableKey:   "salary_minim_brut",
	})
	require.NoError(t, err)
	assert.Equal(t, "3300", p.CurrentValue)

	v, err := vars.Set(ctx, SetInput{Key: "salary_minim_brut", Value: "3700", EffectiveFrom: day("2025-02-01")})
	require.NoError(t, err)
	assert.Equal(t, "3300", v.Value)
	require.NotNil(t, v.Scheduled)
	assert.Equal(t, "3700", v.Scheduled.Value)

	stored, err := repo.FindUpdatePoint(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "3300", stored.CurrentValue, "snapshot waits for the effective date")

	n, err := vars.ActivateStaged(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	freezeTime(t, day("2025-02-01").Add(time.Hour))
	n, err = vars.ActivateStaged(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err = repo.FindUpdatePoint(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "3700", stored.CurrentValue)

	got, err := vars.Get(ctx, "salary_minim_brut")
	require.NoError(t, err)
	assert.Equal(t, "3700", got.Value)
	assert.Nil(t, got.Scheduled)

	n, err = vars.ActivateStaged(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "activation is idempotent")
}

func TestVariableService_List(t *testing.T) {
	freezeTime(t, day("2025-01-10"))
	repo := setupRepo(t)
	svc := NewVariableService(repo, nil)
	ctx := context.Background()
	defineSalary(t, svc)

	_, err := svc.Define(ctx, DefineInput{
		Key: "tva_standard", Name: "Cota standard TVA", Type: entities.ValuePercentage,
		Value: "21%", EffectiveFrom: day("2025-08-01"),
	})
	require.NoError(t, err)

	vars, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, vars, 2)
	assert.Equal(t, "salary_minim_brut", vars[0].Key)
	assert.Equal(t, "tva_standard", vars[1].Key)
	assert.Empty(t, vars[1].Value, "nothing effective yet")
	require.NotNil(t, vars[1].Scheduled)
	assert.Equal(t, "21", vars[1].Scheduled.Value)
}
