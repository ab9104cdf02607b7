package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/infrastructure/config"
	"github.com/ersonp/legis/internal/infrastructure/relationaldb/sqlite"
)

// setupRepo creates an in-memory SQLite repository with the schema applied.
func setupRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

// freezeTime pins now() to at for the rest of the test.
func freezeTime(t *testing.T, at time.Time) {
	t.Helper()
	old := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = old })
}

func day(s string) time.Time {
	d, err := time.Parse(entities.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr[T any](v T) *T {
	return &v
}

// defineSalary defines salary_minim_brut = 3300 RON effective 2024-01-01.
func defineSalary(t *testing.T, vars *VariableService) *entities.Variable {
	t.Helper()
	v, err := vars.Define(context.Background(), DefineInput{
		Key:           "salary_minim_brut",
		Name:          "Salariul minim brut",
		Type:          entities.ValueNumeric,
		Unit:          "RON",
		Value:         "3300",
		EffectiveFrom: day("2024-01-01"),
	})
	require.NoError(t, err)
	return v
}
