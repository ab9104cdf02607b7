package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/mocks"
	"github.com/ersonp/legis/internal/domain/services"
)

type fixture struct {
	db         *mocks.RelationalDB
	metrics    *mocks.Metrics
	variables  *services.VariableService
	registry   *services.RegistryService
	statistics *services.StatisticsService
}

func newFixture() *fixture {
	db := mocks.NewRelationalDB()
	vars := services.NewVariableService(db, nil)
	return &fixture{
		db:         db,
		metrics:    mocks.NewMetrics(),
		variables:  vars,
		registry:   services.NewRegistryService(db, vars, nil),
		statistics: services.NewStatisticsService(db),
	}
}

func (f *fixture) defineSalary(t *testing.T) {
	t.Helper()
	_, err := f.variables.Define(context.Background(), services.DefineInput{
		Key:           "salary_minim_brut",
		Name:          "Salariul minim brut",
		Type:          entities.ValueNumeric,
		Unit:          "RON",
		Value:         "3300",
		EffectiveFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func (f *fixture) register(t *testing.T, in services.RegisterInput) *entities.UpdatePoint {
	t.Helper()
	if in.TreeKey == "" {
		in.TreeKey = "salarizare"
	}
	if in.DataPointName == "" {
		in.DataPointName = "Salariul minim"
	}
	if in.Criticality == "" {
		in.Criticality = entities.CriticalityCritical
	}
	p, err := f.registry.Register(context.Background(), in)
	require.NoError(t, err)
	return p
}

func daysFromNow(days int) *time.Time {
	t := time.Now().UTC().AddDate(0, 0, days)
	return &t
}
