package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/services"
)

func TestMonitorHandler_HandleOverdueScan(t *testing.T) {
	f := newFixture()
	f.register(t, services.RegisterInput{DataPointName: "late", NextVerificationDue: daysFromNow(-3)})
	f.register(t, services.RegisterInput{DataPointName: "soon", Criticality: entities.CriticalityHigh, NextVerificationDue: daysFromNow(3)})
	f.register(t, services.RegisterInput{DataPointName: "later", Criticality: entities.CriticalityLow, NextVerificationDue: daysFromNow(90)})
	handler := NewMonitorHandler(f.registry, f.statistics, f.variables, f.metrics, nil)

	result, err := handler.HandleOverdueScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ScanResult{Overdue: 1, DueSoon: 1}, result)

	assert.Equal(t, 1, f.metrics.OverdueGauge[entities.CriticalityCritical])
	assert.Equal(t, 1, f.metrics.DueSoonGauge[entities.CriticalityHigh])
	assert.Contains(t, f.metrics.OverdueGauge, entities.CriticalityMedium, "every tier is published")
	assert.Zero(t, f.metrics.OverdueGauge[entities.CriticalityLow])
}

func TestMonitorHandler_HandleStagedActivation(t *testing.T) {
	f := newFixture()
	f.defineSalary(t)
	p := f.register(t, services.RegisterInput{VariableKey: "salary_minim_brut"})
	handler := NewMonitorHandler(f.registry, f.statistics, f.variables, f.metrics, nil)

	n, err := handler.HandleStagedActivation(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	// A value recorded directly in history, as if its effective date just passed.
	f.db.Versions = append(f.db.Versions, entities.VariableVersion{
		ID:            99,
		VariableKey:   "salary_minim_brut",
		Value:         "3700",
		EffectiveFrom: time.Now().UTC().Add(-time.Minute),
	})

	n, err = handler.HandleStagedActivation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "3700", f.db.Points[p.ID].CurrentValue)
}
