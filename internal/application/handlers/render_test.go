package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/mocks"
	"github.com/ersonp/legis/internal/domain/ports"
	"github.com/ersonp/legis/internal/domain/services"
)

func TestRenderHandler_Handle(t *testing.T) {
	f := newFixture()
	f.defineSalary(t)
	cache := mocks.NewRenderCache()
	handler := NewRenderHandler(services.NewRenderService(f.db), cache, f.metrics, nil)
	ctx := context.Background()

	result, err := handler.Handle(ctx, RenderRequest{Template: "Salariul minim: {{salary_minim_brut}}"})
	require.NoError(t, err)
	assert.Equal(t, "Salariul minim: 3300 RON", result.Text)
	assert.Equal(t, []string{"salary_minim_brut"}, result.Placeholders)
	assert.False(t, result.Stale)
	assert.Len(t, cache.Renders, 1)
	assert.Equal(t, 1, f.metrics.Renders[ports.RenderOK])
}

func TestRenderHandler_Handle_RenderedAtUsesClock(t *testing.T) {
	at := time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)
	old := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = old })

	f := newFixture()
	f.defineSalary(t)
	cache := mocks.NewRenderCache()
	handler := NewRenderHandler(services.NewRenderService(f.db), cache, f.metrics, nil)

	result, err := handler.Handle(context.Background(), RenderRequest{Template: "{{salary_minim_brut}} RON"})
	require.NoError(t, err)
	assert.Equal(t, "3300 RON", result.Text)
	assert.Equal(t, at, result.RenderedAt)

	cached, ok := cache.Renders[RenderKey("{{salary_minim_brut}} RON", time.Time{})]
	require.True(t, ok)
	assert.Equal(t, at, cached.RenderedAt)
}

func TestRenderHandler_Handle_StaleFallback(t *testing.T) {
	f := newFixture()
	f.defineSalary(t)
	cache := mocks.NewRenderCache()
	handler := NewRenderHandler(services.NewRenderService(f.db), cache, f.metrics, nil)
	ctx := context.Background()
	template := "Salariul minim: {{salary_minim_brut}}"

	good, err := handler.Handle(ctx, RenderRequest{Template: template})
	require.NoError(t, err)

	// The value history disappears, so the key no longer resolves.
	f.db.Versions = nil

	stale, err := handler.Handle(ctx, RenderRequest{Template: template})
	require.NoError(t, err)
	assert.True(t, stale.Stale)
	assert.Equal(t, good.Text, stale.Text)
	assert.Equal(t, good.RenderedAt, stale.RenderedAt)
	assert.Equal(t, []string{"salary_minim_brut"}, stale.Unresolved)
	assert.Equal(t, 1, f.metrics.Renders[ports.RenderStale])

	_, err = handler.Handle(ctx, RenderRequest{Template: "{{salary_minim_brut}} lunar"})
	require.ErrorIs(t, err, ErrContentUnavailable)
	assert.ErrorIs(t, err, entities.ErrUnresolvedVariable)
	var uerr *entities.UnresolvedVariableError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, []string{"salary_minim_brut"}, uerr.Keys)
	assert.Equal(t, 1, f.metrics.Renders[ports.RenderUnresolved])
}

func TestRenderHandler_Handle_NoCache(t *testing.T) {
	f := newFixture()
	handler := NewRenderHandler(services.NewRenderService(f.db), nil, f.metrics, nil)

	_, err := handler.Handle(context.Background(), RenderRequest{Template: "{{unknown_key}}"})
	assert.ErrorIs(t, err, ErrContentUnavailable)

	result, err := handler.Handle(context.Background(), RenderRequest{Template: "no placeholders"})
	require.NoError(t, err)
	assert.Equal(t, "no placeholders", result.Text)
	assert.Empty(t, result.Placeholders)
}

func TestRenderHandler_Handle_StoreError(t *testing.T) {
	f := newFixture()
	f.db.Err = errors.New("disk I/O error")
	cache := mocks.NewRenderCache()
	handler := NewRenderHandler(services.NewRenderService(f.db), cache, f.metrics, nil)

	_, err := handler.Handle(context.Background(), RenderRequest{Template: "{{a}}"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrContentUnavailable)
	assert.Equal(t, 1, f.metrics.Renders[ports.RenderErrored])
}

func TestRenderHandler_Handle_CacheErrorsDoNotFailRender(t *testing.T) {
	f := newFixture()
	f.defineSalary(t)
	cache := mocks.NewRenderCache()
	cache.PutErr = errors.New("redis down")
	handler := NewRenderHandler(services.NewRenderService(f.db), cache, f.metrics, nil)

	result, err := handler.Handle(context.Background(), RenderRequest{Template: "{{salary_minim_brut}}"})
	require.NoError(t, err)
	assert.Equal(t, "3300 RON", result.Text)
}

func TestRenderKey(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, RenderKey("{{a}}", time.Time{}), RenderKey("{{a}}", time.Time{}))
	assert.NotEqual(t, RenderKey("{{a}}", time.Time{}), RenderKey("{{b}}", time.Time{}))
	assert.NotEqual(t, RenderKey("{{a}}", time.Time{}), RenderKey("{{a}}", asOf))
	assert.NotEqual(t, RenderKey("{{a}}", asOf), RenderKey("{{a}}", asOf.Add(6*time.Hour)), "as_of is keyed by instant")
	assert.Equal(t, RenderKey("{{a}}", asOf), RenderKey("{{a}}", asOf.In(time.FixedZone("EET", 2*3600))))
	assert.Len(t, RenderKey("", time.Time{}), 64)
}
