package rendercache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/legis/internal/domain/ports"
	"github.com/ersonp/legis/internal/infrastructure/config"
)

func TestMemory_GetPut(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory()

	got, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, cache.Put(ctx, "h1", ports.CachedRender{Text: "3300 RON", RenderedAt: at}))
	require.NoError(t, cache.Put(ctx, "h1", ports.CachedRender{Text: "3400 RON", RenderedAt: at.Add(time.Hour)}))

	got, err = cache.Get(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "3400 RON", got.Text)
	assert.Equal(t, at.Add(time.Hour), got.RenderedAt)
}

func TestNew_WithoutAddrUsesMemory(t *testing.T) {
	cache, closeFn, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, cache)
	assert.NoError(t, closeFn())
}

func TestNewRedis_Unreachable(t *testing.T) {
	_, err := NewRedis(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")
}

func TestRedis_Integration(t *testing.T) {
	addr := os.Getenv("LEGIS_REDIS_ADDR")
	if os.Getenv("INTEGRATION_TEST") == "" || addr == "" {
		t.Skip("set INTEGRATION_TEST=1 and LEGIS_REDIS_ADDR to run")
	}

	ctx := context.Background()
	cache, err := NewRedis(ctx, config.RedisConfig{Addr: addr, KeyPrefix: "legis:test:", TTL: time.Minute})
	require.NoError(t, err)
	defer cache.Close()

	key := "it-" + time.Now().Format("150405.000000000")
	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, cache.Put(ctx, key, ports.CachedRender{Text: "19%", RenderedAt: at}))

	got, err = cache.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "19%", got.Text)
	assert.True(t, at.Equal(got.RenderedAt))
}
