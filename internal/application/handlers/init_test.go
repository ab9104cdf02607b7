package handlers

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/legis/internal/domain/mocks"
	"github.com/ersonp/legis/internal/infrastructure/config"
)

func TestInitHandler_Handle_Success(t *testing.T) {
	t.Setenv("LEGIS_DB_PATH", "")
	tmpDir := t.TempDir()
	collections := &mocks.CollectionManager{}

	result, err := NewInitHandler(collections).Handle(t.Context(), tmpDir)

	require.NoError(t, err)
	assert.Contains(t, result.ConfigPath, "config.yaml")
	assert.Equal(t, filepath.Join(tmpDir, ".legis", "legis.db"), result.DBPath)
	assert.Equal(t, "legis_variables", result.CollectionName)
	assert.Equal(t, 1, collections.EnsureCollectionCallCount)
	assert.True(t, config.Exists(tmpDir))
}

func TestInitHandler_Handle_WithoutSearch(t *testing.T) {
	result, err := NewInitHandler(nil).Handle(t.Context(), t.TempDir())

	require.NoError(t, err)
	assert.Empty(t, result.CollectionName)
}

func TestInitHandler_Handle_AlreadyInitialized(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, config.WriteDefault(tmpDir))

	_, err := NewInitHandler(nil).Handle(t.Context(), tmpDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")
}

func TestInitHandler_Handle_CollectionError(t *testing.T) {
	collections := &mocks.CollectionManager{EnsureErr: errors.New("connection failed")}

	_, err := NewInitHandler(collections).Handle(t.Context(), t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating collection")
	assert.Contains(t, err.Error(), "connection failed")
}
