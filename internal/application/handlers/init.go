// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/legis/internal/domain/ports"
	"github.com/ersonp/legis/internal/infrastructure/config"
	embedder "github.com/ersonp/legis/internal/infrastructure/embedder/openai"
)

// InitHandler handles workspace initialization.
type InitHandler struct {
	collectionManager ports.CollectionManager
}

// NewInitHandler creates a new init handler. collectionManager may be nil when
// variable search is not used.
func NewInitHandler(collectionManager ports.CollectionManager) *InitHandler {
	return &InitHandler{
		collectionManager: collectionManager,
	}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath     string
	DBPath         string
	CollectionName string
}

// Handle writes the default configuration under basePath and prepares the
// search collection.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("legis already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	result := &InitResult{
		ConfigPath: config.ConfigFilePath(basePath),
		DBPath:     cfg.SQLite.Path,
	}

	if h.collectionManager != nil {
		if err := h.collectionManager.EnsureCollection(ctx, embedder.VectorSize); err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
		result.CollectionName = cfg.Qdrant.Collection
	}

	return result, nil
}
