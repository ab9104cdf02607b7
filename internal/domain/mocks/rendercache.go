package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/legis/internal/domain/ports"
)

// RenderCache is an in-memory mock of ports.RenderCache.
type RenderCache struct {
	mu      sync.Mutex
	Renders map[string]ports.CachedRender
	GetErr  error
	PutErr  error
}

// NewRenderCache creates an empty RenderCache.
func NewRenderCache() *RenderCache {
	return &RenderCache{Renders: make(map[string]ports.CachedRender)}
}

// Get returns the stored render or nil.
func (m *RenderCache) Get(ctx context.Context, templateHash string) (*ports.CachedRender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	r, ok := m.Renders[templateHash]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// Put stores the render.
func (m *RenderCache) Put(ctx context.Context, templateHash string, render ports.CachedRender) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}
	m.Renders[templateHash] = render
	return nil
}
