package ports

import (
	"context"
	"time"
)

// CachedRender is a previously successful render of a template.
type CachedRender struct {
	Text       string    `json:"text"`
	RenderedAt time.Time `json:"rendered_at"`
}

// RenderCache keeps the last good render of each template.
type RenderCache interface {
	// Get returns the cached render for templateHash, or nil if none exists.
	Get(ctx context.Context, templateHash string) (*CachedRender, error)

	// Put stores a successful render.
	Put(ctx context.Context, templateHash string, render CachedRender) error
}
