package mocks

import (
	"context"

	"github.com/ersonp/legis/internal/domain/ports"
)

// VectorIndex is a mock implementation of ports.VectorIndex.
type VectorIndex struct {
	Hits []ports.SearchHit
	Err  error

	// Call tracking
	UpsertCallCount int
	UpsertedDocs    []ports.VariableDocument
	LastLimit       int
}

// Upsert records the documents.
func (m *VectorIndex) Upsert(ctx context.Context, docs []ports.VariableDocument) error {
	m.UpsertCallCount++
	m.UpsertedDocs = docs
	return m.Err
}

// Search returns up to limit configured hits.
func (m *VectorIndex) Search(ctx context.Context, embedding []float32, limit int) ([]ports.SearchHit, error) {
	m.LastLimit = limit
	if m.Err != nil {
		return nil, m.Err
	}
	if limit < len(m.Hits) {
		return m.Hits[:limit], nil
	}
	return m.Hits, nil
}
