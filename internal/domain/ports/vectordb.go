package ports

import "context"

// VariableDocument is the searchable text of a variable.
type VariableDocument struct {
	Key       string
	Name      string
	Text      string
	Embedding []float32
}

// SearchHit is a variable matched by a search.
type SearchHit struct {
	Key   string  `json:"key"`
	Name  string  `json:"name"`
	Score float32 `json:"score"`
}

// VectorIndex defines the interface for semantic variable search.
type VectorIndex interface {
	// Upsert stores documents with their embeddings, replacing any with the same key.
	Upsert(ctx context.Context, docs []VariableDocument) error

	// Search returns the variables closest to the embedding.
	Search(ctx context.Context, embedding []float32, limit int) ([]SearchHit, error)
}
