package ports

import "context"

// CollectionManager handles the lifecycle of the variable search collection.
// Kept apart from VectorIndex so the index can be rebuilt from scratch.
type CollectionManager interface {
	// EnsureCollection creates the collection if it doesn't exist.
	EnsureCollection(ctx context.Context, vectorSize uint64) error

	// DeleteCollection removes the collection and all its data.
	DeleteCollection(ctx context.Context) error
}
