package driven

import "context"

// VectorIndex provides semantic similarity search operations.
// The index dimension is fixed at construction; vectors with a
// different dimension are rejected.
type VectorIndex interface {
	// Add inserts or replaces the vector for a document.
	Add(ctx context.Context, repoID, chunkID string, embedding []float32) error

	// Delete removes a vector from the index.
	Delete(ctx context.Context, repoID, chunkID string) error

	// DeleteRepo removes all vectors for a repository.
	DeleteRepo(ctx context.Context, repoID string) error

	// Search finds the k nearest neighbours to the query vector.
	// repoFilter scopes results to one repository when non-empty.
	Search(ctx context.Context, query []float32, k int, repoFilter string) ([]VectorHit, error)

	// Dimensions returns the fixed vector dimension.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// RepoID and ChunkID identify the matched document.
	RepoID  string
	ChunkID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
