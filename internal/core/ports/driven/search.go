package driven

import (
	"context"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

// SearchEngine provides full-text search operations.
// Backed by SQLite FTS5 for BM25 keyword search.
type SearchEngine interface {
	// Index adds or updates a document in the search index.
	Index(ctx context.Context, doc domain.IndexDocument) error

	// Delete removes a document from the search index.
	Delete(ctx context.Context, repoID, chunkID string) error

	// DeleteRepo removes all documents for a repository.
	DeleteRepo(ctx context.Context, repoID string) error

	// Search performs a keyword search and returns matching documents
	// with scores. repoFilter scopes results to one repository when
	// non-empty.
	Search(ctx context.Context, query string, limit int, repoFilter string) ([]SearchHit, error)

	// Close releases resources.
	Close() error
}

// SearchHit represents a search result from the engine.
type SearchHit struct {
	// RepoID and ChunkID identify the matched document.
	RepoID  string
	ChunkID string

	// Score is the relevance score (e.g., BM25).
	Score float64
}
