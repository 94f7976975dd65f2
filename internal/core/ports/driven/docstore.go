package driven

import (
	"context"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

// DocumentStore persists index documents keyed by (repo id, chunk id).
// Upserts are idempotent: re-feeding the same key replaces the stored
// document, never duplicates it.
type DocumentStore interface {
	// UpsertDocuments stores or replaces a batch of documents atomically.
	UpsertDocuments(ctx context.Context, docs []domain.IndexDocument) error

	// GetDocument retrieves one document. Returns domain.ErrNotFound if absent.
	GetDocument(ctx context.Context, repoID, chunkID string) (*domain.IndexDocument, error)

	// CountDocuments returns the number of documents for a repository.
	CountDocuments(ctx context.Context, repoID string) (int, error)

	// DeleteRepo removes all documents for a repository.
	DeleteRepo(ctx context.Context, repoID string) error

	// WalkEmbeddings visits every stored embedding. Used to rebuild the
	// in-process vector index at startup. Iteration stops on the first
	// error returned by fn.
	WalkEmbeddings(ctx context.Context, fn func(repoID, chunkID string, embedding []float32) error) error
}
