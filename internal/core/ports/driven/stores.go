package driven

import (
	"context"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

// RepositoryStore persists the repository registry.
type RepositoryStore interface {
	// Save stores or updates a repository record.
	Save(ctx context.Context, repo *domain.Repository) error

	// Get retrieves a repository by id. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Repository, error)

	// GetByURL retrieves a repository by its canonical URL.
	GetByURL(ctx context.Context, repoURL string) (*domain.Repository, error)

	// List returns all registered repositories.
	List(ctx context.Context) ([]domain.Repository, error)

	// Delete removes a repository record.
	Delete(ctx context.Context, id string) error
}

// ManifestStore persists per-generation manifests. Generations are
// superseded, not mutated: Save appends, Head returns the newest.
type ManifestStore interface {
	// Save stores a manifest for a (repo, commit) generation.
	Save(ctx context.Context, m *domain.Manifest) error

	// Head returns the most recent manifest for a repository.
	// Returns domain.ErrNotFound if the repository was never indexed.
	Head(ctx context.Context, repoID string) (*domain.Manifest, error)

	// List returns all manifests for a repository, newest first.
	List(ctx context.Context, repoID string) ([]domain.Manifest, error)
}

// WikiStore persists the append-only wiki artifact history and the live
// wiki generation state.
type WikiStore interface {
	// Append stores a new artifact version. The version must be one
	// greater than the current head (or 1 for the first artifact).
	Append(ctx context.Context, a *domain.WikiArtifact) error

	// Head returns the highest-version artifact for a repository.
	// Returns domain.ErrNotFound if no artifact exists.
	Head(ctx context.Context, repoID string) (*domain.WikiArtifact, error)

	// History returns all artifact versions for a repository, newest first.
	History(ctx context.Context, repoID string) ([]domain.WikiArtifact, error)

	// NextVersion returns the version the next artifact should carry.
	NextVersion(ctx context.Context, repoID string) (int, error)

	// SaveStatus stores the live wiki generation state.
	SaveStatus(ctx context.Context, s *domain.WikiStatus) error

	// GetStatus retrieves the live wiki generation state.
	// Returns domain.ErrNotFound if generation never started.
	GetStatus(ctx context.Context, repoID string) (*domain.WikiStatus, error)
}

// StatusStore persists the live ingestion status per repository.
// Exactly one status exists per repository; Save overwrites in place.
type StatusStore interface {
	// Save stores or overwrites the status for a repository.
	Save(ctx context.Context, s *domain.IngestionStatus) error

	// Get retrieves the status for a repository.
	// Returns domain.ErrNotFound if ingestion was never requested.
	Get(ctx context.Context, repoID string) (*domain.IngestionStatus, error)

	// ListActive returns statuses whose stage is non-terminal. Used by
	// startup reconciliation to detect jobs orphaned by a crash.
	ListActive(ctx context.Context) ([]domain.IngestionStatus, error)
}

// EmbeddingCache is the durable content-hash to vector cache consulted
// before calling the embedding provider.
type EmbeddingCache interface {
	// Get returns cached vectors for the given hashes. Missing hashes
	// are simply absent from the returned map.
	Get(ctx context.Context, hashes []string) (map[string][]float32, error)

	// Put persists vectors keyed by content hash.
	Put(ctx context.Context, vectors map[string][]float32) error
}
