package driving

import (
	"context"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

// RepositoryService manages the repository registry.
type RepositoryService interface {
	// Register validates a repository URL and stores a new registry
	// record. Registration is idempotent: registering an already-known
	// URL returns the existing record.
	Register(ctx context.Context, repoURL string) (*domain.Repository, error)

	// Get retrieves a repository by id.
	Get(ctx context.Context, id string) (*domain.Repository, error)

	// List returns all registered repositories.
	List(ctx context.Context) ([]domain.Repository, error)
}
