package driving

import (
	"context"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

// IngestionService drives the per-repository ingestion pipeline.
type IngestionService interface {
	// Start begins (or restarts) ingestion for a repository and returns
	// the initial status. While a job is active for the same repo id,
	// the call returns domain.ErrIngestionInProgress under the reject
	// policy, or preempts the active job under the preempt policy.
	Start(ctx context.Context, repoID string) (*domain.IngestionStatus, error)

	// Status returns the current status for a repository.
	Status(ctx context.Context, repoID string) (*domain.IngestionStatus, error)

	// Subscribe returns a channel of status updates for a repository
	// and a cancel function. Updates are delivered in pipeline order.
	Subscribe(repoID string) (<-chan domain.IngestionStatus, func())

	// Reconcile repairs statuses orphaned by a crash: any persisted
	// non-terminal status with no owning job is moved to error.
	Reconcile(ctx context.Context) error

	// Shutdown cancels all active jobs and waits for them to finish.
	Shutdown(ctx context.Context) error
}
