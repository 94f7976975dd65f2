package driving

import (
	"context"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

// WikiPage is the wiki read model: the current head plus full history.
type WikiPage struct {
	// Summary and LongSummary are the head artifact's content.
	Summary     string
	LongSummary string

	// History lists all artifact versions, newest first.
	History []domain.WikiArtifact
}

// WikiService exposes wiki artifacts and regeneration.
type WikiService interface {
	// Page returns the current wiki page for a repository.
	// Returns domain.ErrNotFound if no artifact exists yet.
	Page(ctx context.Context, repoID string) (*WikiPage, error)

	// Regenerate forces a new generation cycle after ready, appending a
	// new version on success.
	Regenerate(ctx context.Context, repoID string) (*domain.WikiArtifact, error)

	// Status returns the live generation state.
	Status(ctx context.Context, repoID string) (*domain.WikiStatus, error)
}
