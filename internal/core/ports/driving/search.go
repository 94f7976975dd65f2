package driving

import (
	"context"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

// SearchService provides the query path over the indexed corpus.
type SearchService interface {
	// Search embeds the query, retrieves candidates, and returns ranked
	// snippets with file/line provenance. An unknown repo filter yields
	// an empty result set, not an error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
