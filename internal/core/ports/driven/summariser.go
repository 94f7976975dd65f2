package driven

import (
	"context"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

// WikiContent is what one summarisation call produces.
type WikiContent struct {
	// Summary is the short narrative summary.
	Summary string

	// LongSummary is the extended narrative summary.
	LongSummary string
}

// Summariser drives the external summarisation collaborator.
// Calls are possibly slow remote operations and must honour ctx.
//
// Implementations may include:
//   - OpenAI (GPT-4 family)
//   - Ollama (local models)
type Summariser interface {
	// Summarise generates wiki content from the repository context.
	Summarise(ctx context.Context, rc domain.RepoContext) (*WikiContent, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
