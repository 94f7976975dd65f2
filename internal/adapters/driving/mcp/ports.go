package mcp

import (
	"github.com/custodia-labs/codewiki/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides search capabilities.
	Search driving.SearchService

	// Repos exposes the repository registry.
	Repos driving.RepositoryService

	// Wiki exposes wiki pages.
	Wiki driving.WikiService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Repos and Wiki are optional; their tools and resources answer
	// empty when unset.
	return nil
}
