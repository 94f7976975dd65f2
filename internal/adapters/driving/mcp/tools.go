package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

// SearchInput is the input schema for the search_code tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to find code"`
	Repo  string `json:"repo,omitempty" jsonschema:"optional repository id to scope the search"`
	Mode  string `json:"mode,omitempty" jsonschema:"search mode: fast (hybrid, default) or deep (semantic only)"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search_code tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	RepoID    string  `json:"repo_id"`
	FilePath  string  `json:"file_path"`
	LineStart int     `json:"line_start"`
	LineEnd   int     `json:"line_end"`
	Score     float64 `json:"score"`
	Snippet   string  `json:"snippet"`
}

// WikiInput is the input schema for the get_wiki tool.
type WikiInput struct {
	RepoID string `json:"repo_id" jsonschema:"the repository id to fetch the wiki page for"`
}

// WikiOutput is the output schema for the get_wiki tool.
type WikiOutput struct {
	Summary     string `json:"summary"`
	LongSummary string `json:"long_summary"`
	Versions    int    `json:"versions"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_code",
		Description: "Search indexed repositories for code, ranked by hybrid lexical and semantic relevance",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_wiki",
		Description: "Fetch the generated wiki summary for a repository",
	}, s.handleWiki)
}

// handleSearch handles the search_code tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	mode := domain.SearchMode(input.Mode)
	if input.Mode == "" {
		mode = domain.SearchModeFast
	}
	if !mode.IsValid() {
		return nil, SearchOutput{}, fmt.Errorf("unknown search mode %q", input.Mode)
	}

	opts := domain.SearchOptions{
		RepoFilter: input.Repo,
		Mode:       mode,
		Limit:      limit,
	}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = SearchResultOutput{
			RepoID:    results[i].RepoID,
			FilePath:  results[i].FilePath,
			LineStart: results[i].LineStart,
			LineEnd:   results[i].LineEnd,
			Score:     results[i].Score,
			Snippet:   results[i].Snippet,
		}
	}

	return nil, output, nil
}

// handleWiki handles the get_wiki tool invocation.
func (s *Server) handleWiki(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input WikiInput,
) (*mcp.CallToolResult, WikiOutput, error) {
	if s.ports.Wiki == nil {
		return nil, WikiOutput{}, fmt.Errorf("wiki service not configured")
	}

	page, err := s.ports.Wiki.Page(ctx, input.RepoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, WikiOutput{}, fmt.Errorf("no wiki page for repository %s", input.RepoID)
		}
		return nil, WikiOutput{}, err
	}

	return nil, WikiOutput{
		Summary:     page.Summary,
		LongSummary: page.LongSummary,
		Versions:    len(page.History),
	}, nil
}
