package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

// uriScheme is the custom URI scheme for codewiki resources.
const uriScheme = "codewiki://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing repositories.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "repos",
		Name:        "repos",
		Description: "List of all registered repositories",
		MIMEType:    "application/json",
	}, s.handleReposResource)

	// Template for wiki pages.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "repos/{repoId}/wiki",
		Name:        "repo-wiki",
		Description: "Generated wiki page for a repository",
		MIMEType:    "text/markdown",
	}, s.handleWikiResource)
}

// handleReposResource returns a list of all registered repositories.
func (s *Server) handleReposResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Repos == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	repos, err := s.ports.Repos.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	type repoInfo struct {
		ID        string `json:"id"`
		Owner     string `json:"owner"`
		Name      string `json:"name"`
		URL       string `json:"url"`
		Branch    string `json:"branch,omitempty"`
		CommitSHA string `json:"commit_sha,omitempty"`
	}

	infos := make([]repoInfo, len(repos))
	for i, repo := range repos {
		infos[i] = repoInfo{
			ID:        repo.ID,
			Owner:     repo.Owner,
			Name:      repo.Name,
			URL:       repo.RepoURL,
			Branch:    repo.Branch,
			CommitSHA: repo.CommitSHA,
		}
	}

	data, err := json.Marshal(infos)
	if err != nil {
		return nil, fmt.Errorf("encoding repository list: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleWikiResource returns the wiki page for one repository.
func (s *Server) handleWikiResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	repoID, ok := parseWikiURI(req.Params.URI)
	if !ok {
		return nil, fmt.Errorf("unrecognised resource URI: %s", req.Params.URI)
	}

	if s.ports.Wiki == nil {
		return nil, fmt.Errorf("wiki service not configured")
	}

	page, err := s.ports.Wiki.Page(ctx, repoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no wiki page for repository %s", repoID)
		}
		return nil, fmt.Errorf("reading wiki page: %w", err)
	}

	var b strings.Builder
	b.WriteString(page.Summary)
	if page.LongSummary != "" && page.LongSummary != page.Summary {
		b.WriteString("\n\n")
		b.WriteString(page.LongSummary)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     b.String(),
		}},
	}, nil
}

// parseWikiURI extracts the repo id from codewiki://repos/{repoId}/wiki.
func parseWikiURI(uri string) (string, bool) {
	rest, ok := strings.CutPrefix(uri, uriScheme+"repos/")
	if !ok {
		return "", false
	}
	repoID, ok := strings.CutSuffix(rest, "/wiki")
	if !ok || repoID == "" || strings.Contains(repoID, "/") {
		return "", false
	}
	return repoID, true
}
