// Package github provides a RepoResolver backed by the GitHub API.
package github

import (
	"context"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
)

// Ensure Resolver implements the interface.
var _ driven.RepoResolver = (*Resolver)(nil)

// Resolver validates repositories against the GitHub API before any
// clone happens. A token raises the rate limit but is not required for
// public repositories.
type Resolver struct {
	client *gh.Client
}

// NewResolver creates a resolver. token may be empty for anonymous access.
func NewResolver(token string) *Resolver {
	var httpClient *http.Client
	if token != "" {
		httpClient = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		))
	}
	return &Resolver{client: gh.NewClient(httpClient)}
}

// Resolve checks that owner/name exists and is public, and returns the
// default branch.
func (r *Resolver) Resolve(ctx context.Context, owner, name string) (string, error) {
	repo, resp, err := r.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			// Private repositories also answer 404 for anonymous callers.
			return "", fmt.Errorf("%w: %s/%s not found or not public", domain.ErrInvalidRepoURL, owner, name)
		}
		return "", fmt.Errorf("resolving %s/%s: %w", owner, name, err)
	}

	if repo.GetPrivate() {
		return "", fmt.Errorf("%w: %s/%s is private", domain.ErrInvalidRepoURL, owner, name)
	}

	branch := repo.GetDefaultBranch()
	if branch == "" {
		branch = "main"
	}
	return branch, nil
}
