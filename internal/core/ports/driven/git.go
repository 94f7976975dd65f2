package driven

import "context"

// RepoCloner obtains and inspects repository working copies.
// Backed by the git binary.
type RepoCloner interface {
	// Clone clones repoURL into dir. Fatal for the job on failure;
	// clone errors are not retried.
	Clone(ctx context.Context, repoURL, dir string) error

	// Update refreshes an existing working copy to the remote head.
	Update(ctx context.Context, dir string) error

	// Head returns the checked-out commit sha and branch name.
	Head(ctx context.Context, dir string) (sha, branch string, err error)

	// ListFiles returns tracked file paths relative to dir.
	ListFiles(ctx context.Context, dir string) ([]string, error)

	// IsRepo reports whether dir is a git working copy.
	IsRepo(dir string) bool
}

// RepoResolver validates repository URLs against the hosting provider
// and resolves repository metadata before any clone happens.
type RepoResolver interface {
	// Resolve checks that owner/name exists and is public, and returns
	// the default branch. Returns domain.ErrInvalidRepoURL for private
	// or nonexistent repositories.
	Resolve(ctx context.Context, owner, name string) (defaultBranch string, err error)
}
