package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Repository represents a registered source-code repository.
// Identity (owner, name, URL) is immutable after registration; only the
// resolved commit pointer is refreshed on re-ingestion.
type Repository struct {
	// ID is the stable identifier derived from owner and name.
	ID string

	// Owner is the GitHub account that owns the repository.
	Owner string

	// Name is the repository name.
	Name string

	// RepoURL is the canonical clone URL.
	RepoURL string

	// Branch is the resolved default branch. Empty until first ingestion.
	Branch string

	// CommitSHA is the head commit of the last ingestion. Empty until
	// first ingestion.
	CommitSHA string

	// CreatedAt is when the repository was registered.
	CreatedAt time.Time

	// UpdatedAt is when the commit pointer was last refreshed.
	UpdatedAt time.Time
}

// RepoID derives the stable repository identifier from owner and name.
// The same owner/name pair always yields the same id.
func RepoID(owner, name string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(owner) + "/" + strings.ToLower(name)))
	return hex.EncodeToString(sum[:12])
}

// ParseRepoURL validates a repository URL and extracts owner and name.
// Only public GitHub URLs are accepted:
//
//	https://github.com/owner/name
//	http://github.com/owner/name
//	git@github.com:owner/name
//
// Trailing slashes and a ".git" suffix are tolerated. Anything else
// returns ErrInvalidRepoURL.
func ParseRepoURL(repoURL string) (owner, name string, err error) {
	trimmed := strings.TrimSpace(repoURL)
	trimmed = strings.TrimSuffix(trimmed, "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")

	var rest string
	switch {
	case strings.HasPrefix(trimmed, "https://github.com/"):
		rest = strings.TrimPrefix(trimmed, "https://github.com/")
	case strings.HasPrefix(trimmed, "http://github.com/"):
		rest = strings.TrimPrefix(trimmed, "http://github.com/")
	case strings.HasPrefix(trimmed, "git@github.com:"):
		rest = strings.TrimPrefix(trimmed, "git@github.com:")
	default:
		return "", "", ErrInvalidRepoURL
	}

	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrInvalidRepoURL
	}

	return parts[0], parts[1], nil
}

// NewRepository builds a Repository from a validated URL.
func NewRepository(repoURL string) (*Repository, error) {
	owner, name, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Repository{
		ID:        RepoID(owner, name),
		Owner:     owner,
		Name:      name,
		RepoURL:   strings.TrimSpace(repoURL),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
