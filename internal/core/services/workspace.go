package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
	"github.com/custodia-labs/codewiki/internal/logger"
)

// readmeCandidates are checked, in order, when building repo context.
var readmeCandidates = []string{"README.md", "README.rst", "README.txt", "README", "readme.md"}

// maxReadmeBytes bounds how much README content is handed to the summariser.
const maxReadmeBytes = 32 * 1024

// maxTreeFiles bounds the file tree handed to the summariser.
const maxTreeFiles = 500

// Workspace manages repository working copies under the data directory
// and assembles the context handed to the summariser.
type Workspace struct {
	dataDir string
	cloner  driven.RepoCloner
}

// NewWorkspace creates a workspace rooted at dataDir.
func NewWorkspace(dataDir string, cloner driven.RepoCloner) *Workspace {
	return &Workspace{
		dataDir: dataDir,
		cloner:  cloner,
	}
}

// RepoDir returns the working copy path for a repository.
func (w *Workspace) RepoDir(repo *domain.Repository) string {
	return filepath.Join(w.dataDir, "repos", repo.Owner, repo.Name)
}

// EnsureClone clones or refreshes the working copy and returns the
// checked-out commit sha and branch. A directory that exists but is not
// a git working copy is a clone error (never silently reused).
func (w *Workspace) EnsureClone(ctx context.Context, repo *domain.Repository) (sha, branch string, err error) {
	dir := w.RepoDir(repo)

	info, statErr := os.Stat(dir)
	switch {
	case statErr == nil && !info.IsDir():
		return "", "", fmt.Errorf("%w: %s exists and is not a directory", domain.ErrCloneFailed, dir)

	case statErr == nil && w.cloner.IsRepo(dir):
		logger.Debug("workspace: refreshing existing clone at %s", dir)
		if err := w.cloner.Update(ctx, dir); err != nil {
			return "", "", fmt.Errorf("%w: %v", domain.ErrCloneFailed, err)
		}

	case statErr == nil:
		// Present but not a repository: refuse rather than guess.
		return "", "", fmt.Errorf("%w: %s exists but is not a git repository", domain.ErrCloneFailed, dir)

	default:
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return "", "", fmt.Errorf("%w: %v", domain.ErrCloneFailed, err)
		}
		logger.Info("Cloning %s into %s", repo.RepoURL, dir)
		if err := w.cloner.Clone(ctx, repo.RepoURL, dir); err != nil {
			return "", "", fmt.Errorf("%w: %v", domain.ErrCloneFailed, err)
		}
	}

	sha, branch, err = w.cloner.Head(ctx, dir)
	if err != nil {
		return "", "", fmt.Errorf("%w: resolve head: %v", domain.ErrCloneFailed, err)
	}
	return sha, branch, nil
}

// BuildContext assembles the repository context for the summariser from
// the working copy: the file tree, a rough language census, and the
// README when present.
func (w *Workspace) BuildContext(ctx context.Context, repo *domain.Repository) (domain.RepoContext, error) {
	dir := w.RepoDir(repo)

	files, err := w.cloner.ListFiles(ctx, dir)
	if err != nil {
		return domain.RepoContext{}, fmt.Errorf("list files: %w", err)
	}

	rc := domain.RepoContext{
		Owner:     repo.Owner,
		Name:      repo.Name,
		CommitSHA: repo.CommitSHA,
		Languages: make(map[string]int),
	}

	for _, f := range files {
		if len(rc.FileTree) < maxTreeFiles {
			rc.FileTree = append(rc.FileTree, f)
		}
		if ext := strings.TrimPrefix(filepath.Ext(f), "."); ext != "" {
			rc.Languages[ext]++
		}
	}

	for _, name := range readmeCandidates {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if len(data) > maxReadmeBytes {
			data = data[:maxReadmeBytes]
		}
		rc.ReadmeContent = string(data)
		break
	}

	return rc, nil
}
