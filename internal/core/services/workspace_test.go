package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

func TestWorkspace_EnsureClone_FreshClone(t *testing.T) {
	cloner := &mockCloner{sha: "abc123", branch: "main"}
	w := NewWorkspace(t.TempDir(), cloner)
	repo := &domain.Repository{ID: "r1", Owner: "acme", Name: "widgets", RepoURL: "https://github.com/acme/widgets"}

	sha, branch, err := w.EnsureClone(context.Background(), repo)

	require.NoError(t, err)
	assert.Equal(t, "abc123", sha)
	assert.Equal(t, "main", branch)
	assert.True(t, cloner.cloned)
}

func TestWorkspace_EnsureClone_RefusesNonRepoDir(t *testing.T) {
	dataDir := t.TempDir()
	cloner := &mockCloner{sha: "abc123", branch: "main"}
	w := NewWorkspace(dataDir, cloner)
	repo := &domain.Repository{ID: "r1", Owner: "acme", Name: "widgets"}

	// Pre-create the directory without marking it a repository.
	require.NoError(t, os.MkdirAll(w.RepoDir(repo), 0o755))

	_, _, err := w.EnsureClone(context.Background(), repo)

	assert.ErrorIs(t, err, domain.ErrCloneFailed)
}

func TestWorkspace_BuildContext(t *testing.T) {
	dataDir := t.TempDir()
	cloner := &mockCloner{files: []string{"main.go", "pkg/util.go", "README.md"}}
	w := NewWorkspace(dataDir, cloner)
	repo := &domain.Repository{ID: "r1", Owner: "acme", Name: "widgets", CommitSHA: "abc123"}

	dir := w.RepoDir(repo)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Widgets\n"), 0o644))

	rc, err := w.BuildContext(context.Background(), repo)

	require.NoError(t, err)
	assert.Equal(t, "acme", rc.Owner)
	assert.Equal(t, "widgets", rc.Name)
	assert.Equal(t, "abc123", rc.CommitSHA)
	assert.Len(t, rc.FileTree, 3)
	assert.Equal(t, 2, rc.Languages["go"])
	assert.Contains(t, rc.ReadmeContent, "# Widgets")
}
