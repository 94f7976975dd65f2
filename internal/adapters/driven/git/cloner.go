// Package git provides a RepoCloner backed by the git binary.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
)

// Ensure Cloner implements the interface.
var _ driven.RepoCloner = (*Cloner)(nil)

// Cloner shells out to git for clone, fetch, and inspection. Shallow
// clones keep the working copies small; history is not needed for
// chunking.
type Cloner struct {
	// gitPath is the git executable, resolved once at construction.
	gitPath string
}

// NewCloner creates a cloner. Returns an error if git is not on PATH.
func NewCloner() (*Cloner, error) {
	path, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git binary not found: %w", err)
	}
	return &Cloner{gitPath: path}, nil
}

// Clone clones repoURL into dir as a shallow single-branch clone.
func (c *Cloner) Clone(ctx context.Context, repoURL, dir string) error {
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return fmt.Errorf("creating clone parent directory: %w", err)
	}

	_, err := c.run(ctx, "", "clone", "--depth", "1", "--single-branch", repoURL, dir)
	if err != nil {
		return fmt.Errorf("git clone %s: %w", repoURL, err)
	}
	return nil
}

// Update refreshes an existing working copy to the remote head.
func (c *Cloner) Update(ctx context.Context, dir string) error {
	if _, err := c.run(ctx, dir, "fetch", "--depth", "1", "origin"); err != nil {
		return fmt.Errorf("git fetch: %w", err)
	}

	// The shallow fetch leaves the remote head in FETCH_HEAD.
	if _, err := c.run(ctx, dir, "reset", "--hard", "FETCH_HEAD"); err != nil {
		return fmt.Errorf("git reset: %w", err)
	}
	return nil
}

// Head returns the checked-out commit sha and branch name.
func (c *Cloner) Head(ctx context.Context, dir string) (string, string, error) {
	sha, err := c.run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", "", fmt.Errorf("git rev-parse HEAD: %w", err)
	}

	branch, err := c.run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", "", fmt.Errorf("git rev-parse branch: %w", err)
	}

	return strings.TrimSpace(sha), strings.TrimSpace(branch), nil
}

// ListFiles returns tracked file paths relative to dir.
func (c *Cloner) ListFiles(ctx context.Context, dir string) ([]string, error) {
	out, err := c.run(ctx, dir, "ls-files", "-z")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var files []string
	for _, path := range strings.Split(out, "\x00") {
		if path != "" {
			files = append(files, path)
		}
	}
	return files, nil
}

// IsRepo reports whether dir is a git working copy.
func (c *Cloner) IsRepo(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && info.IsDir()
}

// run executes a git subcommand and returns its stdout. Stderr is
// folded into the error for diagnosis.
func (c *Cloner) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, c.gitPath, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	// Never prompt for credentials; public repos only.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", err
		}
		return "", fmt.Errorf("%w: %s", err, msg)
	}
	return stdout.String(), nil
}
