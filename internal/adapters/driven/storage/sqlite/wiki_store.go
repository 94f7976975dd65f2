package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
)

// wikiStore implements driven.WikiStore. Artifacts are append-only;
// the status row is overwritten in place.
type wikiStore struct {
	store *Store
}

var _ driven.WikiStore = (*wikiStore)(nil)

// Append stores a new artifact version. The (repo_id, version) primary
// key rejects duplicate versions, so concurrent writers cannot clobber
// history.
func (s *wikiStore) Append(ctx context.Context, a *domain.WikiArtifact) error {
	if a.Version < 1 {
		return fmt.Errorf("%w: artifact version must be >= 1", domain.ErrInvalidInput)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO wiki_artifacts (repo_id, version, summary, long_summary, commit_sha, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.RepoID, a.Version, a.Summary, a.LongSummary, a.CommitSHA, a.CreatedAt)

	if err != nil {
		return fmt.Errorf("appending wiki artifact: %w", err)
	}
	return nil
}

// Head returns the highest-version artifact for a repository.
func (s *wikiStore) Head(ctx context.Context, repoID string) (*domain.WikiArtifact, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT repo_id, version, summary, long_summary, commit_sha, created_at
		FROM wiki_artifacts WHERE repo_id = ?
		ORDER BY version DESC LIMIT 1
	`, repoID)
	return scanWikiArtifact(row)
}

// History returns all artifact versions for a repository, newest first.
func (s *wikiStore) History(ctx context.Context, repoID string) ([]domain.WikiArtifact, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT repo_id, version, summary, long_summary, commit_sha, created_at
		FROM wiki_artifacts WHERE repo_id = ?
		ORDER BY version DESC
	`, repoID)
	if err != nil {
		return nil, fmt.Errorf("querying wiki history: %w", err)
	}
	defer rows.Close()

	var artifacts []domain.WikiArtifact //nolint:prealloc // size unknown from query
	for rows.Next() {
		var a domain.WikiArtifact
		if err := rows.Scan(&a.RepoID, &a.Version, &a.Summary, &a.LongSummary,
			&a.CommitSHA, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning wiki artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating wiki artifacts: %w", err)
	}
	return artifacts, nil
}

// NextVersion returns the version the next artifact should carry.
func (s *wikiStore) NextVersion(ctx context.Context, repoID string) (int, error) {
	var maxVersion int
	err := s.store.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM wiki_artifacts WHERE repo_id = ?
	`, repoID).Scan(&maxVersion)
	if err != nil {
		return 0, fmt.Errorf("getting max wiki version: %w", err)
	}
	return maxVersion + 1, nil
}

// SaveStatus stores the live wiki generation state.
func (s *wikiStore) SaveStatus(ctx context.Context, st *domain.WikiStatus) error {
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO wiki_status (repo_id, state, commit_sha, attempts, last_error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id) DO UPDATE SET
			state = excluded.state,
			commit_sha = excluded.commit_sha,
			attempts = excluded.attempts,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
	`, st.RepoID, string(st.State), st.CommitSHA, st.Attempts, st.LastError, st.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving wiki status: %w", err)
	}
	return nil
}

// GetStatus retrieves the live wiki generation state.
func (s *wikiStore) GetStatus(ctx context.Context, repoID string) (*domain.WikiStatus, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT repo_id, state, commit_sha, attempts, last_error, updated_at
		FROM wiki_status WHERE repo_id = ?
	`, repoID)

	var st domain.WikiStatus
	var state string
	if err := row.Scan(&st.RepoID, &state, &st.CommitSHA, &st.Attempts,
		&st.LastError, &st.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning wiki status: %w", err)
	}
	st.State = domain.WikiState(state)
	return &st, nil
}

// scanWikiArtifact scans a single artifact row.
func scanWikiArtifact(row *sql.Row) (*domain.WikiArtifact, error) {
	var a domain.WikiArtifact
	if err := row.Scan(&a.RepoID, &a.Version, &a.Summary, &a.LongSummary,
		&a.CommitSHA, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning wiki artifact: %w", err)
	}
	return &a, nil
}
