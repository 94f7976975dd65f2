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

// ==================== Repository Store ====================

// repositoryStore implements driven.RepositoryStore.
type repositoryStore struct {
	store *Store
}

var _ driven.RepositoryStore = (*repositoryStore)(nil)

// Save stores or updates a repository record.
func (s *repositoryStore) Save(ctx context.Context, repo *domain.Repository) error {
	now := time.Now().UTC()
	if repo.CreatedAt.IsZero() {
		repo.CreatedAt = now
	}
	if repo.UpdatedAt.IsZero() {
		repo.UpdatedAt = now
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO repos (id, owner, name, repo_url, branch, commit_sha, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			name = excluded.name,
			repo_url = excluded.repo_url,
			branch = excluded.branch,
			commit_sha = excluded.commit_sha,
			updated_at = excluded.updated_at
	`, repo.ID, repo.Owner, repo.Name, repo.RepoURL, repo.Branch, repo.CommitSHA,
		repo.CreatedAt, repo.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving repository: %w", err)
	}
	return nil
}

// Get retrieves a repository by id.
func (s *repositoryStore) Get(ctx context.Context, id string) (*domain.Repository, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, owner, name, repo_url, branch, commit_sha, created_at, updated_at
		FROM repos WHERE id = ?
	`, id)
	return scanRepository(row)
}

// GetByURL retrieves a repository by its canonical URL.
func (s *repositoryStore) GetByURL(ctx context.Context, repoURL string) (*domain.Repository, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, owner, name, repo_url, branch, commit_sha, created_at, updated_at
		FROM repos WHERE repo_url = ?
	`, repoURL)
	return scanRepository(row)
}

// List returns all registered repositories ordered by owner and name.
func (s *repositoryStore) List(ctx context.Context) ([]domain.Repository, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, owner, name, repo_url, branch, commit_sha, created_at, updated_at
		FROM repos ORDER BY owner, name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying repositories: %w", err)
	}
	defer rows.Close()

	var repos []domain.Repository //nolint:prealloc // size unknown from query
	for rows.Next() {
		var repo domain.Repository
		if err := rows.Scan(&repo.ID, &repo.Owner, &repo.Name, &repo.RepoURL,
			&repo.Branch, &repo.CommitSHA, &repo.CreatedAt, &repo.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning repository: %w", err)
		}
		repos = append(repos, repo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating repositories: %w", err)
	}
	return repos, nil
}

// Delete removes a repository record.
func (s *repositoryStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM repos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting repository: %w", err)
	}
	return nil
}

// scanRepository scans a single repository row.
func scanRepository(row *sql.Row) (*domain.Repository, error) {
	var repo domain.Repository
	if err := row.Scan(&repo.ID, &repo.Owner, &repo.Name, &repo.RepoURL,
		&repo.Branch, &repo.CommitSHA, &repo.CreatedAt, &repo.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning repository: %w", err)
	}
	return &repo, nil
}

// ==================== Manifest Store ====================

// manifestStore implements driven.ManifestStore. Manifests append per
// generation; the newest row is the head.
type manifestStore struct {
	store *Store
}

var _ driven.ManifestStore = (*manifestStore)(nil)

// Save appends a manifest for a (repo, commit) generation.
func (s *manifestStore) Save(ctx context.Context, m *domain.Manifest) error {
	if m.IndexedAt.IsZero() {
		m.IndexedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO manifests (repo_id, commit_sha, branch, schema_version, chunk_count, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.RepoID, m.CommitSHA, m.Branch, m.SchemaVersion, m.ChunkCount, m.IndexedAt)

	if err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	return nil
}

// Head returns the most recent manifest for a repository.
func (s *manifestStore) Head(ctx context.Context, repoID string) (*domain.Manifest, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT repo_id, commit_sha, branch, schema_version, chunk_count, indexed_at
		FROM manifests WHERE repo_id = ?
		ORDER BY id DESC LIMIT 1
	`, repoID)

	var m domain.Manifest
	if err := row.Scan(&m.RepoID, &m.CommitSHA, &m.Branch, &m.SchemaVersion,
		&m.ChunkCount, &m.IndexedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning manifest: %w", err)
	}
	return &m, nil
}

// List returns all manifests for a repository, newest first.
func (s *manifestStore) List(ctx context.Context, repoID string) ([]domain.Manifest, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT repo_id, commit_sha, branch, schema_version, chunk_count, indexed_at
		FROM manifests WHERE repo_id = ?
		ORDER BY id DESC
	`, repoID)
	if err != nil {
		return nil, fmt.Errorf("querying manifests: %w", err)
	}
	defer rows.Close()

	var manifests []domain.Manifest //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m domain.Manifest
		if err := rows.Scan(&m.RepoID, &m.CommitSHA, &m.Branch, &m.SchemaVersion,
			&m.ChunkCount, &m.IndexedAt); err != nil {
			return nil, fmt.Errorf("scanning manifest: %w", err)
		}
		manifests = append(manifests, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating manifests: %w", err)
	}
	return manifests, nil
}

// ==================== Status Store ====================

// statusStore implements driven.StatusStore. One row per repository,
// overwritten in place on each transition.
type statusStore struct {
	store *Store
}

var _ driven.StatusStore = (*statusStore)(nil)

// Save stores or overwrites the status for a repository.
func (s *statusStore) Save(ctx context.Context, st *domain.IngestionStatus) error {
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingestion_status (repo_id, stage, message, error, progress, generation, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id) DO UPDATE SET
			stage = excluded.stage,
			message = excluded.message,
			error = excluded.error,
			progress = excluded.progress,
			generation = excluded.generation,
			updated_at = excluded.updated_at
	`, st.RepoID, string(st.Stage), st.Message, st.Error, st.Progress, st.Generation, st.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving status: %w", err)
	}
	return nil
}

// Get retrieves the status for a repository.
func (s *statusStore) Get(ctx context.Context, repoID string) (*domain.IngestionStatus, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT repo_id, stage, message, error, progress, generation, updated_at
		FROM ingestion_status WHERE repo_id = ?
	`, repoID)

	var st domain.IngestionStatus
	var stage string
	if err := row.Scan(&st.RepoID, &stage, &st.Message, &st.Error,
		&st.Progress, &st.Generation, &st.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning status: %w", err)
	}
	st.Stage = domain.Stage(stage)
	return &st, nil
}

// ListActive returns statuses whose stage is non-terminal.
func (s *statusStore) ListActive(ctx context.Context) ([]domain.IngestionStatus, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT repo_id, stage, message, error, progress, generation, updated_at
		FROM ingestion_status
		WHERE stage NOT IN (?, ?)
	`, string(domain.StageComplete), string(domain.StageError))
	if err != nil {
		return nil, fmt.Errorf("querying active statuses: %w", err)
	}
	defer rows.Close()

	var statuses []domain.IngestionStatus //nolint:prealloc // size unknown from query
	for rows.Next() {
		var st domain.IngestionStatus
		var stage string
		if err := rows.Scan(&st.RepoID, &stage, &st.Message, &st.Error,
			&st.Progress, &st.Generation, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning status: %w", err)
		}
		st.Stage = domain.Stage(stage)
		statuses = append(statuses, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating statuses: %w", err)
	}
	return statuses, nil
}
