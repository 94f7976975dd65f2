// Package memory provides in-memory implementations of the driven
// store ports, used by tests and as a reference for store semantics.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
)

// Ensure RepositoryStore implements the interface.
var _ driven.RepositoryStore = (*RepositoryStore)(nil)

// RepositoryStore is an in-memory implementation of driven.RepositoryStore.
type RepositoryStore struct {
	mu    sync.RWMutex
	repos map[string]domain.Repository
}

// NewRepositoryStore creates a new in-memory repository store.
func NewRepositoryStore() *RepositoryStore {
	return &RepositoryStore{
		repos: make(map[string]domain.Repository),
	}
}

// Save stores or updates a repository record.
func (s *RepositoryStore) Save(_ context.Context, repo *domain.Repository) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repos[repo.ID] = *repo
	return nil
}

// Get retrieves a repository by id.
func (s *RepositoryStore) Get(_ context.Context, id string) (*domain.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	repo, ok := s.repos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &repo, nil
}

// GetByURL retrieves a repository by its canonical URL.
func (s *RepositoryStore) GetByURL(_ context.Context, repoURL string) (*domain.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, repo := range s.repos {
		if repo.RepoURL == repoURL {
			return &repo, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns all registered repositories ordered by owner and name.
func (s *RepositoryStore) List(_ context.Context) ([]domain.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	repos := make([]domain.Repository, 0, len(s.repos))
	for _, repo := range s.repos {
		repos = append(repos, repo)
	}
	sort.Slice(repos, func(i, j int) bool {
		if repos[i].Owner != repos[j].Owner {
			return repos[i].Owner < repos[j].Owner
		}
		return repos[i].Name < repos[j].Name
	})
	return repos, nil
}

// Delete removes a repository record.
func (s *RepositoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.repos, id)
	return nil
}

// Ensure ManifestStore implements the interface.
var _ driven.ManifestStore = (*ManifestStore)(nil)

// ManifestStore is an in-memory implementation of driven.ManifestStore.
// Manifests append per repository; the last element is the head.
type ManifestStore struct {
	mu        sync.RWMutex
	manifests map[string][]domain.Manifest
}

// NewManifestStore creates a new in-memory manifest store.
func NewManifestStore() *ManifestStore {
	return &ManifestStore{
		manifests: make(map[string][]domain.Manifest),
	}
}

// Save appends a manifest for a (repo, commit) generation.
func (s *ManifestStore) Save(_ context.Context, m *domain.Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifests[m.RepoID] = append(s.manifests[m.RepoID], *m)
	return nil
}

// Head returns the most recent manifest for a repository.
func (s *ManifestStore) Head(_ context.Context, repoID string) (*domain.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.manifests[repoID]
	if len(history) == 0 {
		return nil, domain.ErrNotFound
	}
	head := history[len(history)-1]
	return &head, nil
}

// List returns all manifests for a repository, newest first.
func (s *ManifestStore) List(_ context.Context, repoID string) ([]domain.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.manifests[repoID]
	out := make([]domain.Manifest, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		out = append(out, history[i])
	}
	return out, nil
}

// Ensure StatusStore implements the interface.
var _ driven.StatusStore = (*StatusStore)(nil)

// StatusStore is an in-memory implementation of driven.StatusStore.
type StatusStore struct {
	mu       sync.RWMutex
	statuses map[string]domain.IngestionStatus
}

// NewStatusStore creates a new in-memory status store.
func NewStatusStore() *StatusStore {
	return &StatusStore{
		statuses: make(map[string]domain.IngestionStatus),
	}
}

// Save stores or overwrites the status for a repository.
func (s *StatusStore) Save(_ context.Context, st *domain.IngestionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[st.RepoID] = *st
	return nil
}

// Get retrieves the status for a repository.
func (s *StatusStore) Get(_ context.Context, repoID string) (*domain.IngestionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[repoID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &st, nil
}

// ListActive returns statuses whose stage is non-terminal.
func (s *StatusStore) ListActive(_ context.Context) ([]domain.IngestionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var active []domain.IngestionStatus
	for _, st := range s.statuses {
		if !st.Stage.IsTerminal() {
			active = append(active, st)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].RepoID < active[j].RepoID
	})
	return active, nil
}
