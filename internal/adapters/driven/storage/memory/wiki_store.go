package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
)

// Ensure WikiStore implements the interface.
var _ driven.WikiStore = (*WikiStore)(nil)

// WikiStore is an in-memory implementation of driven.WikiStore.
type WikiStore struct {
	mu        sync.RWMutex
	artifacts map[string][]domain.WikiArtifact
	statuses  map[string]domain.WikiStatus
}

// NewWikiStore creates a new in-memory wiki store.
func NewWikiStore() *WikiStore {
	return &WikiStore{
		artifacts: make(map[string][]domain.WikiArtifact),
		statuses:  make(map[string]domain.WikiStatus),
	}
}

// Append stores a new artifact version. Versions must be contiguous.
func (s *WikiStore) Append(_ context.Context, a *domain.WikiArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.artifacts[a.RepoID]
	if a.Version != len(history)+1 {
		return fmt.Errorf("%w: version %d after %d artifacts", domain.ErrInvalidInput, a.Version, len(history))
	}
	s.artifacts[a.RepoID] = append(history, *a)
	return nil
}

// Head returns the highest-version artifact for a repository.
func (s *WikiStore) Head(_ context.Context, repoID string) (*domain.WikiArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.artifacts[repoID]
	if len(history) == 0 {
		return nil, domain.ErrNotFound
	}
	head := history[len(history)-1]
	return &head, nil
}

// History returns all artifact versions for a repository, newest first.
func (s *WikiStore) History(_ context.Context, repoID string) ([]domain.WikiArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.artifacts[repoID]
	out := make([]domain.WikiArtifact, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		out = append(out, history[i])
	}
	return out, nil
}

// NextVersion returns the version the next artifact should carry.
func (s *WikiStore) NextVersion(_ context.Context, repoID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts[repoID]) + 1, nil
}

// SaveStatus stores the live wiki generation state.
func (s *WikiStore) SaveStatus(_ context.Context, st *domain.WikiStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[st.RepoID] = *st
	return nil
}

// GetStatus retrieves the live wiki generation state.
func (s *WikiStore) GetStatus(_ context.Context, repoID string) (*domain.WikiStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[repoID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &st, nil
}
