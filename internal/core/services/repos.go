package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
	"github.com/custodia-labs/codewiki/internal/core/ports/driving"
	"github.com/custodia-labs/codewiki/internal/logger"
)

// Ensure RepositoryService implements the interface.
var _ driving.RepositoryService = (*RepositoryService)(nil)

// RepositoryService manages the repository registry.
type RepositoryService struct {
	store       driven.RepositoryStore
	statusStore driven.StatusStore
	resolver    driven.RepoResolver
}

// NewRepositoryService creates a repository service. The resolver is
// optional; when nil, URL validation is purely syntactic.
func NewRepositoryService(
	store driven.RepositoryStore,
	statusStore driven.StatusStore,
	resolver driven.RepoResolver,
) *RepositoryService {
	return &RepositoryService{
		store:       store,
		statusStore: statusStore,
		resolver:    resolver,
	}
}

// Register validates a repository URL and stores a new registry record.
// Registering an already-known URL returns the existing record.
func (s *RepositoryService) Register(ctx context.Context, repoURL string) (*domain.Repository, error) {
	repo, err := domain.NewRepository(repoURL)
	if err != nil {
		return nil, err
	}

	// Idempotent registration: owner/name hashing means the same repo
	// under a different URL spelling still collides on id.
	if existing, err := s.store.Get(ctx, repo.ID); err == nil {
		logger.Debug("register: %s/%s already registered", repo.Owner, repo.Name)
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup repository: %w", err)
	}

	if s.resolver != nil {
		branch, err := s.resolver.Resolve(ctx, repo.Owner, repo.Name)
		if err != nil {
			return nil, fmt.Errorf("resolve %s/%s: %w", repo.Owner, repo.Name, err)
		}
		repo.Branch = branch
	}

	if err := s.store.Save(ctx, repo); err != nil {
		return nil, fmt.Errorf("save repository: %w", err)
	}

	status := &domain.IngestionStatus{
		RepoID:    repo.ID,
		Stage:     domain.StageRegistered,
		Message:   "Repository registered",
		Progress:  -1,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.statusStore.Save(ctx, status); err != nil {
		return nil, fmt.Errorf("save status: %w", err)
	}

	logger.Info("Registered repository %s/%s (%s)", repo.Owner, repo.Name, repo.ID)
	return repo, nil
}

// Get retrieves a repository by id.
func (s *RepositoryService) Get(ctx context.Context, id string) (*domain.Repository, error) {
	return s.store.Get(ctx, id)
}

// List returns all registered repositories.
func (s *RepositoryService) List(ctx context.Context) ([]domain.Repository, error) {
	return s.store.List(ctx)
}
