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

// Ensure WikiOrchestrator implements the interface.
var _ driving.WikiService = (*WikiOrchestrator)(nil)

// WikiOrchestrator drives wiki generation per repository: it calls the
// external summariser with retry and exponential backoff, persists the
// append-only artifact history, and tracks the generation state
// machine (pending → generating → ready | failed).
type WikiOrchestrator struct {
	wikiStore  driven.WikiStore
	repoStore  driven.RepositoryStore
	summariser driven.Summariser
	workspace  *Workspace
	cfg        domain.WikiSettings
}

// NewWikiOrchestrator creates a wiki orchestrator. The summariser may
// be nil, in which case generation immediately fails as unavailable.
func NewWikiOrchestrator(
	wikiStore driven.WikiStore,
	repoStore driven.RepositoryStore,
	summariser driven.Summariser,
	workspace *Workspace,
	cfg domain.WikiSettings,
) *WikiOrchestrator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 500 * time.Millisecond
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = 8 * time.Second
	}

	return &WikiOrchestrator{
		wikiStore:  wikiStore,
		repoStore:  repoStore,
		summariser: summariser,
		workspace:  workspace,
		cfg:        cfg,
	}
}

// Generate runs one generation cycle for the repository and appends a
// new artifact version on success. Exhausting retries marks the wiki
// failed and returns ErrWikiGeneration; the caller decides whether that
// fails its own job (ingestion does not).
func (o *WikiOrchestrator) Generate(ctx context.Context, repo *domain.Repository, rc domain.RepoContext) (*domain.WikiArtifact, error) {
	if o.summariser == nil {
		o.saveStatus(ctx, repo, domain.WikiStateFailed, 0, domain.ErrSummariserUnavailable.Error())
		return nil, domain.ErrSummariserUnavailable
	}

	o.saveStatus(ctx, repo, domain.WikiStateGenerating, 0, "")

	var content *driven.WikiContent
	var lastErr error

	attempts := 0
	for attempts < o.cfg.MaxAttempts {
		if attempts > 0 {
			if err := sleepBackoff(ctx, o.cfg.BackoffBase, o.cfg.BackoffCap, attempts-1); err != nil {
				o.saveStatus(ctx, repo, domain.WikiStateFailed, attempts, err.Error())
				return nil, err
			}
		}

		attempts++
		content, lastErr = o.summariser.Summarise(ctx, rc)
		if lastErr == nil {
			break
		}

		logger.Warn("wiki: attempt %d/%d for %s failed: %v",
			attempts, o.cfg.MaxAttempts, repo.ID, lastErr)
		o.saveStatus(ctx, repo, domain.WikiStateGenerating, attempts, lastErr.Error())

		if ctx.Err() != nil {
			o.saveStatus(ctx, repo, domain.WikiStateFailed, attempts, ctx.Err().Error())
			return nil, ctx.Err()
		}
	}

	if lastErr != nil {
		o.saveStatus(ctx, repo, domain.WikiStateFailed, attempts, lastErr.Error())
		return nil, fmt.Errorf("%w: %v", domain.ErrWikiGeneration, lastErr)
	}

	version, err := o.wikiStore.NextVersion(ctx, repo.ID)
	if err != nil {
		return nil, fmt.Errorf("next wiki version: %w", err)
	}

	artifact := &domain.WikiArtifact{
		RepoID:      repo.ID,
		Version:     version,
		Summary:     content.Summary,
		LongSummary: content.LongSummary,
		CommitSHA:   repo.CommitSHA,
		CreatedAt:   time.Now().UTC(),
	}
	if err := o.wikiStore.Append(ctx, artifact); err != nil {
		return nil, fmt.Errorf("append wiki artifact: %w", err)
	}

	o.saveStatus(ctx, repo, domain.WikiStateReady, attempts, "")
	logger.Info("Wiki v%d ready for %s/%s", artifact.Version, repo.Owner, repo.Name)
	return artifact, nil
}

// Page returns the current wiki page for a repository.
func (o *WikiOrchestrator) Page(ctx context.Context, repoID string) (*driving.WikiPage, error) {
	head, err := o.wikiStore.Head(ctx, repoID)
	if err != nil {
		return nil, err
	}

	history, err := o.wikiStore.History(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("wiki history: %w", err)
	}

	return &driving.WikiPage{
		Summary:     head.Summary,
		LongSummary: head.LongSummary,
		History:     history,
	}, nil
}

// Regenerate forces a new generation cycle, appending another version
// on success rather than mutating history.
func (o *WikiOrchestrator) Regenerate(ctx context.Context, repoID string) (*domain.WikiArtifact, error) {
	repo, err := o.repoStore.Get(ctx, repoID)
	if err != nil {
		return nil, err
	}

	rc, err := o.workspace.BuildContext(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("build repo context: %w", err)
	}

	return o.Generate(ctx, repo, rc)
}

// Status returns the live generation state. A registered repository
// with no generation cycle yet reports pending rather than not found.
func (o *WikiOrchestrator) Status(ctx context.Context, repoID string) (*domain.WikiStatus, error) {
	status, err := o.wikiStore.GetStatus(ctx, repoID)
	if err == nil {
		return status, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	repo, err := o.repoStore.Get(ctx, repoID)
	if err != nil {
		return nil, err
	}
	return &domain.WikiStatus{
		RepoID: repo.ID,
		State:  domain.WikiStatePending,
	}, nil
}

// ReadyForCommit reports whether the wiki reached ready at least once
// for the given commit. Used by the search enablement policy.
func (o *WikiOrchestrator) ReadyForCommit(ctx context.Context, repoID, commitSHA string) (bool, error) {
	history, err := o.wikiStore.History(ctx, repoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	for _, a := range history {
		if a.CommitSHA == commitSHA {
			return true, nil
		}
	}
	return false, nil
}

// saveStatus persists the wiki state; persistence failures are logged,
// not propagated, so a status write never masks the original error.
func (o *WikiOrchestrator) saveStatus(ctx context.Context, repo *domain.Repository, state domain.WikiState, attempts int, lastErr string) {
	status := &domain.WikiStatus{
		RepoID:    repo.ID,
		State:     state,
		CommitSHA: repo.CommitSHA,
		Attempts:  attempts,
		LastError: lastErr,
		UpdatedAt: time.Now().UTC(),
	}
	if err := o.wikiStore.SaveStatus(ctx, status); err != nil {
		logger.Warn("wiki: save status for %s: %v", repo.ID, err)
	}
}
