package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codewiki/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/codewiki/internal/core/domain"
)

func fastWikiSettings() domain.WikiSettings {
	return domain.WikiSettings{
		MaxAttempts: 3,
		BackoffBase: time.Millisecond,
		BackoffCap:  2 * time.Millisecond,
	}
}

func wikiTestRepo() *domain.Repository {
	return &domain.Repository{
		ID:        "repo-1",
		Owner:     "acme",
		Name:      "widgets",
		CommitSHA: "abc123",
	}
}

func TestWikiOrchestrator_Generate_Success(t *testing.T) {
	wikiStore := memory.NewWikiStore()
	summariser := &mockSummariser{}
	o := NewWikiOrchestrator(wikiStore, memory.NewRepositoryStore(), summariser, nil, fastWikiSettings())
	ctx := context.Background()

	artifact, err := o.Generate(ctx, wikiTestRepo(), domain.RepoContext{Owner: "acme", Name: "widgets"})

	require.NoError(t, err)
	assert.Equal(t, 1, artifact.Version)
	assert.Equal(t, "A summary.", artifact.Summary)
	assert.Equal(t, "abc123", artifact.CommitSHA)
	assert.Equal(t, 1, summariser.calls)

	status, err := wikiStore.GetStatus(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, domain.WikiStateReady, status.State)
}

func TestWikiOrchestrator_Generate_RetriesTransientFailures(t *testing.T) {
	wikiStore := memory.NewWikiStore()
	summariser := &mockSummariser{failures: 2}
	o := NewWikiOrchestrator(wikiStore, memory.NewRepositoryStore(), summariser, nil, fastWikiSettings())

	artifact, err := o.Generate(context.Background(), wikiTestRepo(), domain.RepoContext{})

	require.NoError(t, err)
	assert.Equal(t, 1, artifact.Version)
	assert.Equal(t, 3, summariser.calls)
}

func TestWikiOrchestrator_Generate_ExhaustedRetries(t *testing.T) {
	wikiStore := memory.NewWikiStore()
	summariser := &mockSummariser{failures: 100}
	o := NewWikiOrchestrator(wikiStore, memory.NewRepositoryStore(), summariser, nil, fastWikiSettings())
	ctx := context.Background()

	_, err := o.Generate(ctx, wikiTestRepo(), domain.RepoContext{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWikiGeneration)
	assert.Equal(t, 3, summariser.calls)

	status, err := wikiStore.GetStatus(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, domain.WikiStateFailed, status.State)
	assert.Equal(t, 3, status.Attempts)
	assert.NotEmpty(t, status.LastError)
}

func TestWikiOrchestrator_Generate_NoSummariser(t *testing.T) {
	wikiStore := memory.NewWikiStore()
	o := NewWikiOrchestrator(wikiStore, memory.NewRepositoryStore(), nil, nil, fastWikiSettings())

	_, err := o.Generate(context.Background(), wikiTestRepo(), domain.RepoContext{})

	assert.ErrorIs(t, err, domain.ErrSummariserUnavailable)
}

func TestWikiOrchestrator_Generate_AppendsVersions(t *testing.T) {
	wikiStore := memory.NewWikiStore()
	summariser := &mockSummariser{}
	o := NewWikiOrchestrator(wikiStore, memory.NewRepositoryStore(), summariser, nil, fastWikiSettings())
	ctx := context.Background()
	repo := wikiTestRepo()

	first, err := o.Generate(ctx, repo, domain.RepoContext{})
	require.NoError(t, err)

	repo.CommitSHA = "def456"
	second, err := o.Generate(ctx, repo, domain.RepoContext{})
	require.NoError(t, err)

	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)

	// History is append-only, newest first; v1 is untouched.
	history, err := wikiStore.History(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Version)
	assert.Equal(t, "def456", history[0].CommitSHA)
	assert.Equal(t, 1, history[1].Version)
	assert.Equal(t, "abc123", history[1].CommitSHA)
}

func TestWikiOrchestrator_Page(t *testing.T) {
	wikiStore := memory.NewWikiStore()
	summariser := &mockSummariser{}
	o := NewWikiOrchestrator(wikiStore, memory.NewRepositoryStore(), summariser, nil, fastWikiSettings())
	ctx := context.Background()

	_, err := o.Page(ctx, "repo-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = o.Generate(ctx, wikiTestRepo(), domain.RepoContext{})
	require.NoError(t, err)

	page, err := o.Page(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, "A summary.", page.Summary)
	assert.Equal(t, "A longer summary.", page.LongSummary)
	assert.Len(t, page.History, 1)
}

func TestWikiOrchestrator_Status_PendingBeforeFirstCycle(t *testing.T) {
	repoStore := memory.NewRepositoryStore()
	summariser := &mockSummariser{}
	o := NewWikiOrchestrator(memory.NewWikiStore(), repoStore, summariser, nil, fastWikiSettings())
	ctx := context.Background()
	repo := wikiTestRepo()
	require.NoError(t, repoStore.Save(ctx, repo))

	status, err := o.Status(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WikiStatePending, status.State)
	assert.Equal(t, repo.ID, status.RepoID)

	_, err = o.Generate(ctx, repo, domain.RepoContext{})
	require.NoError(t, err)

	status, err = o.Status(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WikiStateReady, status.State)
}

func TestWikiOrchestrator_Status_UnknownRepo(t *testing.T) {
	o := NewWikiOrchestrator(memory.NewWikiStore(), memory.NewRepositoryStore(), nil, nil, fastWikiSettings())

	_, err := o.Status(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWikiOrchestrator_ReadyForCommit(t *testing.T) {
	wikiStore := memory.NewWikiStore()
	summariser := &mockSummariser{}
	o := NewWikiOrchestrator(wikiStore, memory.NewRepositoryStore(), summariser, nil, fastWikiSettings())
	ctx := context.Background()

	ready, err := o.ReadyForCommit(ctx, "repo-1", "abc123")
	require.NoError(t, err)
	assert.False(t, ready)

	_, err = o.Generate(ctx, wikiTestRepo(), domain.RepoContext{})
	require.NoError(t, err)

	ready, err = o.ReadyForCommit(ctx, "repo-1", "abc123")
	require.NoError(t, err)
	assert.True(t, ready)

	ready, err = o.ReadyForCommit(ctx, "repo-1", "other")
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestWikiOrchestrator_Generate_CancelledContext(t *testing.T) {
	wikiStore := memory.NewWikiStore()
	summariser := &mockSummariser{failures: 100}
	o := NewWikiOrchestrator(wikiStore, memory.NewRepositoryStore(), summariser, nil, fastWikiSettings())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Generate(ctx, wikiTestRepo(), domain.RepoContext{})

	assert.ErrorIs(t, err, context.Canceled)
}
