package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
	"github.com/custodia-labs/codewiki/internal/core/ports/driving"
	"github.com/custodia-labs/codewiki/internal/logger"
)

// Ensure IngestionCoordinator implements the interface.
var _ driving.IngestionService = (*IngestionCoordinator)(nil)

// job is one entry in the per-repo lock table. Holding the entry IS
// holding the lock; it is removed on terminal state or cancellation.
type job struct {
	generation string
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// IngestionCoordinator sequences the ingestion pipeline per repository:
// cloning → chunking → embedding → wiki → indexing, with an explicit
// per-repo-id lock table for mutual exclusion and a subscription
// channel for push-based progress.
type IngestionCoordinator struct {
	repoStore     driven.RepositoryStore
	statusStore   driven.StatusStore
	manifestStore driven.ManifestStore
	extractor     driven.ChunkExtractor
	embedder      *Embedder
	feeder        *IndexFeeder
	wiki          *WikiOrchestrator
	workspace     *Workspace
	cfg           domain.IngestSettings

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup

	subMu sync.Mutex
	subs  map[string]map[chan domain.IngestionStatus]struct{}
}

// NewIngestionCoordinator creates the coordinator.
func NewIngestionCoordinator(
	repoStore driven.RepositoryStore,
	statusStore driven.StatusStore,
	manifestStore driven.ManifestStore,
	extractor driven.ChunkExtractor,
	embedder *Embedder,
	feeder *IndexFeeder,
	wiki *WikiOrchestrator,
	workspace *Workspace,
	cfg domain.IngestSettings,
) *IngestionCoordinator {
	if !cfg.ReingestPolicy.IsValid() {
		cfg.ReingestPolicy = domain.ReingestReject
	}

	return &IngestionCoordinator{
		repoStore:     repoStore,
		statusStore:   statusStore,
		manifestStore: manifestStore,
		extractor:     extractor,
		embedder:      embedder,
		feeder:        feeder,
		wiki:          wiki,
		workspace:     workspace,
		cfg:           cfg,
		jobs:          make(map[string]*job),
		subs:          make(map[string]map[chan domain.IngestionStatus]struct{}),
	}
}

// Start begins (or restarts) ingestion for a repository. Exactly one
// job per repo id runs at a time; jobs for different repositories run
// fully in parallel.
func (c *IngestionCoordinator) Start(ctx context.Context, repoID string) (*domain.IngestionStatus, error) {
	repo, err := c.repoStore.Get(ctx, repoID)
	if err != nil {
		return nil, err
	}

	j, err := c.acquire(repoID)
	if err != nil {
		return nil, err
	}

	status := c.publish(repo.ID, j.generation, domain.StageCloning, "Cloning repository", -1, "")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(j.done)
		defer c.release(repoID, j)
		defer j.cancel()

		c.run(j.ctx, repo, j)
	}()

	return status, nil
}

// acquire claims the lock-table entry for a repository, applying the
// configured re-ingestion policy when a job is already active.
func (c *IngestionCoordinator) acquire(repoID string) (*job, error) {
	for {
		c.mu.Lock()
		active, exists := c.jobs[repoID]
		if !exists {
			// The job must outlive the HTTP request that started it, so
			// it carries its own context. The cancel function is bound
			// before the entry is visible to competing Start calls.
			ctx, cancel := context.WithCancel(context.Background())
			j := &job{
				generation: uuid.New().String(),
				ctx:        ctx,
				cancel:     cancel,
				done:       make(chan struct{}),
			}
			c.jobs[repoID] = j
			c.mu.Unlock()
			return j, nil
		}
		cancel := active.cancel
		done := active.done
		c.mu.Unlock()

		if c.cfg.ReingestPolicy != domain.ReingestPreempt {
			return nil, domain.ErrIngestionInProgress
		}

		// Preempt: signal cancellation and wait for the active job to
		// observe it and release the lock before claiming it.
		logger.Info("Preempting active ingestion for %s", repoID)
		cancel()
		<-done
	}
}

// release removes the lock-table entry if it still belongs to j.
func (c *IngestionCoordinator) release(repoID string, j *job) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.jobs[repoID] == j {
		delete(c.jobs, repoID)
	}
}

// run executes the pipeline for one job generation.
func (c *IngestionCoordinator) run(ctx context.Context, repo *domain.Repository, j *job) {
	logger.Section(fmt.Sprintf("Ingestion %s/%s", repo.Owner, repo.Name))

	if err := c.runPipeline(ctx, repo, j); err != nil {
		if errors.Is(err, context.Canceled) {
			// Preempted: the successor job owns the status from here;
			// the last-published manifest is untouched.
			logger.Info("Ingestion for %s cancelled", repo.ID)
			return
		}
		logger.Error("Ingestion for %s failed: %v", repo.ID, err)
		c.publish(repo.ID, j.generation, domain.StageError, err.Error(), -1, err.Error())
	}
}

// runPipeline advances the state machine stage by stage. Any returned
// error moves the status to error; the previous successful manifest
// (if any) stays queryable throughout.
func (c *IngestionCoordinator) runPipeline(ctx context.Context, repo *domain.Repository, j *job) error {
	// Cloning.
	sha, branch, err := c.workspace.EnsureClone(ctx, repo)
	if err != nil {
		return err
	}

	repo.CommitSHA = sha
	repo.Branch = branch
	repo.UpdatedAt = time.Now().UTC()
	if err := c.repoStore.Save(ctx, repo); err != nil {
		return fmt.Errorf("refresh commit pointer: %w", err)
	}

	// Chunking.
	c.publish(repo.ID, j.generation, domain.StageChunking, "Extracting code chunks", -1, "")
	chunks, err := c.collectChunks(ctx, repo)
	if err != nil {
		return err
	}
	logger.Info("Extracted %d chunks for %s/%s", len(chunks), repo.Owner, repo.Name)

	// Embedding. Without a configured provider the repo is still
	// indexed, lexical only.
	var vectors map[string][]float32
	if c.embedder != nil {
		c.publish(repo.ID, j.generation, domain.StageEmbedding, fmt.Sprintf("Embedding %d chunks", len(chunks)), -1, "")
		vectors, err = c.embedder.EmbedChunks(ctx, chunks)
		if err != nil {
			return err
		}
	} else {
		c.publish(repo.ID, j.generation, domain.StageEmbedding, "Embedding provider not configured, skipping", -1, "")
	}

	// Wiki generation. Exhausted retries mark the wiki failed but do
	// not fail the ingestion job; search enablement stays gated.
	c.publish(repo.ID, j.generation, domain.StageWikiPending, "Generating wiki summary", -1, "")
	rc, err := c.workspace.BuildContext(ctx, repo)
	if err != nil {
		return err
	}
	if _, err := c.wiki.Generate(ctx, repo, rc); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		logger.Warn("Wiki generation for %s failed, continuing: %v", repo.ID, err)
	}

	// Indexing.
	c.publish(repo.ID, j.generation, domain.StageIndexing, "Feeding documents to the index", -1, "")
	stats, err := c.feedDocuments(ctx, repo, chunks, vectors)
	if err != nil {
		return err
	}

	manifest := &domain.Manifest{
		RepoID:        repo.ID,
		CommitSHA:     sha,
		Branch:        branch,
		SchemaVersion: domain.CurrentSchemaVersion,
		ChunkCount:    stats.Fed,
		IndexedAt:     time.Now().UTC(),
	}
	if err := c.manifestStore.Save(ctx, manifest); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}

	msg := fmt.Sprintf("Ingestion complete: %d documents indexed", stats.Fed)
	if stats.Skipped > 0 {
		msg = fmt.Sprintf("%s, %d skipped", msg, stats.Skipped)
	}
	c.publish(repo.ID, j.generation, domain.StageComplete, msg, 1, "")
	return nil
}

// collectChunks drains the extractor stream. Per-file extraction errors
// are logged and absorbed; only cancellation and walk-level failures
// abort the job.
func (c *IngestionCoordinator) collectChunks(ctx context.Context, repo *domain.Repository) ([]domain.Chunk, error) {
	dir := c.workspace.RepoDir(repo)
	chunkCh, errCh := c.extractor.Extract(ctx, dir)

	var chunks []domain.Chunk
	for chunkCh != nil || errCh != nil {
		select {
		case chunk, ok := <-chunkCh:
			if !ok {
				chunkCh = nil
				continue
			}
			chunks = append(chunks, chunk)

		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			logger.Warn("extract: %s: %v", repo.ID, err)
		}
	}

	return chunks, nil
}

// feedDocuments streams index documents into the feeder.
func (c *IngestionCoordinator) feedDocuments(
	ctx context.Context,
	repo *domain.Repository,
	chunks []domain.Chunk,
	vectors map[string][]float32,
) (FeedStats, error) {
	now := time.Now().UTC()
	docs := make(chan domain.IndexDocument)

	go func() {
		defer close(docs)
		for _, chunk := range chunks {
			doc := domain.IndexDocument{
				RepoID:        repo.ID,
				RepoOwner:     repo.Owner,
				RepoName:      repo.Name,
				RepoURL:       repo.RepoURL,
				CommitSHA:     repo.CommitSHA,
				Branch:        repo.Branch,
				FilePath:      chunk.FilePath,
				Language:      chunk.Language,
				ChunkID:       chunk.ID,
				ChunkHash:     chunk.ContentHash,
				LineStart:     chunk.LineStart,
				LineEnd:       chunk.LineEnd,
				SymbolNames:   chunk.SymbolNames,
				Content:       chunk.Content,
				Embedding:     vectors[chunk.ContentHash],
				LastIndexedAt: now,
			}

			select {
			case docs <- doc:
			case <-ctx.Done():
				return
			}
		}
	}()

	dimensions := 0
	if c.embedder != nil {
		dimensions = c.embedder.Dimensions()
	}
	return c.feeder.Feed(ctx, docs, dimensions)
}

// Status returns the current status for a repository.
func (c *IngestionCoordinator) Status(ctx context.Context, repoID string) (*domain.IngestionStatus, error) {
	return c.statusStore.Get(ctx, repoID)
}

// Subscribe returns a channel of status updates for a repository and a
// cancel function. The channel is buffered; slow consumers drop
// intermediate updates rather than blocking the pipeline.
func (c *IngestionCoordinator) Subscribe(repoID string) (<-chan domain.IngestionStatus, func()) {
	ch := make(chan domain.IngestionStatus, 16)

	c.subMu.Lock()
	if c.subs[repoID] == nil {
		c.subs[repoID] = make(map[chan domain.IngestionStatus]struct{})
	}
	c.subs[repoID][ch] = struct{}{}
	c.subMu.Unlock()

	cancel := func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if set, ok := c.subs[repoID]; ok {
			if _, member := set[ch]; member {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(c.subs, repoID)
			}
		}
	}

	return ch, cancel
}

// Reconcile repairs statuses orphaned by a crash: any persisted
// non-terminal status without an owning lock entry moves to error, so
// the UI never sees a stuck in-progress state.
func (c *IngestionCoordinator) Reconcile(ctx context.Context) error {
	active, err := c.statusStore.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active statuses: %w", err)
	}

	for i := range active {
		status := &active[i]
		if status.Stage == domain.StageRegistered {
			// Registered is a resting state, not an orphaned job.
			continue
		}

		c.mu.Lock()
		_, owned := c.jobs[status.RepoID]
		c.mu.Unlock()
		if owned {
			continue
		}

		logger.Warn("Reconciling orphaned ingestion for %s (was %s)", status.RepoID, status.Stage)
		c.publish(status.RepoID, status.Generation, domain.StageError,
			"Ingestion interrupted by restart", -1, "ingestion interrupted by restart")
	}

	return nil
}

// Shutdown cancels all active jobs and waits for them to finish.
func (c *IngestionCoordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	for _, j := range c.jobs {
		j.cancel()
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// publish persists a status transition and notifies subscribers.
// Persistence failures are logged, never propagated: a status write
// must not mask a pipeline error.
func (c *IngestionCoordinator) publish(repoID, generation string, stage domain.Stage, message string, progress float64, errDetail string) *domain.IngestionStatus {
	status := &domain.IngestionStatus{
		RepoID:     repoID,
		Stage:      stage,
		Message:    message,
		Error:      errDetail,
		Progress:   progress,
		Generation: generation,
		UpdatedAt:  time.Now().UTC(),
	}

	if err := c.statusStore.Save(context.Background(), status); err != nil {
		logger.Warn("status: save %s=%s: %v", repoID, stage, err)
	}

	c.subMu.Lock()
	for ch := range c.subs[repoID] {
		select {
		case ch <- *status:
		default:
			// Drop rather than block the pipeline.
		}
	}
	c.subMu.Unlock()

	logger.Debug("status: %s -> %s (%s)", repoID, stage, message)
	return status
}
