package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
	"github.com/custodia-labs/codewiki/internal/logger"
)

// feedBackoffCap bounds the delay between feed retries.
const feedBackoffCap = 5 * time.Second

// FeedStats reports what one feed pass did.
type FeedStats struct {
	// Fed is the number of documents upserted.
	Fed int

	// Skipped is the number of documents rejected by schema validation.
	Skipped int
}

// IndexFeeder performs batched idempotent upserts into the document
// store and the two index engines. Batches are bounded by byte size.
// Transient store errors are retried with backoff; deterministic schema
// rejections are logged and skipped per document, so a single malformed
// chunk never aborts a repository's indexing.
type IndexFeeder struct {
	docStore    driven.DocumentStore
	searchIndex driven.SearchEngine
	vectorIndex driven.VectorIndex

	batchBytes  int
	maxRetries  int
	backoffBase time.Duration
}

// NewIndexFeeder creates a feeder. vectorIndex may be nil, in which
// case vectors are only persisted in the document store.
func NewIndexFeeder(
	docStore driven.DocumentStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	cfg domain.IngestSettings,
) *IndexFeeder {
	batchBytes := cfg.FeedBatchBytes
	if batchBytes <= 0 {
		batchBytes = 1 << 20
	}
	maxRetries := cfg.FeedMaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoffBase := cfg.FeedBackoffBase
	if backoffBase <= 0 {
		backoffBase = 250 * time.Millisecond
	}

	return &IndexFeeder{
		docStore:    docStore,
		searchIndex: searchIndex,
		vectorIndex: vectorIndex,
		batchBytes:  batchBytes,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
	}
}

// Feed consumes documents and upserts them in byte-bounded batches.
// dimensions is the index's fixed embedding dimension used for the
// per-document schema check.
func (f *IndexFeeder) Feed(ctx context.Context, docs <-chan domain.IndexDocument, dimensions int) (FeedStats, error) {
	var stats FeedStats
	var batch []domain.IndexDocument
	batchSize := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := f.feedBatch(ctx, batch); err != nil {
			return err
		}
		stats.Fed += len(batch)
		batch = batch[:0]
		batchSize = 0
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()

		case doc, ok := <-docs:
			if !ok {
				return stats, flush()
			}

			if err := doc.Validate(dimensions); err != nil {
				// Deterministic rejection: skip the document, keep the batch.
				logger.Warn("feed: rejecting %s (%s): %v", doc.Key(), doc.FilePath, err)
				stats.Skipped++
				continue
			}

			batch = append(batch, doc)
			batchSize += len(doc.Content) + 4*len(doc.Embedding)
			if batchSize >= f.batchBytes {
				if err := flush(); err != nil {
					return stats, err
				}
			}
		}
	}
}

// feedBatch upserts one batch with bounded retries, then mirrors the
// documents into the lexical and vector indexes.
func (f *IndexFeeder) feedBatch(ctx context.Context, batch []domain.IndexDocument) error {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			logger.Debug("feed: retrying batch of %d (attempt %d)", len(batch), attempt+1)
			if err := sleepBackoff(ctx, f.backoffBase, feedBackoffCap, attempt-1); err != nil {
				return err
			}
		}

		lastErr = f.docStore.UpsertDocuments(ctx, batch)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexFeed, lastErr)
	}

	for i := range batch {
		doc := &batch[i]

		if err := f.searchIndex.Index(ctx, *doc); err != nil {
			return fmt.Errorf("%w: lexical index %s: %v", domain.ErrIndexFeed, doc.Key(), err)
		}

		if f.vectorIndex != nil && len(doc.Embedding) > 0 {
			if err := f.vectorIndex.Add(ctx, doc.RepoID, doc.ChunkID, doc.Embedding); err != nil {
				return fmt.Errorf("%w: vector index %s: %v", domain.ErrIndexFeed, doc.Key(), err)
			}
		}
	}

	return nil
}
