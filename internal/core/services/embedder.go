package services

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
	"github.com/custodia-labs/codewiki/internal/logger"
)

// Embedder maps chunk content to vectors. It deduplicates by content
// hash, consults the durable cache before calling the provider, and
// persists new vectors to the cache before handing them on, so a crash
// after caching is resumable without recomputation.
type Embedder struct {
	cache     driven.EmbeddingCache
	provider  driven.EmbeddingService
	limiter   *rate.Limiter
	batchSize int
}

// NewEmbedder creates an embedder. requestsPerSecond bounds the call
// rate against the provider; zero disables rate limiting.
func NewEmbedder(
	cache driven.EmbeddingCache,
	provider driven.EmbeddingService,
	batchSize int,
	requestsPerSecond float64,
) *Embedder {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	if batchSize <= 0 {
		batchSize = 32
	}

	return &Embedder{
		cache:     cache,
		provider:  provider,
		limiter:   limiter,
		batchSize: batchSize,
	}
}

// Dimensions returns the provider's embedding dimension.
func (e *Embedder) Dimensions() int {
	return e.provider.Dimensions()
}

// EmbedChunks returns a vector per distinct content hash in chunks.
// A hash appearing in fifty chunks is embedded once. Any provider
// failure fails the whole call: missing vectors would corrupt ranking.
func (e *Embedder) EmbedChunks(ctx context.Context, chunks []domain.Chunk) (map[string][]float32, error) {
	// Deduplicate within the batch itself.
	contentByHash := make(map[string]string, len(chunks))
	hashes := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if _, seen := contentByHash[c.ContentHash]; seen {
			continue
		}
		contentByHash[c.ContentHash] = c.Content
		hashes = append(hashes, c.ContentHash)
	}

	vectors, err := e.cache.Get(ctx, hashes)
	if err != nil {
		return nil, fmt.Errorf("read embedding cache: %w", err)
	}
	if vectors == nil {
		vectors = make(map[string][]float32, len(hashes))
	}

	var missing []string
	for _, h := range hashes {
		if _, ok := vectors[h]; !ok {
			missing = append(missing, h)
		}
	}

	logger.Debug("embed: %d distinct hashes, %d cached, %d to compute",
		len(hashes), len(hashes)-len(missing), len(missing))

	for start := 0; start < len(missing); start += e.batchSize {
		end := start + e.batchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		texts := make([]string, len(batch))
		for i, h := range batch {
			texts[i] = contentByHash[h]
		}

		embeddings, err := e.provider.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingProvider, err)
		}
		if len(embeddings) != len(batch) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts",
				domain.ErrEmbeddingProvider, len(embeddings), len(batch))
		}

		fresh := make(map[string][]float32, len(batch))
		for i, h := range batch {
			if dims := e.provider.Dimensions(); dims > 0 && len(embeddings[i]) != dims {
				return nil, fmt.Errorf("%w: vector dimension %d, expected %d",
					domain.ErrEmbeddingProvider, len(embeddings[i]), dims)
			}
			fresh[h] = embeddings[i]
		}

		// Cache before handing on: a crash between here and the index
		// feed costs a re-read, not a recompute.
		if err := e.cache.Put(ctx, fresh); err != nil {
			return nil, fmt.Errorf("write embedding cache: %w", err)
		}

		for h, v := range fresh {
			vectors[h] = v
		}
	}

	return vectors, nil
}

// EmbedQuery embeds a search query with the same provider used for
// ingestion, keeping dimensions compatible by construction.
func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	vec, err := e.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingProvider, err)
	}
	return vec, nil
}
