// Package vector provides an in-process brute-force cosine similarity
// index. Vectors are normalised on insert, so similarity reduces to a
// dot product. The index is rebuilt from the document store at startup
// and kept in step with it by the feed path.
package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a flat cosine similarity index with a fixed dimension.
type Index struct {
	dimensions int

	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	repoID  string
	chunkID string
	vector  []float32
}

// New creates an index with the given fixed dimension.
func New(dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}
	return &Index{
		dimensions: dimensions,
		entries:    make(map[string]entry),
	}, nil
}

// Add inserts or replaces the vector for a document.
func (x *Index) Add(_ context.Context, repoID, chunkID string, embedding []float32) error {
	if len(embedding) != x.dimensions {
		return fmt.Errorf("%w: vector dimension %d, index expects %d",
			domain.ErrInvalidInput, len(embedding), x.dimensions)
	}

	normalised := normalise(embedding)

	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries[repoID+"/"+chunkID] = entry{
		repoID:  repoID,
		chunkID: chunkID,
		vector:  normalised,
	}
	return nil
}

// Delete removes a vector from the index.
func (x *Index) Delete(_ context.Context, repoID, chunkID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.entries, repoID+"/"+chunkID)
	return nil
}

// DeleteRepo removes all vectors for a repository.
func (x *Index) DeleteRepo(_ context.Context, repoID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for key, e := range x.entries {
		if e.repoID == repoID {
			delete(x.entries, key)
		}
	}
	return nil
}

// Search finds the k nearest neighbours to the query vector.
func (x *Index) Search(_ context.Context, query []float32, k int, repoFilter string) ([]driven.VectorHit, error) {
	if len(query) != x.dimensions {
		return nil, fmt.Errorf("%w: query dimension %d, index expects %d",
			domain.ErrInvalidInput, len(query), x.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	q := normalise(query)

	x.mu.RLock()
	defer x.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(x.entries))
	for _, e := range x.entries {
		if repoFilter != "" && e.repoID != repoFilter {
			continue
		}
		hits = append(hits, driven.VectorHit{
			RepoID:     e.repoID,
			ChunkID:    e.chunkID,
			Similarity: dot(q, e.vector),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		if hits[i].RepoID != hits[j].RepoID {
			return hits[i].RepoID < hits[j].RepoID
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Dimensions returns the fixed vector dimension.
func (x *Index) Dimensions() int {
	return x.dimensions
}

// Len reports the number of indexed vectors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Close releases resources.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = make(map[string]entry)
	return nil
}

// Rebuild repopulates the index from the document store.
func (x *Index) Rebuild(ctx context.Context, docs driven.DocumentStore) (int, error) {
	count := 0
	err := docs.WalkEmbeddings(ctx, func(repoID, chunkID string, embedding []float32) error {
		if len(embedding) != x.dimensions {
			// A dimension change between runs leaves stale vectors
			// behind; they are simply not loaded.
			return nil
		}
		if err := x.Add(ctx, repoID, chunkID, embedding); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("rebuilding vector index: %w", err)
	}
	return count, nil
}

// normalise returns a unit-length copy of v. Zero vectors are returned
// unchanged to avoid dividing by zero.
func normalise(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

// dot computes the dot product of two equal-length vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
