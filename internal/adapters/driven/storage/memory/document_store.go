package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]domain.IndexDocument
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs: make(map[string]domain.IndexDocument),
	}
}

// UpsertDocuments stores or replaces a batch of documents.
func (s *DocumentStore) UpsertDocuments(_ context.Context, docs []domain.IndexDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.docs[doc.Key()] = doc
	}
	return nil
}

// GetDocument retrieves one document.
func (s *DocumentStore) GetDocument(_ context.Context, repoID, chunkID string) (*domain.IndexDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[repoID+"/"+chunkID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// CountDocuments returns the number of documents for a repository.
func (s *DocumentStore) CountDocuments(_ context.Context, repoID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, doc := range s.docs {
		if doc.RepoID == repoID {
			count++
		}
	}
	return count, nil
}

// DeleteRepo removes all documents for a repository.
func (s *DocumentStore) DeleteRepo(_ context.Context, repoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, doc := range s.docs {
		if doc.RepoID == repoID {
			delete(s.docs, key)
		}
	}
	return nil
}

// WalkEmbeddings visits every stored embedding in key order.
func (s *DocumentStore) WalkEmbeddings(_ context.Context, fn func(repoID, chunkID string, embedding []float32) error) error {
	s.mu.RLock()
	keys := make([]string, 0, len(s.docs))
	for key := range s.docs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	docs := make([]domain.IndexDocument, 0, len(keys))
	for _, key := range keys {
		docs = append(docs, s.docs[key])
	}
	s.mu.RUnlock()

	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			continue
		}
		if err := fn(doc.RepoID, doc.ChunkID, doc.Embedding); err != nil {
			return err
		}
	}
	return nil
}

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

// EmbeddingCache is an in-memory implementation of driven.EmbeddingCache.
type EmbeddingCache struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

// NewEmbeddingCache creates a new in-memory embedding cache.
func NewEmbeddingCache() *EmbeddingCache {
	return &EmbeddingCache{
		vectors: make(map[string][]float32),
	}
}

// Get returns cached vectors for the given hashes.
func (c *EmbeddingCache) Get(_ context.Context, hashes []string) (map[string][]float32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string][]float32, len(hashes))
	for _, hash := range hashes {
		if vector, ok := c.vectors[hash]; ok {
			out[hash] = vector
		}
	}
	return out, nil
}

// Put persists vectors keyed by content hash.
func (c *EmbeddingCache) Put(_ context.Context, vectors map[string][]float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for hash, vector := range vectors {
		c.vectors[hash] = vector
	}
	return nil
}

// Len reports the number of cached vectors.
func (c *EmbeddingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}
