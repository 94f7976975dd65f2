package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
)

// Ensure SearchEngine implements the interface.
var _ driven.SearchEngine = (*SearchEngine)(nil)

// SearchEngine is an in-memory keyword search used in tests. Scoring
// is term-frequency based, a stand-in for the FTS5 BM25 engine.
type SearchEngine struct {
	mu   sync.RWMutex
	docs map[string]indexedDoc
}

type indexedDoc struct {
	repoID  string
	chunkID string
	text    string
}

// NewSearchEngine creates a new in-memory search engine.
func NewSearchEngine() *SearchEngine {
	return &SearchEngine{
		docs: make(map[string]indexedDoc),
	}
}

// Index adds or updates a document in the search index.
func (e *SearchEngine) Index(_ context.Context, doc domain.IndexDocument) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	text := strings.ToLower(doc.FilePath + " " + strings.Join(doc.SymbolNames, " ") + " " + doc.Content)
	e.docs[doc.Key()] = indexedDoc{
		repoID:  doc.RepoID,
		chunkID: doc.ChunkID,
		text:    text,
	}
	return nil
}

// Delete removes a document from the search index.
func (e *SearchEngine) Delete(_ context.Context, repoID, chunkID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.docs, repoID+"/"+chunkID)
	return nil
}

// DeleteRepo removes all index entries for a repository.
func (e *SearchEngine) DeleteRepo(_ context.Context, repoID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key, doc := range e.docs {
		if doc.repoID == repoID {
			delete(e.docs, key)
		}
	}
	return nil
}

// Search returns documents containing query terms, scored by the
// number of matching terms.
func (e *SearchEngine) Search(_ context.Context, query string, limit int, repoFilter string) ([]driven.SearchHit, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	var hits []driven.SearchHit
	for _, doc := range e.docs {
		if repoFilter != "" && doc.repoID != repoFilter {
			continue
		}
		score := 0.0
		for _, term := range terms {
			if strings.Contains(doc.text, term) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, driven.SearchHit{
				RepoID:  doc.repoID,
				ChunkID: doc.chunkID,
				Score:   score,
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].RepoID != hits[j].RepoID {
			return hits[i].RepoID < hits[j].RepoID
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Close is a no-op.
func (e *SearchEngine) Close() error {
	return nil
}
