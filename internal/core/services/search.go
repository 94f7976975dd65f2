package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
	"github.com/custodia-labs/codewiki/internal/core/ports/driving"
	"github.com/custodia-labs/codewiki/internal/logger"
)

// rrfK is the reciprocal rank fusion constant. 60 keeps top ranks
// dominant without letting a single list's #1 crowd out consensus.
const rrfK = 60

// overFetchFactor widens candidate retrieval so that wiki gating and
// hydration misses still leave a full page of results.
const overFetchFactor = 3

// Ensure Searcher implements the interface.
var _ driving.SearchService = (*Searcher)(nil)

// Searcher runs hybrid retrieval over the indexed corpus: lexical and
// semantic candidates merged with reciprocal rank fusion, hydrated from
// the document store, and gated on wiki readiness.
type Searcher struct {
	docStore      driven.DocumentStore
	searchIndex   driven.SearchEngine
	vectorIndex   driven.VectorIndex
	embedder      *Embedder
	repoStore     driven.RepositoryStore
	manifestStore driven.ManifestStore
	wiki          *WikiOrchestrator
	cfg           domain.SearchSettings
}

// NewSearcher creates the search service. The embedder may be nil when
// no embedding provider is configured; fast mode then degrades to
// lexical-only and deep mode reports embeddings unavailable.
func NewSearcher(
	docStore driven.DocumentStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	embedder *Embedder,
	repoStore driven.RepositoryStore,
	manifestStore driven.ManifestStore,
	wiki *WikiOrchestrator,
	cfg domain.SearchSettings,
) *Searcher {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultSettings().Search.TopK
	}

	return &Searcher{
		docStore:      docStore,
		searchIndex:   searchIndex,
		vectorIndex:   vectorIndex,
		embedder:      embedder,
		repoStore:     repoStore,
		manifestStore: manifestStore,
		wiki:          wiki,
		cfg:           cfg,
	}
}

// Search executes a query and returns ranked snippets with file and
// line provenance.
func (s *Searcher) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}

	mode := opts.Mode
	if !mode.IsValid() {
		mode = domain.SearchModeFast
	}

	limit := opts.Limit
	if limit <= 0 || limit > s.cfg.TopK {
		limit = s.cfg.TopK
	}

	if opts.RepoFilter != "" {
		if _, err := s.repoStore.Get(ctx, opts.RepoFilter); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return []domain.SearchResult{}, nil
			}
			return nil, fmt.Errorf("resolve repo filter: %w", err)
		}
	}

	fetch := limit * overFetchFactor
	ranked, err := s.retrieve(ctx, query, mode, opts.RepoFilter, fetch)
	if err != nil {
		return nil, err
	}

	results, err := s.hydrate(ctx, ranked, limit)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// candidate is one fused hit before hydration.
type candidate struct {
	repoID  string
	chunkID string
	score   float64
}

// retrieve gathers candidates from the lexical and vector backends per
// the requested mode and fuses them.
func (s *Searcher) retrieve(ctx context.Context, query string, mode domain.SearchMode, repoFilter string, fetch int) ([]candidate, error) {
	var lexical []driven.SearchHit
	var lexErr error
	if mode == domain.SearchModeFast {
		lexical, lexErr = s.searchIndex.Search(ctx, query, fetch, repoFilter)
		if lexErr != nil {
			logger.Warn("search: lexical backend failed: %v", lexErr)
		}
	}

	semantic, semErr := s.semanticSearch(ctx, query, fetch, repoFilter)
	if semErr != nil {
		if mode == domain.SearchModeDeep {
			return nil, semErr
		}
		logger.Warn("search: semantic backend failed: %v", semErr)
	}

	if mode == domain.SearchModeFast && lexErr != nil && semErr != nil {
		return nil, fmt.Errorf("%w: both retrieval backends failed", domain.ErrSearchUnavailable)
	}

	if mode == domain.SearchModeDeep {
		out := make([]candidate, 0, len(semantic))
		for _, hit := range semantic {
			out = append(out, candidate{repoID: hit.RepoID, chunkID: hit.ChunkID, score: float64(hit.Similarity)})
		}
		return out, nil
	}

	return fuse(lexical, semantic), nil
}

// semanticSearch embeds the query and runs the vector index.
func (s *Searcher) semanticSearch(ctx context.Context, query string, fetch int, repoFilter string) ([]driven.VectorHit, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.vectorIndex == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", domain.ErrEmbeddingUnavailable, err)
	}

	hits, err := s.vectorIndex.Search(ctx, vector, fetch, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return hits, nil
}

// fuse merges the two ranked lists with reciprocal rank fusion. A
// document appearing in both lists accumulates both contributions, so
// agreement between backends outranks a single strong signal.
func fuse(lexical []driven.SearchHit, semantic []driven.VectorHit) []candidate {
	scores := make(map[string]*candidate)

	add := func(repoID, chunkID string, rank int) {
		key := repoID + "/" + chunkID
		c, ok := scores[key]
		if !ok {
			c = &candidate{repoID: repoID, chunkID: chunkID}
			scores[key] = c
		}
		c.score += 1.0 / float64(rrfK+rank+1)
	}

	for rank, hit := range lexical {
		add(hit.RepoID, hit.ChunkID, rank)
	}
	for rank, hit := range semantic {
		add(hit.RepoID, hit.ChunkID, rank)
	}

	fused := make([]candidate, 0, len(scores))
	for _, c := range scores {
		fused = append(fused, *c)
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		// Stable order for equal scores so pagination is deterministic.
		if fused[i].repoID != fused[j].repoID {
			return fused[i].repoID < fused[j].repoID
		}
		return fused[i].chunkID < fused[j].chunkID
	})
	return fused
}

// hydrate loads documents for the ranked candidates, applies the wiki
// readiness gate, and builds the final result page.
func (s *Searcher) hydrate(ctx context.Context, ranked []candidate, limit int) ([]domain.SearchResult, error) {
	eligible := make(map[string]bool)
	results := make([]domain.SearchResult, 0, limit)

	for _, c := range ranked {
		if len(results) >= limit {
			break
		}

		ok, known := eligible[c.repoID]
		if !known {
			ok = s.repoEligible(ctx, c.repoID)
			eligible[c.repoID] = ok
		}
		if !ok {
			continue
		}

		doc, err := s.docStore.GetDocument(ctx, c.repoID, c.chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Index entry outlived the document; skip it.
				continue
			}
			return nil, fmt.Errorf("hydrate result: %w", err)
		}

		results = append(results, domain.SearchResult{
			RepoID:    doc.RepoID,
			FilePath:  doc.FilePath,
			LineStart: doc.LineStart,
			LineEnd:   doc.LineEnd,
			Snippet:   domain.MakeSnippet(doc.Content),
			Score:     c.score,
		})
	}

	sortResults(results)
	return results, nil
}

// repoEligible reports whether a repository may surface in results:
// it must have an indexed manifest, and when wiki gating is on, a wiki
// artifact matching the manifest's commit.
func (s *Searcher) repoEligible(ctx context.Context, repoID string) bool {
	manifest, err := s.manifestStore.Head(ctx, repoID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("search: manifest head for %s: %v", repoID, err)
		}
		return false
	}

	if !s.cfg.RequireWiki {
		return true
	}

	ready, err := s.wiki.ReadyForCommit(ctx, repoID, manifest.CommitSHA)
	if err != nil {
		logger.Warn("search: wiki gate for %s: %v", repoID, err)
		return false
	}
	return ready
}

// sortResults orders by score descending, ties broken by file path
// then start line ascending.
func sortResults(results []domain.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].FilePath != results[j].FilePath {
			return results[i].FilePath < results[j].FilePath
		}
		return results[i].LineStart < results[j].LineStart
	})
}
