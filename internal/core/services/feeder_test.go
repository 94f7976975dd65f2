package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codewiki/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
)

// flakyDocStore fails the first n upserts before delegating.
type flakyDocStore struct {
	driven.DocumentStore

	mu       sync.Mutex
	failures int
	attempts int
}

func (s *flakyDocStore) UpsertDocuments(ctx context.Context, docs []domain.IndexDocument) error {
	s.mu.Lock()
	s.attempts++
	fail := s.attempts <= s.failures
	s.mu.Unlock()
	if fail {
		return errors.New("database locked")
	}
	return s.DocumentStore.UpsertDocuments(ctx, docs)
}

func feedDoc(chunkID, content string, embedding []float32) domain.IndexDocument {
	return domain.IndexDocument{
		RepoID:        "repo-1",
		ChunkID:       chunkID,
		FilePath:      "pkg/" + chunkID + ".go",
		LineStart:     1,
		LineEnd:       10,
		ChunkHash:     domain.HashContent(content),
		Content:       content,
		Embedding:     embedding,
		LastIndexedAt: time.Now().UTC(),
	}
}

func feed(t *testing.T, f *IndexFeeder, dimensions int, docs ...domain.IndexDocument) FeedStats {
	t.Helper()
	ch := make(chan domain.IndexDocument, len(docs))
	for _, d := range docs {
		ch <- d
	}
	close(ch)

	stats, err := f.Feed(context.Background(), ch, dimensions)
	require.NoError(t, err)
	return stats
}

func TestIndexFeeder_Feed_UpsertsAllDocuments(t *testing.T) {
	docStore := memory.NewDocumentStore()
	engine := memory.NewSearchEngine()
	f := NewIndexFeeder(docStore, engine, nil, domain.IngestSettings{})

	stats := feed(t, f, 2,
		feedDoc("c1", "func A() {}", []float32{1, 0}),
		feedDoc("c2", "func B() {}", []float32{0, 1}),
	)

	assert.Equal(t, 2, stats.Fed)
	assert.Zero(t, stats.Skipped)

	count, err := docStore.CountDocuments(context.Background(), "repo-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	hits, err := engine.Search(context.Background(), "func", 10, "")
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestIndexFeeder_Feed_SkipsInvalidDocuments(t *testing.T) {
	docStore := memory.NewDocumentStore()
	f := NewIndexFeeder(docStore, memory.NewSearchEngine(), nil, domain.IngestSettings{})

	bad := feedDoc("c2", "func B() {}", []float32{0, 1})
	bad.LineStart = 0

	wrongDims := feedDoc("c3", "func C() {}", []float32{1})

	stats := feed(t, f, 2,
		feedDoc("c1", "func A() {}", []float32{1, 0}),
		bad,
		wrongDims,
	)

	assert.Equal(t, 1, stats.Fed)
	assert.Equal(t, 2, stats.Skipped)
}

func TestIndexFeeder_Feed_RetriesTransientErrors(t *testing.T) {
	flaky := &flakyDocStore{DocumentStore: memory.NewDocumentStore(), failures: 2}
	f := NewIndexFeeder(flaky, memory.NewSearchEngine(), nil, domain.IngestSettings{
		FeedMaxRetries:  3,
		FeedBackoffBase: time.Millisecond,
	})

	stats := feed(t, f, 2, feedDoc("c1", "func A() {}", []float32{1, 0}))

	assert.Equal(t, 1, stats.Fed)
	assert.Equal(t, 3, flaky.attempts)
}

func TestIndexFeeder_Feed_ExhaustedRetries(t *testing.T) {
	flaky := &flakyDocStore{DocumentStore: memory.NewDocumentStore(), failures: 100}
	f := NewIndexFeeder(flaky, memory.NewSearchEngine(), nil, domain.IngestSettings{
		FeedMaxRetries:  1,
		FeedBackoffBase: time.Millisecond,
	})

	ch := make(chan domain.IndexDocument, 1)
	ch <- feedDoc("c1", "func A() {}", []float32{1, 0})
	close(ch)

	_, err := f.Feed(context.Background(), ch, 2)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexFeed)
}

func TestIndexFeeder_Feed_MirrorsIntoVectorIndex(t *testing.T) {
	vectorIndex := &recordingVectorIndex{}
	f := NewIndexFeeder(memory.NewDocumentStore(), memory.NewSearchEngine(), vectorIndex, domain.IngestSettings{})

	// Dimensions 0: the schema check tolerates missing vectors, as in
	// lexical-only ingestion.
	feed(t, f, 0,
		feedDoc("c1", "func A() {}", []float32{1, 0}),
		feedDoc("c2", "func B() {}", nil),
	)

	// Only the document carrying a vector reaches the vector index.
	assert.Equal(t, []string{"c1"}, vectorIndex.added)
}

// recordingVectorIndex records Add calls.
type recordingVectorIndex struct {
	mockVectorIndex

	added []string
}

func (r *recordingVectorIndex) Add(_ context.Context, _, chunkID string, _ []float32) error {
	r.added = append(r.added, chunkID)
	return nil
}

func TestIndexFeeder_Feed_Idempotent(t *testing.T) {
	docStore := memory.NewDocumentStore()
	f := NewIndexFeeder(docStore, memory.NewSearchEngine(), nil, domain.IngestSettings{})

	doc := feedDoc("c1", "func A() {}", []float32{1, 0})
	feed(t, f, 2, doc)
	feed(t, f, 2, doc)

	count, err := docStore.CountDocuments(context.Background(), "repo-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
