package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDocument(repoID, chunkID, content string) domain.IndexDocument {
	return domain.IndexDocument{
		RepoID:        repoID,
		ChunkID:       chunkID,
		RepoOwner:     "acme",
		RepoName:      "widgets",
		RepoURL:       "https://github.com/acme/widgets",
		CommitSHA:     "abc123",
		Branch:        "main",
		FilePath:      "pkg/" + chunkID + ".go",
		Language:      "go",
		ChunkHash:     domain.HashContent(content),
		LineStart:     1,
		LineEnd:       5,
		Content:       content,
		LastIndexedAt: time.Now().UTC(),
	}
}

func TestNewStore_CreatesDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "metadata.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.RepositoryStore().Save(context.Background(),
		&domain.Repository{ID: "repo-1", Owner: "acme", Name: "widgets"}))
}

func TestRepositoryStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repos := store.RepositoryStore()

	repo := &domain.Repository{
		ID:      "repo-1",
		Owner:   "acme",
		Name:    "widgets",
		RepoURL: "https://github.com/acme/widgets",
		Branch:  "main",
	}
	require.NoError(t, repos.Save(ctx, repo))
	assert.False(t, repo.CreatedAt.IsZero())

	got, err := repos.Get(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Owner)
	assert.Equal(t, "main", got.Branch)

	byURL, err := repos.GetByURL(ctx, "https://github.com/acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, "repo-1", byURL.ID)

	_, err = repos.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepositoryStore_SaveUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repos := store.RepositoryStore()

	require.NoError(t, repos.Save(ctx, &domain.Repository{ID: "repo-1", Owner: "acme", Name: "widgets"}))
	require.NoError(t, repos.Save(ctx, &domain.Repository{ID: "repo-1", Owner: "acme", Name: "widgets", CommitSHA: "abc123"}))

	got, err := repos.Get(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.CommitSHA)

	list, err := repos.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestManifestStore_HeadIsNewestGeneration(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	manifests := store.ManifestStore()

	require.NoError(t, manifests.Save(ctx, &domain.Manifest{
		RepoID: "repo-1", CommitSHA: "abc123", Branch: "main", SchemaVersion: 1, ChunkCount: 3,
	}))
	require.NoError(t, manifests.Save(ctx, &domain.Manifest{
		RepoID: "repo-1", CommitSHA: "def456", Branch: "main", SchemaVersion: 1, ChunkCount: 5,
	}))

	head, err := manifests.Head(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, "def456", head.CommitSHA)
	assert.Equal(t, 5, head.ChunkCount)

	list, err := manifests.List(ctx, "repo-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "def456", list[0].CommitSHA)
	assert.Equal(t, "abc123", list[1].CommitSHA)

	_, err = manifests.Head(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWikiStore_AppendRejectsDuplicateVersion(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	wiki := store.WikiStore()

	require.NoError(t, wiki.Append(ctx, &domain.WikiArtifact{
		RepoID: "repo-1", Version: 1, Summary: "First.", CommitSHA: "abc123",
	}))

	err := wiki.Append(ctx, &domain.WikiArtifact{
		RepoID: "repo-1", Version: 1, Summary: "Clobber.", CommitSHA: "def456",
	})
	assert.Error(t, err)

	head, err := wiki.Head(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, "First.", head.Summary)
}

func TestWikiStore_VersionHistory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	wiki := store.WikiStore()

	next, err := wiki.NextVersion(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	require.NoError(t, wiki.Append(ctx, &domain.WikiArtifact{RepoID: "repo-1", Version: 1, Summary: "v1", CommitSHA: "abc123"}))
	require.NoError(t, wiki.Append(ctx, &domain.WikiArtifact{RepoID: "repo-1", Version: 2, Summary: "v2", CommitSHA: "def456"}))

	next, err = wiki.NextVersion(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, 3, next)

	history, err := wiki.History(ctx, "repo-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Version)
	assert.Equal(t, 1, history[1].Version)
}

func TestWikiStore_StatusUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	wiki := store.WikiStore()

	require.NoError(t, wiki.SaveStatus(ctx, &domain.WikiStatus{
		RepoID: "repo-1", State: domain.WikiStateGenerating, CommitSHA: "abc123", Attempts: 1,
	}))
	require.NoError(t, wiki.SaveStatus(ctx, &domain.WikiStatus{
		RepoID: "repo-1", State: domain.WikiStateReady, CommitSHA: "abc123", Attempts: 2,
	}))

	st, err := wiki.GetStatus(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, domain.WikiStateReady, st.State)
	assert.Equal(t, 2, st.Attempts)

	_, err = wiki.GetStatus(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStatusStore_ListActive(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	statuses := store.StatusStore()

	require.NoError(t, statuses.Save(ctx, &domain.IngestionStatus{RepoID: "repo-a", Stage: domain.StageChunking, Generation: "g1"}))
	require.NoError(t, statuses.Save(ctx, &domain.IngestionStatus{RepoID: "repo-b", Stage: domain.StageComplete, Generation: "g1"}))
	require.NoError(t, statuses.Save(ctx, &domain.IngestionStatus{RepoID: "repo-c", Stage: domain.StageError, Error: "boom", Generation: "g2"}))

	active, err := statuses.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "repo-a", active[0].RepoID)
	assert.Equal(t, domain.StageChunking, active[0].Stage)
}

func TestEmbeddingCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	cache := store.EmbeddingCache()

	require.NoError(t, cache.Put(ctx, map[string][]float32{
		"h1": {0.25, -1.5, 3},
		"h2": {0, 0.5},
	}))

	got, err := cache.Get(ctx, []string{"h1", "h2", "h3"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []float32{0.25, -1.5, 3}, got["h1"])
	assert.Equal(t, []float32{0, 0.5}, got["h2"])

	// Re-putting an existing hash overwrites, not duplicates.
	require.NoError(t, cache.Put(ctx, map[string][]float32{"h1": {9}}))
	got, err = cache.Get(ctx, []string{"h1"})
	require.NoError(t, err)
	assert.Equal(t, []float32{9}, got["h1"])
}

func TestDocumentStore_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	docs := store.DocumentStore()

	doc := testDocument("repo-1", "c1", "func Handle() {}")
	doc.SymbolNames = []string{"Handle"}
	doc.Embedding = []float32{0.1, 0.2, 0.3}
	require.NoError(t, docs.UpsertDocuments(ctx, []domain.IndexDocument{doc}))

	got, err := docs.GetDocument(ctx, "repo-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Handle"}, got.SymbolNames)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got.Embedding)
	assert.Equal(t, "func Handle() {}", got.Content)

	// Upserting the same key replaces the row.
	doc.Content = "func Handle(w http.ResponseWriter) {}"
	require.NoError(t, docs.UpsertDocuments(ctx, []domain.IndexDocument{doc}))

	count, err := docs.CountDocuments(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err = docs.GetDocument(ctx, "repo-1", "c1")
	require.NoError(t, err)
	assert.Contains(t, got.Content, "ResponseWriter")
}

func TestDocumentStore_WalkEmbeddings(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	docs := store.DocumentStore()

	withVector := testDocument("repo-1", "c1", "alpha")
	withVector.Embedding = []float32{1, 2}
	withoutVector := testDocument("repo-1", "c2", "beta")
	require.NoError(t, docs.UpsertDocuments(ctx, []domain.IndexDocument{withVector, withoutVector}))

	visited := map[string][]float32{}
	err := docs.WalkEmbeddings(ctx, func(_, chunkID string, embedding []float32) error {
		visited[chunkID] = embedding
		return nil
	})

	require.NoError(t, err)
	require.Len(t, visited, 1)
	assert.Equal(t, []float32{1, 2}, visited["c1"])
}

func TestSearchEngine_MatchAndRank(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	engine := store.SearchEngine()

	symbolDoc := testDocument("repo-1", "c1", "func run() {}")
	symbolDoc.SymbolNames = []string{"HandleLogin"}
	contentDoc := testDocument("repo-1", "c2", "calls HandleLogin somewhere in the body")
	require.NoError(t, engine.Index(ctx, symbolDoc))
	require.NoError(t, engine.Index(ctx, contentDoc))

	hits, err := engine.Search(ctx, "HandleLogin", 10, "")

	require.NoError(t, err)
	require.Len(t, hits, 2)
	// Symbol matches outweigh body matches.
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearchEngine_RepoFilterAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	engine := store.SearchEngine()

	require.NoError(t, engine.Index(ctx, testDocument("repo-1", "c1", "widget factory")))
	require.NoError(t, engine.Index(ctx, testDocument("repo-2", "c2", "widget warehouse")))

	hits, err := engine.Search(ctx, "widget", 10, "repo-2")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "repo-2", hits[0].RepoID)

	require.NoError(t, engine.DeleteRepo(ctx, "repo-2"))
	hits, err = engine.Search(ctx, "widget", 10, "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "repo-1", hits[0].RepoID)
}

func TestSearchEngine_ReindexReplacesEntry(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	engine := store.SearchEngine()

	require.NoError(t, engine.Index(ctx, testDocument("repo-1", "c1", "original text")))
	require.NoError(t, engine.Index(ctx, testDocument("repo-1", "c1", "replaced body")))

	hits, err := engine.Search(ctx, "original", 10, "")
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = engine.Search(ctx, "replaced", 10, "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestBuildMatchQuery(t *testing.T) {
	assert.Equal(t, `"login"`, buildMatchQuery("login"))
	assert.Equal(t, `"login" OR "handler"`, buildMatchQuery("login handler"))
	assert.Equal(t, `"a""b"`, buildMatchQuery(`a"b`))
	assert.Equal(t, "", buildMatchQuery("   "))
}

func TestFloat32BlobRoundTrip(t *testing.T) {
	in := []float32{0, -1.25, 3.5, 1e-7}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
