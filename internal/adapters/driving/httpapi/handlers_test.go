package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driving"
)

// --- Mock implementations ---

type mockRepoService struct {
	repos       map[string]*domain.Repository
	registerErr error
}

func (m *mockRepoService) Register(_ context.Context, repoURL string) (*domain.Repository, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return &domain.Repository{ID: "repo-1", Owner: "acme", Name: "widgets", RepoURL: repoURL}, nil
}

func (m *mockRepoService) Get(_ context.Context, id string) (*domain.Repository, error) {
	repo, ok := m.repos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return repo, nil
}

func (m *mockRepoService) List(_ context.Context) ([]domain.Repository, error) {
	var out []domain.Repository
	for _, repo := range m.repos {
		out = append(out, *repo)
	}
	return out, nil
}

type mockIngestService struct {
	status   *domain.IngestionStatus
	startErr error
	updates  []domain.IngestionStatus
}

func (m *mockIngestService) Start(_ context.Context, repoID string) (*domain.IngestionStatus, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	return &domain.IngestionStatus{RepoID: repoID, Stage: domain.StageCloning}, nil
}

func (m *mockIngestService) Status(_ context.Context, _ string) (*domain.IngestionStatus, error) {
	if m.status == nil {
		return nil, domain.ErrNotFound
	}
	return m.status, nil
}

func (m *mockIngestService) Subscribe(string) (<-chan domain.IngestionStatus, func()) {
	ch := make(chan domain.IngestionStatus, len(m.updates))
	for _, st := range m.updates {
		ch <- st
	}
	close(ch)
	return ch, func() {}
}

func (m *mockIngestService) Reconcile(context.Context) error { return nil }
func (m *mockIngestService) Shutdown(context.Context) error  { return nil }

type mockWikiService struct {
	page    *driving.WikiPage
	pageErr error
}

func (m *mockWikiService) Page(context.Context, string) (*driving.WikiPage, error) {
	if m.pageErr != nil {
		return nil, m.pageErr
	}
	return m.page, nil
}

func (m *mockWikiService) Regenerate(_ context.Context, repoID string) (*domain.WikiArtifact, error) {
	return &domain.WikiArtifact{
		RepoID:      repoID,
		Version:     2,
		Summary:     "Regenerated summary.",
		LongSummary: "Regenerated long form.",
		CommitSHA:   "def456",
	}, nil
}

func (m *mockWikiService) Status(_ context.Context, repoID string) (*domain.WikiStatus, error) {
	return &domain.WikiStatus{RepoID: repoID, State: domain.WikiStateReady, CommitSHA: "abc123", Attempts: 1}, nil
}

type mockSearchService struct {
	results   []domain.SearchResult
	searchErr error
	lastOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.results, nil
}

// --- Helpers ---

type fixture struct {
	repos  *mockRepoService
	ingest *mockIngestService
	wiki   *mockWikiService
	search *mockSearchService
	server *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repos:  &mockRepoService{repos: map[string]*domain.Repository{}},
		ingest: &mockIngestService{},
		wiki:   &mockWikiService{},
		search: &mockSearchService{},
	}
	server, err := NewServer(&Ports{
		Repos:  f.repos,
		Ingest: f.ingest,
		Wiki:   f.wiki,
		Search: f.search,
	})
	require.NoError(t, err)
	f.server = server
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestServer_RequiresAllPorts(t *testing.T) {
	_, err := NewServer(&Ports{})
	assert.Error(t, err)
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Register(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/repos", registerRequest{URL: "https://github.com/acme/widgets"})

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp repoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "repo-1", resp.ID)
	assert.Equal(t, "https://github.com/acme/widgets", resp.URL)
}

func TestServer_Register_DocumentedFieldName(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/repos",
		bytes.NewBufferString(`{"repo_url": "https://github.com/acme/widgets"}`))
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"repo_url":"https://github.com/acme/widgets"`)
}

func TestServer_Register_InvalidURL(t *testing.T) {
	f := newFixture(t)
	f.repos.registerErr = fmt.Errorf("%w: not a github url", domain.ErrInvalidRepoURL)

	rec := f.do(t, http.MethodPost, "/repos", registerRequest{URL: "ftp://nope"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not a github url")
}

func TestServer_Register_MalformedBody(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/repos", bytes.NewBufferString(`{"repo_url": `))
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_GetRepo_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/repos/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Index_Accepted(t *testing.T) {
	f := newFixture(t)
	f.repos.repos["repo-1"] = &domain.Repository{ID: "repo-1"}

	rec := f.do(t, http.MethodPost, "/repos/repo-1/index", nil)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.StageCloning), resp.Stage)
}

func TestServer_Index_Conflict(t *testing.T) {
	f := newFixture(t)
	f.ingest.startErr = domain.ErrIngestionInProgress

	rec := f.do(t, http.MethodPost, "/repos/repo-1/index", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServer_Status(t *testing.T) {
	f := newFixture(t)
	f.ingest.status = &domain.IngestionStatus{
		RepoID: "repo-1", Stage: domain.StageEmbedding, Progress: 0.5,
	}

	rec := f.do(t, http.MethodGet, "/repos/repo-1/status", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "embedding", resp.Stage)
	assert.Equal(t, 0.5, resp.Progress)
}

func TestServer_Events_StreamsUntilTerminal(t *testing.T) {
	f := newFixture(t)
	f.ingest.status = &domain.IngestionStatus{RepoID: "repo-1", Stage: domain.StageCloning}
	f.ingest.updates = []domain.IngestionStatus{
		{RepoID: "repo-1", Stage: domain.StageChunking},
		{RepoID: "repo-1", Stage: domain.StageComplete},
	}

	rec := f.do(t, http.MethodGet, "/repos/repo-1/events", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `"stage":"cloning"`)
	assert.Contains(t, body, `"stage":"chunking"`)
	assert.Contains(t, body, `"stage":"complete"`)
}

func TestServer_Wiki(t *testing.T) {
	f := newFixture(t)
	f.wiki.page = &driving.WikiPage{
		Summary:     "A widget service.",
		LongSummary: "Long form.",
		History: []domain.WikiArtifact{
			{Version: 2, Summary: "Second pass.", LongSummary: "Second long form.", CommitSHA: "def456"},
			{Version: 1, Summary: "First pass.", LongSummary: "First long form.", CommitSHA: "abc123"},
		},
	}

	rec := f.do(t, http.MethodGet, "/repos/repo-1/wiki", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp wikiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "A widget service.", resp.Summary)
	require.Len(t, resp.History, 2)
	assert.Equal(t, 2, resp.History[0].Version)
	assert.Equal(t, "Second pass.", resp.History[0].Summary)
	assert.Equal(t, "Second long form.", resp.History[0].LongSummary)
	assert.Equal(t, "First pass.", resp.History[1].Summary)
}

func TestServer_Wiki_NotFound(t *testing.T) {
	f := newFixture(t)
	f.wiki.pageErr = domain.ErrNotFound

	rec := f.do(t, http.MethodGet, "/repos/repo-1/wiki", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_WikiStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/repos/repo-1/wiki/status", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp wikiStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.WikiStateReady), resp.State)
	assert.Equal(t, "abc123", resp.CommitSHA)
}

func TestServer_WikiRegenerate(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/repos/repo-1/wiki/summary", nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp wikiVersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Version)
	assert.Equal(t, "Regenerated summary.", resp.Summary)
	assert.Equal(t, "Regenerated long form.", resp.LongSummary)
}

func TestServer_Search(t *testing.T) {
	f := newFixture(t)
	f.search.results = []domain.SearchResult{
		{RepoID: "repo-1", FilePath: "pkg/a.go", LineStart: 10, LineEnd: 20, Score: 0.9, Snippet: "func A() {}"},
	}

	rec := f.do(t, http.MethodPost, "/search", searchRequest{Query: "func", Mode: "deep", Limit: 5})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "pkg/a.go", resp.Results[0].FilePath)
	assert.Equal(t, domain.SearchModeDeep, f.search.lastOpts.Mode)
	assert.Equal(t, 5, f.search.lastOpts.Limit)
}

func TestServer_Search_DocumentedFieldNames(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/search",
		bytes.NewBufferString(`{"query": "func", "repo_filter": "nonexistent", "search_mode": "fast"}`))
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
	assert.Equal(t, "nonexistent", f.search.lastOpts.RepoFilter)
	assert.Equal(t, domain.SearchModeFast, f.search.lastOpts.Mode)
}

func TestServer_Search_DefaultsToFastMode(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/search", searchRequest{Query: "func"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.SearchModeFast, f.search.lastOpts.Mode)
}

func TestServer_Search_UnknownMode(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/search", searchRequest{Query: "func", Mode: "turbo"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Search_Unavailable(t *testing.T) {
	f := newFixture(t)
	f.search.searchErr = domain.ErrSearchUnavailable

	rec := f.do(t, http.MethodPost, "/search", searchRequest{Query: "func"})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
