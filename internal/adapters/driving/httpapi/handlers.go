package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

// ==================== DTOs ====================

// registerRequest is the POST /repos body.
type registerRequest struct {
	URL string `json:"repo_url"`
}

// repoResponse is a registry record.
type repoResponse struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	URL       string    `json:"repo_url"`
	Branch    string    `json:"branch,omitempty"`
	CommitSHA string    `json:"commit_sha,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// statusResponse is an ingestion status snapshot.
type statusResponse struct {
	RepoID    string    `json:"repo_id"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	Progress  float64   `json:"progress"`
	UpdatedAt time.Time `json:"updated_at"`
}

// wikiVersionResponse is one artifact in the history listing.
type wikiVersionResponse struct {
	Version     int       `json:"version"`
	Summary     string    `json:"summary"`
	LongSummary string    `json:"long_summary"`
	CommitSHA   string    `json:"commit_sha,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toWikiVersionResponse(artifact *domain.WikiArtifact) wikiVersionResponse {
	return wikiVersionResponse{
		Version:     artifact.Version,
		Summary:     artifact.Summary,
		LongSummary: artifact.LongSummary,
		CommitSHA:   artifact.CommitSHA,
		CreatedAt:   artifact.CreatedAt,
	}
}

// wikiResponse is the wiki page read model.
type wikiResponse struct {
	Summary     string                `json:"summary"`
	LongSummary string                `json:"long_summary"`
	History     []wikiVersionResponse `json:"history"`
}

// wikiStatusResponse is the live wiki generation state.
type wikiStatusResponse struct {
	RepoID    string    `json:"repo_id"`
	State     string    `json:"state"`
	CommitSHA string    `json:"commit_sha,omitempty"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// searchRequest is the POST /search body.
type searchRequest struct {
	Query string `json:"query"`
	Repo  string `json:"repo_filter,omitempty"`
	Mode  string `json:"search_mode,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// searchResultResponse is one ranked hit.
type searchResultResponse struct {
	RepoID    string  `json:"repo_id"`
	FilePath  string  `json:"file_path"`
	LineStart int     `json:"line_start"`
	LineEnd   int     `json:"line_end"`
	Score     float64 `json:"score"`
	Snippet   string  `json:"snippet"`
}

// searchResponse is the POST /search reply.
type searchResponse struct {
	Results []searchResultResponse `json:"results"`
	Count   int                    `json:"count"`
}

func toRepoResponse(repo *domain.Repository) repoResponse {
	return repoResponse{
		ID:        repo.ID,
		Owner:     repo.Owner,
		Name:      repo.Name,
		URL:       repo.RepoURL,
		Branch:    repo.Branch,
		CommitSHA: repo.CommitSHA,
		CreatedAt: repo.CreatedAt,
		UpdatedAt: repo.UpdatedAt,
	}
}

func toStatusResponse(st *domain.IngestionStatus) statusResponse {
	return statusResponse{
		RepoID:    st.RepoID,
		Stage:     string(st.Stage),
		Message:   st.Message,
		Error:     st.Error,
		Progress:  st.Progress,
		UpdatedAt: st.UpdatedAt,
	}
}

// ==================== Handlers ====================

// handleHealth answers liveness probes.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRegister registers a repository by URL. Registration is
// idempotent; re-registering a known URL returns the existing record.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	repo, err := s.ports.Repos.Register(r.Context(), req.URL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRepoResponse(repo))
}

// handleList returns all registered repositories.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	repos, err := s.ports.Repos.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]repoResponse, len(repos))
	for i := range repos {
		out[i] = toRepoResponse(&repos[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGet returns one registry record.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	repo, err := s.ports.Repos.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRepoResponse(repo))
}

// handleIndex starts (or restarts) ingestion for a repository.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	status, err := s.ports.Ingest.Start(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toStatusResponse(status))
}

// handleStatus returns the current ingestion status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.ports.Ingest.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(status))
}

// handleEvents streams status updates for a repository as
// server-sent events until the job reaches a terminal stage or the
// client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	repoID := r.PathValue("id")
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, fmt.Errorf("streaming unsupported"))
		return
	}

	updates, cancel := s.ports.Ingest.Subscribe(repoID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	// Send the current status first so clients never start blind.
	if status, err := s.ports.Ingest.Status(r.Context(), repoID); err == nil {
		writeEvent(w, toStatusResponse(status))
		flusher.Flush()
		if status.Stage.IsTerminal() {
			return
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case status, open := <-updates:
			if !open {
				return
			}
			writeEvent(w, toStatusResponse(&status))
			flusher.Flush()
			if status.Stage.IsTerminal() {
				return
			}
		}
	}
}

// handleWiki returns the wiki page with its version history.
func (s *Server) handleWiki(w http.ResponseWriter, r *http.Request) {
	page, err := s.ports.Wiki.Page(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := wikiResponse{
		Summary:     page.Summary,
		LongSummary: page.LongSummary,
		History:     make([]wikiVersionResponse, len(page.History)),
	}
	for i := range page.History {
		out.History[i] = toWikiVersionResponse(&page.History[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// handleWikiStatus returns the live wiki generation state.
func (s *Server) handleWikiStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.ports.Wiki.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wikiStatusResponse{
		RepoID:    status.RepoID,
		State:     string(status.State),
		CommitSHA: status.CommitSHA,
		Attempts:  status.Attempts,
		LastError: status.LastError,
		UpdatedAt: status.UpdatedAt,
	})
}

// handleWikiRegenerate forces a new wiki generation cycle.
func (s *Server) handleWikiRegenerate(w http.ResponseWriter, r *http.Request) {
	artifact, err := s.ports.Wiki.Regenerate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toWikiVersionResponse(artifact))
}

// handleSearch runs a query over the indexed corpus.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	mode := domain.SearchMode(req.Mode)
	if req.Mode == "" {
		mode = domain.SearchModeFast
	}
	if !mode.IsValid() {
		writeError(w, fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, req.Mode))
		return
	}

	results, err := s.ports.Search.Search(r.Context(), req.Query, domain.SearchOptions{
		RepoFilter: req.Repo,
		Mode:       mode,
		Limit:      req.Limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	out := searchResponse{
		Results: make([]searchResultResponse, len(results)),
		Count:   len(results),
	}
	for i := range results {
		out.Results[i] = searchResultResponse{
			RepoID:    results[i].RepoID,
			FilePath:  results[i].FilePath,
			LineStart: results[i].LineStart,
			LineEnd:   results[i].LineEnd,
			Score:     results[i].Score,
			Snippet:   results[i].Snippet,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
