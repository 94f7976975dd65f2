// Package httpapi provides the REST API adapter over the driving ports.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/codewiki/internal/core/ports/driving"
	"github.com/custodia-labs/codewiki/internal/logger"
)

// Ports aggregates the driving port interfaces required by the API.
type Ports struct {
	// Repos manages the repository registry.
	Repos driving.RepositoryService

	// Ingest drives the ingestion pipeline.
	Ingest driving.IngestionService

	// Wiki exposes wiki pages and regeneration.
	Wiki driving.WikiService

	// Search runs queries over the indexed corpus.
	Search driving.SearchService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Repos == nil || p.Ingest == nil || p.Wiki == nil || p.Search == nil {
		return fmt.Errorf("httpapi: all ports are required")
	}
	return nil
}

// Server serves the REST API.
type Server struct {
	ports *Ports
	mux   *http.ServeMux
}

// NewServer creates the API server and registers its routes.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		ports: ports,
		mux:   http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// routes wires the method-qualified patterns to handlers.
func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /repos", s.handleRegister)
	s.mux.HandleFunc("GET /repos", s.handleList)
	s.mux.HandleFunc("GET /repos/{id}", s.handleGet)
	s.mux.HandleFunc("POST /repos/{id}/index", s.handleIndex)
	s.mux.HandleFunc("GET /repos/{id}/status", s.handleStatus)
	s.mux.HandleFunc("GET /repos/{id}/events", s.handleEvents)
	s.mux.HandleFunc("GET /repos/{id}/wiki", s.handleWiki)
	s.mux.HandleFunc("GET /repos/{id}/wiki/status", s.handleWikiStatus)
	s.mux.HandleFunc("POST /repos/{id}/wiki/summary", s.handleWikiRegenerate)

	s.mux.HandleFunc("POST /search", s.handleSearch)
}

// Handler returns the http.Handler for this API.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves the API on addr until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http: shutdown: %v", err)
		}
	}()

	logger.Info("API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
