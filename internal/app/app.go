// Package app is the composition root: it assembles the stores,
// adapters, and services from settings and owns their lifecycles.
package app

import (
	"context"
	"fmt"

	"github.com/custodia-labs/codewiki/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/codewiki/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/codewiki/internal/adapters/driven/git"
	"github.com/custodia-labs/codewiki/internal/adapters/driven/github"
	"github.com/custodia-labs/codewiki/internal/adapters/driven/index/vector"
	"github.com/custodia-labs/codewiki/internal/adapters/driven/storage/sqlite"
	summariseranthropic "github.com/custodia-labs/codewiki/internal/adapters/driven/summariser/anthropic"
	summariserollama "github.com/custodia-labs/codewiki/internal/adapters/driven/summariser/ollama"
	summariseropenai "github.com/custodia-labs/codewiki/internal/adapters/driven/summariser/openai"
	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
	"github.com/custodia-labs/codewiki/internal/core/services"
	"github.com/custodia-labs/codewiki/internal/extractor"
	"github.com/custodia-labs/codewiki/internal/extractor/boundary"
	"github.com/custodia-labs/codewiki/internal/logger"
)

// App holds the assembled services and their backing resources.
type App struct {
	Settings *domain.Settings

	Repos  *services.RepositoryService
	Ingest *services.IngestionCoordinator
	Wiki   *services.WikiOrchestrator
	Search *services.Searcher

	store       *sqlite.Store
	vectorIndex *vector.Index
	provider    driven.EmbeddingService
	summariser  driven.Summariser
}

// New assembles the application from settings. Startup recovers state:
// the vector index is rebuilt from the document store and orphaned
// ingestion statuses are reconciled.
func New(ctx context.Context, settings *domain.Settings) (*App, error) {
	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}

	provider, err := newEmbeddingProvider(settings.Embedding)
	if err != nil {
		store.Close()
		return nil, err
	}

	summariser, err := newSummariser(settings.Wiki)
	if err != nil {
		store.Close()
		return nil, err
	}

	dimensions := settings.Embedding.Dimensions
	if provider != nil {
		dimensions = provider.Dimensions()
	}
	vectorIndex, err := vector.New(dimensions)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating vector index: %w", err)
	}

	loaded, err := vectorIndex.Rebuild(ctx, store.DocumentStore())
	if err != nil {
		store.Close()
		return nil, err
	}
	if loaded > 0 {
		logger.Info("Restored %d vectors from the document store", loaded)
	}

	cloner, err := git.NewCloner()
	if err != nil {
		store.Close()
		return nil, err
	}

	workspace := services.NewWorkspace(settings.DataDir, cloner)
	resolver := github.NewResolver(settings.GitHubToken)

	var embedder *services.Embedder
	if provider != nil {
		embedder = services.NewEmbedder(
			store.EmbeddingCache(),
			provider,
			settings.Embedding.BatchSize,
			settings.Embedding.RequestsPerSecond,
		)
	}

	feeder := services.NewIndexFeeder(
		store.DocumentStore(),
		store.SearchEngine(),
		vectorIndex,
		settings.Ingest,
	)

	wiki := services.NewWikiOrchestrator(
		store.WikiStore(),
		store.RepositoryStore(),
		summariser,
		workspace,
		settings.Wiki,
	)

	chunker := extractor.New(
		extractor.WithWindowLines(settings.Ingest.WindowLines),
		extractor.WithOverlapLines(settings.Ingest.OverlapLines),
		extractor.WithMaxFileBytes(settings.Ingest.MaxFileBytes),
		extractor.WithCapability(boundary.New()),
	)

	ingest := services.NewIngestionCoordinator(
		store.RepositoryStore(),
		store.StatusStore(),
		store.ManifestStore(),
		chunker,
		embedder,
		feeder,
		wiki,
		workspace,
		settings.Ingest,
	)

	if err := ingest.Reconcile(ctx); err != nil {
		logger.Warn("startup reconcile: %v", err)
	}

	search := services.NewSearcher(
		store.DocumentStore(),
		store.SearchEngine(),
		vectorIndex,
		embedder,
		store.RepositoryStore(),
		store.ManifestStore(),
		wiki,
		settings.Search,
	)

	return &App{
		Settings:    settings,
		Repos:       services.NewRepositoryService(store.RepositoryStore(), store.StatusStore(), resolver),
		Ingest:      ingest,
		Wiki:        wiki,
		Search:      search,
		store:       store,
		vectorIndex: vectorIndex,
		provider:    provider,
		summariser:  summariser,
	}, nil
}

// Close shuts down active jobs and releases resources.
func (a *App) Close(ctx context.Context) error {
	if err := a.Ingest.Shutdown(ctx); err != nil {
		logger.Warn("shutdown: %v", err)
	}
	if a.provider != nil {
		a.provider.Close() //nolint:errcheck
	}
	if a.summariser != nil {
		a.summariser.Close() //nolint:errcheck
	}
	a.vectorIndex.Close() //nolint:errcheck
	return a.store.Close()
}

// newEmbeddingProvider builds the configured embedding service, or nil
// when embeddings are not configured. Search then degrades to lexical.
func newEmbeddingProvider(cfg domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !cfg.IsConfigured() {
		logger.Warn("Embedding provider not configured; semantic search disabled")
		return nil, nil
	}

	switch cfg.Provider {
	case domain.AIProviderOllama:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil
	case domain.AIProviderOpenAI:
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring openai embeddings: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrInvalidInput, cfg.Provider)
	}
}

// newSummariser builds the configured wiki summariser, or nil when
// summarisation is not configured. Wiki generation then fails fast.
func newSummariser(cfg domain.WikiSettings) (driven.Summariser, error) {
	if !cfg.IsConfigured() {
		logger.Warn("Wiki provider not configured; wiki generation disabled")
		return nil, nil
	}

	switch cfg.Provider {
	case domain.AIProviderOllama:
		return summariserollama.New(summariserollama.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	case domain.AIProviderOpenAI:
		svc, err := summariseropenai.New(summariseropenai.Config{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring openai summariser: %w", err)
		}
		return svc, nil
	case domain.AIProviderAnthropic:
		svc, err := summariseranthropic.New(summariseranthropic.Config{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring anthropic summariser: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("%w: wiki provider %q", domain.ErrInvalidInput, cfg.Provider)
	}
}
