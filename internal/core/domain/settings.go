package domain

import "time"

// AIProvider identifies an AI service provider for embeddings or summarisation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API. Summarisation
	// only; there is no Anthropic embedding endpoint.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// SupportsEmbedding returns true if the provider offers an embedding API.
func (p AIProvider) SupportsEmbedding() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// ReingestPolicy controls what happens to an index request while a job
// is already active for the same repository.
type ReingestPolicy string

// Available re-ingestion policies.
const (
	// ReingestReject rejects the request with ErrIngestionInProgress.
	ReingestReject ReingestPolicy = "reject"

	// ReingestPreempt cancels the active job and starts a new one.
	ReingestPreempt ReingestPolicy = "preempt"
)

// IsValid returns true if the policy is recognised.
func (p ReingestPolicy) IsValid() bool {
	return p == ReingestReject || p == ReingestPreempt
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	// Port is the listen port for the REST API.
	Port int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the embedding vector size. Fixed for the lifetime
	// of an index; changing it requires a full reindex.
	Dimensions int

	// BatchSize is the number of texts per provider call.
	BatchSize int

	// RequestsPerSecond bounds the call rate against the provider.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || !e.Provider.SupportsEmbedding() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// WikiSettings holds wiki generation configuration.
type WikiSettings struct {
	// Provider is the summarisation service provider.
	Provider AIProvider

	// Model is the model used for summarisation.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI or Anthropic).
	APIKey string

	// MaxAttempts bounds summarisation retries per cycle.
	MaxAttempts int

	// BackoffBase is the first retry delay; it doubles per attempt.
	BackoffBase time.Duration

	// BackoffCap is the maximum retry delay.
	BackoffCap time.Duration
}

// IsConfigured returns true if the summarisation provider is set up.
func (w WikiSettings) IsConfigured() bool {
	if !w.Provider.IsValid() {
		return false
	}
	if w.Provider.RequiresAPIKey() && w.APIKey == "" {
		return false
	}
	return true
}

// IngestSettings holds ingestion pipeline configuration.
type IngestSettings struct {
	// ReingestPolicy decides reject vs preempt for concurrent requests.
	ReingestPolicy ReingestPolicy

	// Concurrency bounds parallel work within a single job.
	Concurrency int

	// FeedBatchBytes bounds the byte size of one index feed batch.
	FeedBatchBytes int

	// FeedMaxRetries bounds retries for a transiently failing batch.
	FeedMaxRetries int

	// FeedBackoffBase is the first feed retry delay.
	FeedBackoffBase time.Duration

	// MaxFileBytes is the largest file the extractor will read.
	MaxFileBytes int64

	// WindowLines and OverlapLines configure the fallback chunker.
	WindowLines  int
	OverlapLines int
}

// SearchSettings holds query-path configuration.
type SearchSettings struct {
	// TopK bounds the number of results returned.
	TopK int

	// RequireWiki gates search availability on the wiki reaching ready
	// at least once for the current commit.
	RequireWiki bool
}

// Settings holds all application settings.
type Settings struct {
	// DataDir is the root directory for clones and the metadata store.
	DataDir string

	// Server holds HTTP server settings.
	Server ServerSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// Wiki holds wiki generation settings.
	Wiki WikiSettings

	// Ingest holds ingestion pipeline settings.
	Ingest IngestSettings

	// Search holds query-path settings.
	Search SearchSettings

	// GitHubToken optionally authenticates repository resolution for
	// higher rate limits. Never required for public repositories.
	GitHubToken string
}

// DefaultSettings returns settings with the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Port: 3001,
		},
		Embedding: EmbeddingSettings{
			Provider:          AIProviderOllama,
			Model:             "nomic-embed-text",
			BaseURL:           "http://localhost:11434",
			Dimensions:        768,
			BatchSize:         32,
			RequestsPerSecond: 8,
		},
		Wiki: WikiSettings{
			Provider:    AIProviderOllama,
			Model:       "llama3.1",
			BaseURL:     "http://localhost:11434",
			MaxAttempts: 4,
			BackoffBase: 500 * time.Millisecond,
			BackoffCap:  8 * time.Second,
		},
		Ingest: IngestSettings{
			ReingestPolicy:  ReingestReject,
			Concurrency:     4,
			FeedBatchBytes:  1 << 20,
			FeedMaxRetries:  3,
			FeedBackoffBase: 250 * time.Millisecond,
			MaxFileBytes:    200_000,
			WindowLines:     80,
			OverlapLines:    10,
		},
		Search: SearchSettings{
			TopK:        20,
			RequireWiki: true,
		},
	}
}
