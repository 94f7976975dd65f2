// Package file loads and persists settings as TOML on disk.
//
// Defaults are applied first, then the config file, then environment
// variables, so an operator can override any file value without
// touching it.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

// configFileName is the settings file within the config directory.
const configFileName = "config.toml"

// Store reads and writes the settings file.
type Store struct {
	path string
}

// NewStore creates a settings store rooted at configDir. If configDir
// is empty, defaults to ~/.codewiki.
func NewStore(configDir string) (*Store, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".codewiki")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	return &Store{path: filepath.Join(configDir, configFileName)}, nil
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// fileConfig is the TOML shape of the settings file. Durations are
// strings ("500ms", "8s") since TOML has no duration type.
type fileConfig struct {
	DataDir     string `toml:"data_dir,omitempty"`
	GitHubToken string `toml:"github_token,omitempty"`

	Server struct {
		Port int `toml:"port,omitempty"`
	} `toml:"server,omitempty"`

	Embedding struct {
		Provider          string  `toml:"provider,omitempty"`
		Model             string  `toml:"model,omitempty"`
		BaseURL           string  `toml:"base_url,omitempty"`
		APIKey            string  `toml:"api_key,omitempty"`
		Dimensions        int     `toml:"dimensions,omitempty"`
		BatchSize         int     `toml:"batch_size,omitempty"`
		RequestsPerSecond float64 `toml:"requests_per_second,omitempty"`
	} `toml:"embedding,omitempty"`

	Wiki struct {
		Provider    string `toml:"provider,omitempty"`
		Model       string `toml:"model,omitempty"`
		BaseURL     string `toml:"base_url,omitempty"`
		APIKey      string `toml:"api_key,omitempty"`
		MaxAttempts int    `toml:"max_attempts,omitempty"`
		BackoffBase string `toml:"backoff_base,omitempty"`
		BackoffCap  string `toml:"backoff_cap,omitempty"`
	} `toml:"wiki,omitempty"`

	Ingest struct {
		ReingestPolicy  string `toml:"reingest_policy,omitempty"`
		Concurrency     int    `toml:"concurrency,omitempty"`
		FeedBatchBytes  int    `toml:"feed_batch_bytes,omitempty"`
		FeedMaxRetries  int    `toml:"feed_max_retries,omitempty"`
		FeedBackoffBase string `toml:"feed_backoff_base,omitempty"`
		MaxFileBytes    int64  `toml:"max_file_bytes,omitempty"`
		WindowLines     int    `toml:"window_lines,omitempty"`
		OverlapLines    int    `toml:"overlap_lines,omitempty"`
	} `toml:"ingest,omitempty"`

	Search struct {
		TopK        int   `toml:"top_k,omitempty"`
		RequireWiki *bool `toml:"require_wiki,omitempty"`
	} `toml:"search,omitempty"`
}

// Load returns settings assembled from defaults, the config file, and
// environment overrides. A missing file is not an error.
func (s *Store) Load() (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	raw, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if len(raw) > 0 {
		var cfg fileConfig
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", s.path, err)
		}
		if err := applyFile(&settings, &cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(&settings)
	return &settings, nil
}

// Save writes the settings back to the config file.
func (s *Store) Save(settings *domain.Settings) error {
	var cfg fileConfig
	cfg.DataDir = settings.DataDir
	cfg.GitHubToken = settings.GitHubToken
	cfg.Server.Port = settings.Server.Port

	cfg.Embedding.Provider = settings.Embedding.Provider.String()
	cfg.Embedding.Model = settings.Embedding.Model
	cfg.Embedding.BaseURL = settings.Embedding.BaseURL
	cfg.Embedding.APIKey = settings.Embedding.APIKey
	cfg.Embedding.Dimensions = settings.Embedding.Dimensions
	cfg.Embedding.BatchSize = settings.Embedding.BatchSize
	cfg.Embedding.RequestsPerSecond = settings.Embedding.RequestsPerSecond

	cfg.Wiki.Provider = settings.Wiki.Provider.String()
	cfg.Wiki.Model = settings.Wiki.Model
	cfg.Wiki.BaseURL = settings.Wiki.BaseURL
	cfg.Wiki.APIKey = settings.Wiki.APIKey
	cfg.Wiki.MaxAttempts = settings.Wiki.MaxAttempts
	cfg.Wiki.BackoffBase = settings.Wiki.BackoffBase.String()
	cfg.Wiki.BackoffCap = settings.Wiki.BackoffCap.String()

	cfg.Ingest.ReingestPolicy = string(settings.Ingest.ReingestPolicy)
	cfg.Ingest.Concurrency = settings.Ingest.Concurrency
	cfg.Ingest.FeedBatchBytes = settings.Ingest.FeedBatchBytes
	cfg.Ingest.FeedMaxRetries = settings.Ingest.FeedMaxRetries
	cfg.Ingest.FeedBackoffBase = settings.Ingest.FeedBackoffBase.String()
	cfg.Ingest.MaxFileBytes = settings.Ingest.MaxFileBytes
	cfg.Ingest.WindowLines = settings.Ingest.WindowLines
	cfg.Ingest.OverlapLines = settings.Ingest.OverlapLines

	cfg.Search.TopK = settings.Search.TopK
	requireWiki := settings.Search.RequireWiki
	cfg.Search.RequireWiki = &requireWiki

	raw, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := os.WriteFile(s.path, raw, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// applyFile copies non-zero file values onto the settings.
func applyFile(settings *domain.Settings, cfg *fileConfig) error {
	if cfg.DataDir != "" {
		settings.DataDir = cfg.DataDir
	}
	if cfg.GitHubToken != "" {
		settings.GitHubToken = cfg.GitHubToken
	}
	if cfg.Server.Port != 0 {
		settings.Server.Port = cfg.Server.Port
	}

	if cfg.Embedding.Provider != "" {
		settings.Embedding.Provider = domain.AIProvider(cfg.Embedding.Provider)
	}
	if cfg.Embedding.Model != "" {
		settings.Embedding.Model = cfg.Embedding.Model
	}
	if cfg.Embedding.BaseURL != "" {
		settings.Embedding.BaseURL = cfg.Embedding.BaseURL
	}
	if cfg.Embedding.APIKey != "" {
		settings.Embedding.APIKey = cfg.Embedding.APIKey
	}
	if cfg.Embedding.Dimensions != 0 {
		settings.Embedding.Dimensions = cfg.Embedding.Dimensions
	}
	if cfg.Embedding.BatchSize != 0 {
		settings.Embedding.BatchSize = cfg.Embedding.BatchSize
	}
	if cfg.Embedding.RequestsPerSecond != 0 {
		settings.Embedding.RequestsPerSecond = cfg.Embedding.RequestsPerSecond
	}

	if cfg.Wiki.Provider != "" {
		settings.Wiki.Provider = domain.AIProvider(cfg.Wiki.Provider)
	}
	if cfg.Wiki.Model != "" {
		settings.Wiki.Model = cfg.Wiki.Model
	}
	if cfg.Wiki.BaseURL != "" {
		settings.Wiki.BaseURL = cfg.Wiki.BaseURL
	}
	if cfg.Wiki.APIKey != "" {
		settings.Wiki.APIKey = cfg.Wiki.APIKey
	}
	if cfg.Wiki.MaxAttempts != 0 {
		settings.Wiki.MaxAttempts = cfg.Wiki.MaxAttempts
	}
	if err := parseDuration(cfg.Wiki.BackoffBase, &settings.Wiki.BackoffBase); err != nil {
		return fmt.Errorf("wiki.backoff_base: %w", err)
	}
	if err := parseDuration(cfg.Wiki.BackoffCap, &settings.Wiki.BackoffCap); err != nil {
		return fmt.Errorf("wiki.backoff_cap: %w", err)
	}

	if cfg.Ingest.ReingestPolicy != "" {
		settings.Ingest.ReingestPolicy = domain.ReingestPolicy(cfg.Ingest.ReingestPolicy)
	}
	if cfg.Ingest.Concurrency != 0 {
		settings.Ingest.Concurrency = cfg.Ingest.Concurrency
	}
	if cfg.Ingest.FeedBatchBytes != 0 {
		settings.Ingest.FeedBatchBytes = cfg.Ingest.FeedBatchBytes
	}
	if cfg.Ingest.FeedMaxRetries != 0 {
		settings.Ingest.FeedMaxRetries = cfg.Ingest.FeedMaxRetries
	}
	if err := parseDuration(cfg.Ingest.FeedBackoffBase, &settings.Ingest.FeedBackoffBase); err != nil {
		return fmt.Errorf("ingest.feed_backoff_base: %w", err)
	}
	if cfg.Ingest.MaxFileBytes != 0 {
		settings.Ingest.MaxFileBytes = cfg.Ingest.MaxFileBytes
	}
	if cfg.Ingest.WindowLines != 0 {
		settings.Ingest.WindowLines = cfg.Ingest.WindowLines
	}
	if cfg.Ingest.OverlapLines != 0 {
		settings.Ingest.OverlapLines = cfg.Ingest.OverlapLines
	}

	if cfg.Search.TopK != 0 {
		settings.Search.TopK = cfg.Search.TopK
	}
	if cfg.Search.RequireWiki != nil {
		settings.Search.RequireWiki = *cfg.Search.RequireWiki
	}

	return nil
}

// applyEnv copies environment overrides onto the settings. Only the
// operationally useful knobs are exposed this way; everything else
// lives in the file.
func applyEnv(settings *domain.Settings) {
	if v := os.Getenv("CODEWIKI_DATA_DIR"); v != "" {
		settings.DataDir = v
	}
	if v := os.Getenv("CODEWIKI_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			settings.Server.Port = port
		}
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		settings.GitHubToken = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if settings.Embedding.Provider == domain.AIProviderOpenAI && settings.Embedding.APIKey == "" {
			settings.Embedding.APIKey = v
		}
		if settings.Wiki.Provider == domain.AIProviderOpenAI && settings.Wiki.APIKey == "" {
			settings.Wiki.APIKey = v
		}
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		if settings.Wiki.Provider == domain.AIProviderAnthropic && settings.Wiki.APIKey == "" {
			settings.Wiki.APIKey = v
		}
	}
	if v := os.Getenv("CODEWIKI_OLLAMA_URL"); v != "" {
		if settings.Embedding.Provider == domain.AIProviderOllama {
			settings.Embedding.BaseURL = v
		}
		if settings.Wiki.Provider == domain.AIProviderOllama {
			settings.Wiki.BaseURL = v
		}
	}
}

// parseDuration parses a non-empty duration string into dst.
func parseDuration(raw string, dst *time.Duration) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
