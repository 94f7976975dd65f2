package domain

import "strings"

const unknownDescription = "Unknown"

// SnippetMaxChars bounds the snippet length returned in search results.
const SnippetMaxChars = 400

// SearchMode defines how search operations combine retrieval methods.
type SearchMode string

// Available search modes.
const (
	// SearchModeFast blends vector similarity with lexical relevance.
	SearchModeFast SearchMode = "fast"

	// SearchModeDeep uses vector similarity alone.
	SearchModeDeep SearchMode = "deep"
)

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeFast, SearchModeDeep:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m SearchMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeFast:
		return "Fast (hybrid lexical + semantic)"
	case SearchModeDeep:
		return "Deep (semantic only)"
	default:
		return unknownDescription
	}
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// RepoFilter scopes results to one repository id. Empty searches
	// the full corpus.
	RepoFilter string

	// Mode selects the retrieval strategy. Defaults to fast.
	Mode SearchMode

	// Limit is the maximum number of results. Zero uses the default.
	Limit int
}

// SearchResult represents a single ranked hit.
type SearchResult struct {
	// RepoID identifies the repository the hit came from.
	RepoID string

	// FilePath is the source file, relative to the repo root.
	FilePath string

	// LineStart and LineEnd are the 1-based inclusive line range.
	LineStart int
	LineEnd   int

	// Snippet is the chunk content trimmed to SnippetMaxChars.
	Snippet string

	// Score is the combined relevance score, descending.
	Score float64
}

// MakeSnippet trims content to the snippet bound.
func MakeSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) <= SnippetMaxChars {
		return trimmed
	}
	return trimmed[:SnippetMaxChars] + "..."
}
