package driven

import (
	"context"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

// ChunkExtractor turns a repository working copy into a stream of
// chunks. The stream is lazy and finite; both channels are closed when
// extraction ends. Per-file extraction errors are reported on the error
// channel and do not stop the stream.
type ChunkExtractor interface {
	// Extract walks dir and emits chunks in stable order.
	Extract(ctx context.Context, dir string) (<-chan domain.Chunk, <-chan error)
}

// CodeSpan is a structural boundary found by a language capability.
type CodeSpan struct {
	// LineStart and LineEnd are 1-based inclusive.
	LineStart int
	LineEnd   int

	// Symbols lists symbols defined in the span, in source order.
	Symbols []string
}

// StructuralExtractor is a pluggable per-language capability that finds
// function/class-level boundaries. Files without a registered capability
// fall back to fixed-size windows.
type StructuralExtractor interface {
	// Languages returns the language names this capability handles,
	// as reported by language detection.
	Languages() []string

	// Spans returns structural boundaries for the file content.
	// An empty result means the caller should fall back to windowing.
	Spans(content string) ([]CodeSpan, error)
}
