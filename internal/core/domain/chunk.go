package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Chunk represents a contiguous, addressable span of source code
// extracted for independent embedding and retrieval.
type Chunk struct {
	// ID is the deterministic chunk identifier. It is a function of the
	// file path and position, so re-extracting unchanged input yields
	// the same id.
	ID string

	// FilePath is the path of the source file, relative to the repo root.
	FilePath string

	// Language is the detected programming language, or "unknown".
	Language string

	// LineStart is the first line of the chunk (1-based, inclusive).
	LineStart int

	// LineEnd is the last line of the chunk (1-based, inclusive).
	LineEnd int

	// SymbolNames lists symbols defined within the chunk, in source order.
	SymbolNames []string

	// Content is the chunk text.
	Content string

	// ContentHash is the content-addressed dedup key. Chunks with the
	// same hash within a repository share one embedding.
	ContentHash string
}

// ChunkID derives the deterministic chunk identifier from the file path
// and the chunk's starting line.
func ChunkID(filePath string, lineStart int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", filePath, lineStart)))
	return hex.EncodeToString(sum[:16])
}

// HashContent computes the content-addressed hash for chunk content.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Validate checks the chunk invariants: a non-empty id and content hash,
// and 1 <= LineStart <= LineEnd.
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: empty chunk id", ErrInvalidInput)
	}
	if c.ContentHash == "" {
		return fmt.Errorf("%w: empty content hash", ErrInvalidInput)
	}
	if c.LineStart < 1 || c.LineEnd < c.LineStart {
		return fmt.Errorf("%w: bad line range %d-%d", ErrInvalidInput, c.LineStart, c.LineEnd)
	}
	return nil
}
