package domain

import (
	"fmt"
	"time"
)

// IndexDocument is the unit written to the document store: the union of
// chunk fields, the embedding, and repository metadata. Upserts are
// keyed by (RepoID, ChunkID); re-feeding the same key replaces the
// stored document.
type IndexDocument struct {
	// RepoID identifies the repository.
	RepoID string

	// RepoOwner and RepoName are the repository identity fields.
	RepoOwner string
	RepoName  string

	// RepoURL is the canonical clone URL.
	RepoURL string

	// CommitSHA and Branch identify the indexed generation.
	CommitSHA string
	Branch    string

	// FilePath is the chunk's source file, relative to the repo root.
	FilePath string

	// Language is the detected programming language.
	Language string

	// ChunkID is the deterministic chunk identifier.
	ChunkID string

	// ChunkHash is the chunk's content hash (dedup key).
	ChunkHash string

	// LineStart and LineEnd are the 1-based inclusive line range.
	LineStart int
	LineEnd   int

	// SymbolNames lists symbols defined within the chunk.
	SymbolNames []string

	// Content is the chunk text.
	Content string

	// Embedding is the fixed-dimension vector for the chunk content.
	Embedding []float32

	// LastIndexedAt is when the document was fed.
	LastIndexedAt time.Time
}

// Key returns the upsert key for the document store.
func (d *IndexDocument) Key() string {
	return d.RepoID + "/" + d.ChunkID
}

// Validate performs the deterministic schema check a store would apply.
// dimensions is the index's fixed embedding dimension; zero skips the
// dimension check.
func (d *IndexDocument) Validate(dimensions int) error {
	if d.RepoID == "" || d.ChunkID == "" {
		return fmt.Errorf("%w: missing key fields", ErrDocumentRejected)
	}
	if d.FilePath == "" {
		return fmt.Errorf("%w: missing file path", ErrDocumentRejected)
	}
	if d.LineStart < 1 || d.LineEnd < d.LineStart {
		return fmt.Errorf("%w: bad line range %d-%d", ErrDocumentRejected, d.LineStart, d.LineEnd)
	}
	if d.ChunkHash == "" {
		return fmt.Errorf("%w: missing content hash", ErrDocumentRejected)
	}
	if dimensions > 0 && len(d.Embedding) != dimensions {
		return fmt.Errorf("%w: embedding dimension %d, index expects %d",
			ErrDocumentRejected, len(d.Embedding), dimensions)
	}
	return nil
}
