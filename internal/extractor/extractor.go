// Package extractor turns a repository working copy into a stream of
// code chunks. Files with a registered structural capability are split
// on function/class boundaries; everything else falls back to
// fixed-size line windows with overlap, so no text file is skipped.
package extractor

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
	"github.com/custodia-labs/codewiki/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.ChunkExtractor = (*Extractor)(nil)

// Default extraction parameters.
const (
	// DefaultWindowLines is the fallback window size in lines.
	DefaultWindowLines = 80

	// DefaultOverlapLines is the overlap between adjacent windows.
	DefaultOverlapLines = 10

	// DefaultMaxFileBytes is the largest file the extractor will read.
	DefaultMaxFileBytes = 200_000
)

// skipDirs are directory names that never produce chunks.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	"dist":         true,
	"build":        true,
	".next":        true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"vendor":       true,
}

// Extractor walks a working copy and emits chunks.
type Extractor struct {
	registry     map[string]driven.StructuralExtractor
	windowLines  int
	overlapLines int
	maxFileBytes int64
}

// Option configures the extractor.
type Option func(*Extractor)

// WithWindowLines sets the fallback window size in lines.
func WithWindowLines(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.windowLines = n
		}
	}
}

// WithOverlapLines sets the overlap between windows in lines.
func WithOverlapLines(n int) Option {
	return func(e *Extractor) {
		if n >= 0 {
			e.overlapLines = n
		}
	}
}

// WithMaxFileBytes sets the largest file size the extractor will read.
func WithMaxFileBytes(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxFileBytes = n
		}
	}
}

// WithCapability registers a structural extractor for its languages.
// Later registrations win on language collisions.
func WithCapability(cap driven.StructuralExtractor) Option {
	return func(e *Extractor) {
		for _, lang := range cap.Languages() {
			e.registry[strings.ToLower(lang)] = cap
		}
	}
}

// New creates an extractor with the given options.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		registry:     make(map[string]driven.StructuralExtractor),
		windowLines:  DefaultWindowLines,
		overlapLines: DefaultOverlapLines,
		maxFileBytes: DefaultMaxFileBytes,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.overlapLines >= e.windowLines {
		e.overlapLines = e.windowLines / 4
	}

	return e
}

// Extract walks dir and emits chunks in stable order: files are visited
// in sorted path order, chunks within a file in source order. Per-file
// errors go to the error channel and do not stop the stream.
func (e *Extractor) Extract(ctx context.Context, dir string) (<-chan domain.Chunk, <-chan error) {
	chunks := make(chan domain.Chunk)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		files, err := e.listFiles(dir)
		if err != nil {
			errs <- err
			return
		}

		for _, rel := range files {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			default:
			}

			for _, chunk := range e.extractFile(dir, rel) {
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
		}
	}()

	return chunks, errs
}

// listFiles collects candidate file paths relative to dir, sorted.
// Vendored and build directories are pruned during the walk.
func (e *Extractor) listFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			logger.Debug("extract: skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil || rel == "." {
			return nil
		}

		if d.IsDir() {
			if skipDirs[d.Name()] || enry.IsVendor(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if enry.IsVendor(rel) {
			return nil
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// extractFile produces the chunks for one file. Binary, oversized and
// empty files produce no chunks and no errors.
func (e *Extractor) extractFile(dir, rel string) []domain.Chunk {
	abs := filepath.Join(dir, rel)

	info, err := os.Stat(abs)
	if err != nil || info.Size() == 0 || info.Size() > e.maxFileBytes {
		return nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		logger.Debug("extract: read %s: %v", rel, err)
		return nil
	}

	if enry.IsBinary(data) || bytes.IndexByte(data, 0) >= 0 {
		return nil
	}

	language := strings.ToLower(enry.GetLanguage(filepath.Base(rel), data))
	if language == "" {
		language = "unknown"
	}

	content := string(data)
	lines := strings.Split(content, "\n")

	spans := e.structuralSpans(language, content, len(lines))
	if len(spans) == 0 {
		spans = windowSpans(len(lines), e.windowLines, e.overlapLines)
	}

	chunks := make([]domain.Chunk, 0, len(spans))
	for _, span := range spans {
		text := strings.Join(lines[span.LineStart-1:span.LineEnd], "\n")
		if strings.TrimSpace(text) == "" {
			continue
		}

		chunks = append(chunks, domain.Chunk{
			ID:          domain.ChunkID(rel, span.LineStart),
			FilePath:    rel,
			Language:    language,
			LineStart:   span.LineStart,
			LineEnd:     span.LineEnd,
			SymbolNames: span.Symbols,
			Content:     text,
			ContentHash: domain.HashContent(text),
		})
	}

	return chunks
}

// structuralSpans asks the registered capability for boundaries.
// A missing capability, a capability error, or an empty result all mean
// "use the window fallback".
func (e *Extractor) structuralSpans(language, content string, lineCount int) []driven.CodeSpan {
	cap, ok := e.registry[language]
	if !ok {
		return nil
	}

	spans, err := cap.Spans(content)
	if err != nil {
		logger.Debug("extract: structural %s failed: %v", language, err)
		return nil
	}

	// Reject spans that do not respect the line invariants; a single
	// bad span invalidates the structural result for the file.
	for _, s := range spans {
		if s.LineStart < 1 || s.LineEnd < s.LineStart || s.LineEnd > lineCount {
			return nil
		}
	}

	return spans
}

// windowSpans covers lineCount lines with fixed windows and overlap.
func windowSpans(lineCount, window, overlap int) []driven.CodeSpan {
	if lineCount <= 0 {
		return nil
	}

	step := window - overlap
	if step < 1 {
		step = 1
	}

	var spans []driven.CodeSpan
	for start := 0; start < lineCount; start += step {
		end := start + window
		if end > lineCount {
			end = lineCount
		}
		spans = append(spans, driven.CodeSpan{LineStart: start + 1, LineEnd: end})
		if end == lineCount {
			break
		}
	}

	return spans
}
