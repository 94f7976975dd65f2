package extractor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
	"github.com/custodia-labs/codewiki/internal/extractor/boundary"
)

// --- Mock implementations ---

type stubCapability struct {
	spans []driven.CodeSpan
	err   error
}

func (s *stubCapability) Languages() []string                     { return []string{"go"} }
func (s *stubCapability) Spans(string) ([]driven.CodeSpan, error) { return s.spans, s.err }

// --- Helpers ---

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	abs := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func collect(t *testing.T, e *Extractor, dir string) ([]domain.Chunk, []error) {
	t.Helper()

	chunks, errs := e.Extract(context.Background(), dir)

	var got []domain.Chunk
	for c := range chunks {
		got = append(got, c)
	}
	var gotErrs []error
	for err := range errs {
		gotErrs = append(gotErrs, err)
	}
	return got, gotErrs
}

func numberedLines(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "line " + strings.Repeat("x", i%5+1)
	}
	return strings.Join(lines, "\n")
}

const goSource = `package calc

import "fmt"

func Add(a, b int) int {
	return a + b
}

func Sub(a, b int) int {
	return a - b
}
`

// --- Tests ---

func TestExtractor_Extract_StructuralGoFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "calc.go", goSource)

	e := New(WithCapability(boundary.New()))
	chunks, errs := collect(t, e, dir)

	require.Empty(t, errs)
	require.Len(t, chunks, 3)

	// Preamble span carries no symbols.
	assert.Equal(t, 1, chunks[0].LineStart)
	assert.Empty(t, chunks[0].SymbolNames)

	assert.Equal(t, []string{"Add"}, chunks[1].SymbolNames)
	assert.Equal(t, 5, chunks[1].LineStart)
	assert.Equal(t, []string{"Sub"}, chunks[2].SymbolNames)

	for _, c := range chunks {
		assert.Equal(t, "go", c.Language)
		assert.Equal(t, "calc.go", c.FilePath)
		assert.Equal(t, domain.ChunkID("calc.go", c.LineStart), c.ID)
		assert.Equal(t, domain.HashContent(c.Content), c.ContentHash)
	}
}

func TestExtractor_Extract_WindowFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", numberedLines(25))

	e := New(WithWindowLines(10), WithOverlapLines(2))
	chunks, errs := collect(t, e, dir)

	require.Empty(t, errs)
	require.Len(t, chunks, 3)

	assert.Equal(t, 1, chunks[0].LineStart)
	assert.Equal(t, 10, chunks[0].LineEnd)
	assert.Equal(t, 9, chunks[1].LineStart)
	assert.Equal(t, 18, chunks[1].LineEnd)
	assert.Equal(t, 17, chunks[2].LineStart)
	assert.Equal(t, 25, chunks[2].LineEnd)
}

func TestExtractor_Extract_InvalidStructuralSpansFallBack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "calc.go", goSource)

	// LineEnd past the end of the file invalidates the structural result.
	cap := &stubCapability{spans: []driven.CodeSpan{{LineStart: 1, LineEnd: 10_000}}}
	e := New(WithCapability(cap), WithWindowLines(100))

	chunks, errs := collect(t, e, dir)

	require.Empty(t, errs)
	require.Len(t, chunks, 1)
	assert.Empty(t, chunks[0].SymbolNames)
}

func TestExtractor_Extract_CapabilityErrorFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "calc.go", goSource)

	cap := &stubCapability{err: assert.AnError}
	e := New(WithCapability(cap), WithWindowLines(100))

	chunks, errs := collect(t, e, dir)

	require.Empty(t, errs)
	require.Len(t, chunks, 1)
}

func TestExtractor_Extract_SkipsBinaryEmptyAndOversized(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bin.dat", "ok\x00not text")
	writeFile(t, dir, "empty.txt", "")
	writeFile(t, dir, "big.txt", numberedLines(200))

	e := New(WithMaxFileBytes(64))
	chunks, errs := collect(t, e, dir)

	require.Empty(t, errs)
	assert.Empty(t, chunks)
}

func TestExtractor_Extract_PrunesVendoredDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".git/config", "[core]")
	writeFile(t, dir, "node_modules/pkg/index.js", "module.exports = 1")
	writeFile(t, dir, "vendor/dep/dep.go", "package dep")
	writeFile(t, dir, "main.txt", "hello")

	e := New()
	chunks, errs := collect(t, e, dir)

	require.Empty(t, errs)
	require.Len(t, chunks, 1)
	assert.Equal(t, "main.txt", chunks[0].FilePath)
}

func TestExtractor_Extract_FilesInSortedOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "beta")
	writeFile(t, dir, "a.txt", "alpha")
	writeFile(t, dir, "sub/c.txt", "gamma")

	e := New()
	chunks, errs := collect(t, e, dir)

	require.Empty(t, errs)
	require.Len(t, chunks, 3)
	assert.Equal(t, "a.txt", chunks[0].FilePath)
	assert.Equal(t, "b.txt", chunks[1].FilePath)
	assert.Equal(t, filepath.Join("sub", "c.txt"), chunks[2].FilePath)
}

func TestExtractor_Extract_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "alpha")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chunks, errs := New().Extract(ctx, dir)
	for range chunks {
	}

	var got []error
	for err := range errs {
		got = append(got, err)
	}
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0], context.Canceled)
}

func TestWindowSpans(t *testing.T) {
	t.Run("covers all lines with overlap", func(t *testing.T) {
		spans := windowSpans(100, 80, 10)
		require.Len(t, spans, 2)
		assert.Equal(t, driven.CodeSpan{LineStart: 1, LineEnd: 80}, spans[0])
		assert.Equal(t, driven.CodeSpan{LineStart: 71, LineEnd: 100}, spans[1])
	})

	t.Run("single window for short files", func(t *testing.T) {
		spans := windowSpans(5, 80, 10)
		require.Len(t, spans, 1)
		assert.Equal(t, driven.CodeSpan{LineStart: 1, LineEnd: 5}, spans[0])
	})

	t.Run("step never below one", func(t *testing.T) {
		spans := windowSpans(3, 2, 5)
		assert.NotEmpty(t, spans)
		assert.Equal(t, 3, spans[len(spans)-1].LineEnd)
	})

	t.Run("no lines no spans", func(t *testing.T) {
		assert.Nil(t, windowSpans(0, 80, 10))
	})
}
