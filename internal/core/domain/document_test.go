package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validDocument() IndexDocument {
	return IndexDocument{
		RepoID:    "repo-1",
		ChunkID:   "chunk-1",
		FilePath:  "pkg/a.go",
		ChunkHash: HashContent("package a"),
		LineStart: 1,
		LineEnd:   10,
		Content:   "package a",
		Embedding: []float32{1, 0, 0, 0},
	}
}

func TestIndexDocument_Key(t *testing.T) {
	doc := validDocument()
	assert.Equal(t, "repo-1/chunk-1", doc.Key())
}

func TestIndexDocument_Validate(t *testing.T) {
	doc := validDocument()
	assert.NoError(t, doc.Validate(4))

	// Zero dimensions skips the embedding check.
	doc.Embedding = nil
	assert.NoError(t, doc.Validate(0))
}

func TestIndexDocument_Validate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*IndexDocument)
		dims   int
	}{
		{name: "missing repo id", mutate: func(d *IndexDocument) { d.RepoID = "" }},
		{name: "missing chunk id", mutate: func(d *IndexDocument) { d.ChunkID = "" }},
		{name: "missing file path", mutate: func(d *IndexDocument) { d.FilePath = "" }},
		{name: "missing hash", mutate: func(d *IndexDocument) { d.ChunkHash = "" }},
		{name: "zero line start", mutate: func(d *IndexDocument) { d.LineStart = 0 }},
		{name: "inverted range", mutate: func(d *IndexDocument) { d.LineStart = 10; d.LineEnd = 5 }},
		{name: "wrong dimension", mutate: func(d *IndexDocument) { d.Embedding = []float32{1} }, dims: 4},
		{name: "missing embedding", mutate: func(d *IndexDocument) { d.Embedding = nil }, dims: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDocument()
			tt.mutate(&doc)
			dims := tt.dims
			if dims == 0 {
				dims = 4
			}
			assert.ErrorIs(t, doc.Validate(dims), ErrDocumentRejected)
		})
	}
}

func TestMakeSnippet(t *testing.T) {
	assert.Equal(t, "short", MakeSnippet("  short \n"))

	long := strings.Repeat("x", SnippetMaxChars+100)
	snippet := MakeSnippet(long)
	assert.Len(t, snippet, SnippetMaxChars+3)
	assert.True(t, strings.HasSuffix(snippet, "..."))
}

func TestSearchMode(t *testing.T) {
	assert.True(t, SearchModeFast.IsValid())
	assert.True(t, SearchModeDeep.IsValid())
	assert.False(t, SearchMode("turbo").IsValid())
	assert.False(t, SearchMode("").IsValid())
}
