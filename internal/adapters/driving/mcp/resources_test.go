package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWikiURI(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		repoID string
		ok     bool
	}{
		{"valid", "codewiki://repos/abc123/wiki", "abc123", true},
		{"wrong scheme", "https://repos/abc123/wiki", "", false},
		{"missing suffix", "codewiki://repos/abc123", "", false},
		{"empty repo id", "codewiki://repos//wiki", "", false},
		{"nested path", "codewiki://repos/a/b/wiki", "", false},
		{"repo list uri", "codewiki://repos", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repoID, ok := parseWikiURI(tt.uri)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.repoID, repoID)
		})
	}
}
