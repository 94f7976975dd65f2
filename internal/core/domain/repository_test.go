package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		owner   string
		repo    string
		wantErr bool
	}{
		{name: "https", url: "https://github.com/acme/widgets", owner: "acme", repo: "widgets"},
		{name: "http", url: "http://github.com/acme/widgets", owner: "acme", repo: "widgets"},
		{name: "ssh", url: "git@github.com:acme/widgets", owner: "acme", repo: "widgets"},
		{name: "git suffix", url: "https://github.com/acme/widgets.git", owner: "acme", repo: "widgets"},
		{name: "trailing slash", url: "https://github.com/acme/widgets/", owner: "acme", repo: "widgets"},
		{name: "surrounding whitespace", url: "  https://github.com/acme/widgets  ", owner: "acme", repo: "widgets"},
		{name: "empty", url: "", wantErr: true},
		{name: "not github", url: "https://gitlab.com/acme/widgets", wantErr: true},
		{name: "missing repo", url: "https://github.com/acme", wantErr: true},
		{name: "missing owner", url: "https://github.com//widgets", wantErr: true},
		{name: "bare host", url: "https://github.com/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, name, err := ParseRepoURL(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRepoURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, name)
		})
	}
}

func TestRepoID_StableAndCaseInsensitive(t *testing.T) {
	id := RepoID("Acme", "Widgets")

	assert.Equal(t, id, RepoID("acme", "widgets"))
	assert.Equal(t, id, RepoID("ACME", "WIDGETS"))
	assert.NotEqual(t, id, RepoID("acme", "gadgets"))
	assert.Len(t, id, 24)
}

func TestNewRepository(t *testing.T) {
	repo, err := NewRepository("https://github.com/acme/widgets.git")

	require.NoError(t, err)
	assert.Equal(t, "acme", repo.Owner)
	assert.Equal(t, "widgets", repo.Name)
	assert.Equal(t, RepoID("acme", "widgets"), repo.ID)
	assert.Empty(t, repo.CommitSHA)
	assert.False(t, repo.CreatedAt.IsZero())
}
