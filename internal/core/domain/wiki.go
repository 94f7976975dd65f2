package domain

import "time"

// WikiState describes the wiki generation state machine for a repository.
type WikiState string

// Wiki generation states.
const (
	// WikiStatePending means generation has not started for the current commit.
	WikiStatePending WikiState = "pending"

	// WikiStateGenerating means a summarisation call is in flight.
	WikiStateGenerating WikiState = "generating"

	// WikiStateReady means at least one artifact exists for the current commit.
	WikiStateReady WikiState = "ready"

	// WikiStateFailed means generation exhausted its retry budget.
	WikiStateFailed WikiState = "failed"
)

// IsValid returns true if the wiki state is recognised.
func (s WikiState) IsValid() bool {
	switch s {
	case WikiStatePending, WikiStateGenerating, WikiStateReady, WikiStateFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for ready and failed.
func (s WikiState) IsTerminal() bool {
	return s == WikiStateReady || s == WikiStateFailed
}

// WikiArtifact is one generated repository summary. History is
// append-only: a regeneration appends a new version, the current head is
// always the highest version.
type WikiArtifact struct {
	// RepoID identifies the repository.
	RepoID string

	// Version increases monotonically per repository, starting at 1.
	Version int

	// Summary is the short narrative summary.
	Summary string

	// LongSummary is the extended narrative summary.
	LongSummary string

	// CommitSHA is the commit the artifact was generated for.
	CommitSHA string

	// CreatedAt is when the artifact was generated.
	CreatedAt time.Time
}

// WikiStatus is the live wiki state for a repository.
type WikiStatus struct {
	// RepoID identifies the repository.
	RepoID string

	// State is the current generation state.
	State WikiState

	// CommitSHA is the commit generation was last attempted for.
	CommitSHA string

	// Attempts counts summarisation calls made for the current cycle.
	Attempts int

	// LastError holds the most recent failure, if any.
	LastError string

	// UpdatedAt is when the state last changed.
	UpdatedAt time.Time
}

// RepoContext carries the repository material handed to the summariser.
type RepoContext struct {
	// Owner and Name identify the repository.
	Owner string
	Name  string

	// CommitSHA is the commit being summarised.
	CommitSHA string

	// FileTree lists file paths in the working copy.
	FileTree []string

	// Languages maps language name to file count.
	Languages map[string]int

	// ReadmeContent is the repository README, if one exists.
	ReadmeContent string
}
