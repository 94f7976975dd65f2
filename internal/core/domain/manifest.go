package domain

import "time"

// CurrentSchemaVersion is the index schema generation. Bumping it forces
// a full reindex on next ingestion.
const CurrentSchemaVersion = 1

// Manifest records what was indexed for one (repository, commit)
// generation. Manifests are superseded by newer generations, never
// mutated in place.
type Manifest struct {
	// RepoID identifies the repository.
	RepoID string

	// CommitSHA is the commit this generation was built from.
	CommitSHA string

	// Branch is the branch the commit was resolved on.
	Branch string

	// SchemaVersion is the index schema the documents were written with.
	SchemaVersion int

	// ChunkCount is the number of chunks fed for this generation.
	ChunkCount int

	// IndexedAt is when the generation completed.
	IndexedAt time.Time
}
