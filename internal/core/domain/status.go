package domain

import "time"

// Stage identifies a step of the ingestion pipeline.
type Stage string

// Ingestion pipeline stages, in order.
const (
	StageRegistered  Stage = "registered"
	StageCloning     Stage = "cloning"
	StageChunking    Stage = "chunking"
	StageEmbedding   Stage = "embedding"
	StageWikiPending Stage = "wiki_pending"
	StageIndexing    Stage = "indexing"
	StageComplete    Stage = "complete"
	StageError       Stage = "error"
)

// stageOrder maps each stage to its position in the pipeline.
// Error is terminal and reachable from any non-terminal stage.
var stageOrder = map[Stage]int{
	StageRegistered:  0,
	StageCloning:     1,
	StageChunking:    2,
	StageEmbedding:   3,
	StageWikiPending: 4,
	StageIndexing:    5,
	StageComplete:    6,
}

// IsValid returns true if the stage is recognised.
func (s Stage) IsValid() bool {
	if s == StageError {
		return true
	}
	_, ok := stageOrder[s]
	return ok
}

// IsTerminal returns true for complete and error.
func (s Stage) IsTerminal() bool {
	return s == StageComplete || s == StageError
}

// CanAdvanceTo reports whether a transition from s to next is legal.
// Transitions are strictly forward; error is reachable from any
// non-terminal stage; re-ingestion restarts from cloning, which is the
// only backward move and only allowed from a terminal stage.
func (s Stage) CanAdvanceTo(next Stage) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if next == StageError {
		return !s.IsTerminal()
	}
	if s.IsTerminal() {
		// Explicit re-ingestion restarts the machine.
		return next == StageCloning
	}
	return stageOrder[next] > stageOrder[s]
}

// IngestionStatus is the live pipeline state for one repository.
// Exactly one status exists per repository; it is overwritten in place
// as the pipeline advances.
type IngestionStatus struct {
	// RepoID identifies the repository.
	RepoID string

	// Stage is the current pipeline stage.
	Stage Stage

	// Message is a human-readable description of the current step.
	Message string

	// Error holds the failure detail when Stage is error.
	Error string

	// Progress is an optional completion fraction in [0, 1].
	// Negative when unknown.
	Progress float64

	// Generation identifies the ingestion job that produced this status.
	Generation string

	// UpdatedAt is when the status last changed.
	UpdatedAt time.Time
}
