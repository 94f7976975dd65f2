package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRepoURL indicates a repository URL that is not a
	// supported public GitHub URL. Rejected before any job starts.
	ErrInvalidRepoURL = errors.New("invalid repository URL")

	// ErrIngestionInProgress indicates an ingestion job is already
	// running for the repository. A second index request is rejected
	// unless the queueing policy is enabled.
	ErrIngestionInProgress = errors.New("ingestion already in progress")

	// ErrCloneFailed indicates the repository could not be cloned.
	// Clone failures are fatal for the job and are not retried.
	ErrCloneFailed = errors.New("clone failed")

	// ErrEmbeddingProvider indicates the embedding provider rejected a
	// batch after retries were exhausted. Fatal for the ingestion job:
	// missing vectors would corrupt ranking.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrWikiGeneration indicates wiki generation exhausted its retry
	// budget. The wiki is marked failed but ingestion continues.
	ErrWikiGeneration = errors.New("wiki generation failed")

	// ErrIndexFeed indicates the document store rejected a batch after
	// retries were exhausted.
	ErrIndexFeed = errors.New("index feed failed")

	// ErrDocumentRejected indicates a single document failed schema
	// validation. Skipped per document, never fatal to the batch.
	ErrDocumentRejected = errors.New("document rejected")

	// ErrWikiNotReady indicates search is gated on the wiki reaching
	// ready at least once for the current commit.
	ErrWikiNotReady = errors.New("wiki not ready")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Vector/semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSearchUnavailable indicates the lexical search engine is not configured.
	ErrSearchUnavailable = errors.New("search engine unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrSummariserUnavailable indicates the summarisation service is not
	// configured. Wiki generation is disabled without it.
	ErrSummariserUnavailable = errors.New("summariser unavailable")

	// ErrJobCancelled indicates an ingestion job was preempted by a
	// re-ingestion request before it completed.
	ErrJobCancelled = errors.New("ingestion job cancelled")
)
