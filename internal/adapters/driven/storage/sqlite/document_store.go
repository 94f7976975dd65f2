package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
)

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// UpsertDocuments stores or replaces a batch of documents atomically.
func (s *documentStore) UpsertDocuments(ctx context.Context, docs []domain.IndexDocument) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (
			repo_id, chunk_id, repo_owner, repo_name, repo_url, commit_sha, branch,
			file_path, language, chunk_hash, line_start, line_end,
			symbol_names, content, embedding, last_indexed_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, chunk_id) DO UPDATE SET
			repo_owner = excluded.repo_owner,
			repo_name = excluded.repo_name,
			repo_url = excluded.repo_url,
			commit_sha = excluded.commit_sha,
			branch = excluded.branch,
			file_path = excluded.file_path,
			language = excluded.language,
			chunk_hash = excluded.chunk_hash,
			line_start = excluded.line_start,
			line_end = excluded.line_end,
			symbol_names = excluded.symbol_names,
			content = excluded.content,
			embedding = excluded.embedding,
			last_indexed_at = excluded.last_indexed_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range docs {
		doc := &docs[i]
		symbolsJSON, err := json.Marshal(doc.SymbolNames)
		if err != nil {
			return fmt.Errorf("marshalling symbol names: %w", err)
		}

		if _, err := stmt.ExecContext(ctx,
			doc.RepoID, doc.ChunkID, doc.RepoOwner, doc.RepoName, doc.RepoURL,
			doc.CommitSHA, doc.Branch, doc.FilePath, doc.Language, doc.ChunkHash,
			doc.LineStart, doc.LineEnd, string(symbolsJSON), doc.Content,
			float32SliceToBytes(doc.Embedding), doc.LastIndexedAt); err != nil {
			return fmt.Errorf("saving document %s: %w", doc.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves one document.
func (s *documentStore) GetDocument(ctx context.Context, repoID, chunkID string) (*domain.IndexDocument, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT repo_id, chunk_id, repo_owner, repo_name, repo_url, commit_sha, branch,
			file_path, language, chunk_hash, line_start, line_end,
			symbol_names, content, embedding, last_indexed_at
		FROM documents WHERE repo_id = ? AND chunk_id = ?
	`, repoID, chunkID)

	var doc domain.IndexDocument
	var symbolsJSON string
	var embeddingBlob []byte
	if err := row.Scan(&doc.RepoID, &doc.ChunkID, &doc.RepoOwner, &doc.RepoName,
		&doc.RepoURL, &doc.CommitSHA, &doc.Branch, &doc.FilePath, &doc.Language,
		&doc.ChunkHash, &doc.LineStart, &doc.LineEnd, &symbolsJSON, &doc.Content,
		&embeddingBlob, &doc.LastIndexedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if err := json.Unmarshal([]byte(symbolsJSON), &doc.SymbolNames); err != nil {
		return nil, fmt.Errorf("unmarshaling symbol names: %w", err)
	}
	doc.Embedding = bytesToFloat32Slice(embeddingBlob)

	return &doc, nil
}

// CountDocuments returns the number of documents for a repository.
func (s *documentStore) CountDocuments(ctx context.Context, repoID string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE repo_id = ?", repoID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// DeleteRepo removes all documents for a repository.
func (s *documentStore) DeleteRepo(ctx context.Context, repoID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE repo_id = ?", repoID)
	if err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	return nil
}

// WalkEmbeddings visits every stored embedding, skipping rows without one.
func (s *documentStore) WalkEmbeddings(ctx context.Context, fn func(repoID, chunkID string, embedding []float32) error) error {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT repo_id, chunk_id, embedding
		FROM documents WHERE embedding IS NOT NULL
	`)
	if err != nil {
		return fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var repoID, chunkID string
		var blob []byte
		if err := rows.Scan(&repoID, &chunkID, &blob); err != nil {
			return fmt.Errorf("scanning embedding: %w", err)
		}
		embedding := bytesToFloat32Slice(blob)
		if len(embedding) == 0 {
			continue
		}
		if err := fn(repoID, chunkID, embedding); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating embeddings: %w", err)
	}
	return nil
}

// ==================== Embedding Cache ====================

// embeddingCache implements driven.EmbeddingCache.
type embeddingCache struct {
	store *Store
}

var _ driven.EmbeddingCache = (*embeddingCache)(nil)

// Get returns cached vectors for the given hashes. Missing hashes are
// simply absent from the returned map.
func (c *embeddingCache) Get(ctx context.Context, hashes []string) (map[string][]float32, error) {
	vectors := make(map[string][]float32, len(hashes))
	if len(hashes) == 0 {
		return vectors, nil
	}

	stmt, err := c.store.db.PrepareContext(ctx,
		"SELECT embedding FROM embedding_cache WHERE content_hash = ?")
	if err != nil {
		return nil, fmt.Errorf("preparing cache lookup: %w", err)
	}
	defer stmt.Close()

	for _, hash := range hashes {
		var blob []byte
		err := stmt.QueryRowContext(ctx, hash).Scan(&blob)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading cache entry: %w", err)
		}
		vectors[hash] = bytesToFloat32Slice(blob)
	}

	return vectors, nil
}

// Put persists vectors keyed by content hash.
func (c *embeddingCache) Put(ctx context.Context, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embedding_cache (content_hash, embedding, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(content_hash) DO UPDATE SET
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing cache insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for hash, vector := range vectors {
		if _, err := stmt.ExecContext(ctx, hash, float32SliceToBytes(vector), now); err != nil {
			return fmt.Errorf("writing cache entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
