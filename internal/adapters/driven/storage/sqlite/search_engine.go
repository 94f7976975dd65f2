package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
)

// searchEngine implements driven.SearchEngine on an FTS5 virtual table.
// bm25() returns lower-is-better values; scores are negated so callers
// see higher-is-better.
type searchEngine struct {
	store *Store
}

var _ driven.SearchEngine = (*searchEngine)(nil)

// Index adds or updates a document in the search index.
func (e *searchEngine) Index(ctx context.Context, doc domain.IndexDocument) error {
	tx, err := e.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// FTS5 has no upsert; delete-then-insert keeps the index in step
	// with idempotent document upserts.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM documents_fts WHERE repo_id = ? AND chunk_id = ?",
		doc.RepoID, doc.ChunkID); err != nil {
		return fmt.Errorf("clearing index entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents_fts (repo_id, chunk_id, file_path, symbols, content)
		VALUES (?, ?, ?, ?, ?)
	`, doc.RepoID, doc.ChunkID, doc.FilePath,
		strings.Join(doc.SymbolNames, " "), doc.Content); err != nil {
		return fmt.Errorf("indexing document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Delete removes a document from the search index.
func (e *searchEngine) Delete(ctx context.Context, repoID, chunkID string) error {
	_, err := e.store.db.ExecContext(ctx,
		"DELETE FROM documents_fts WHERE repo_id = ? AND chunk_id = ?", repoID, chunkID)
	if err != nil {
		return fmt.Errorf("deleting index entry: %w", err)
	}
	return nil
}

// DeleteRepo removes all index entries for a repository.
func (e *searchEngine) DeleteRepo(ctx context.Context, repoID string) error {
	_, err := e.store.db.ExecContext(ctx,
		"DELETE FROM documents_fts WHERE repo_id = ?", repoID)
	if err != nil {
		return fmt.Errorf("deleting index entries: %w", err)
	}
	return nil
}

// Search performs a BM25 keyword search. Column weights favour symbol
// and path matches over body matches.
func (e *searchEngine) Search(ctx context.Context, query string, limit int, repoFilter string) ([]driven.SearchHit, error) {
	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	sqlQuery := `
		SELECT repo_id, chunk_id, -bm25(documents_fts, 0.0, 0.0, 3.0, 4.0, 1.0) AS score
		FROM documents_fts
		WHERE documents_fts MATCH ?`
	args := []any{match}
	if repoFilter != "" {
		sqlQuery += " AND repo_id = ?"
		args = append(args, repoFilter)
	}
	sqlQuery += " ORDER BY score DESC LIMIT ?"
	args = append(args, limit)

	rows, err := e.store.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var hits []driven.SearchHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit driven.SearchHit
		if err := rows.Scan(&hit.RepoID, &hit.ChunkID, &hit.Score); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}
	return hits, nil
}

// Close is a no-op; the index shares the store's connection.
func (e *searchEngine) Close() error {
	return nil
}

// buildMatchQuery turns free text into an FTS5 MATCH expression. Each
// term is quoted so user input cannot inject FTS syntax; terms are
// OR-ed so partial matches still rank.
func buildMatchQuery(query string) string {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ReplaceAll(term, `"`, `""`)
		quoted = append(quoted, `"`+term+`"`)
	}
	return strings.Join(quoted, " OR ")
}
