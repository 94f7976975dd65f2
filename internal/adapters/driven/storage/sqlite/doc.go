// Package sqlite provides SQLite-backed persistence for all metadata
// store interfaces plus the FTS5 lexical search engine.
//
// A single database file (metadata.db under the data directory) holds
// the repository registry, generation manifests, wiki artifact history
// and status, ingestion status, the content-hash embedding cache, and
// the document store. The Store type owns the connection; per-interface
// wrapper types expose the driven ports.
//
// Migrations are embedded SQL files applied in version order on open.
package sqlite
