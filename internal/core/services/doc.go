// Package services implements the core business logic: the repository
// registry, the ingestion coordinator and its pipeline stages
// (extraction, embedding, wiki generation, index feeding), and the
// query path. Services depend only on domain types and ports; all
// infrastructure is injected.
package services
