// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
//
// Driven ports are implemented by adapters in internal/adapters/driven
// and consumed by the core services. They cover persistence (repository
// registry, manifests, wiki history, ingestion status, chunk documents,
// embedding cache), the two index engines (lexical, vector), and the
// remote collaborators (embedding provider, summariser, git, GitHub).
package driven
