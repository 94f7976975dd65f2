// Package domain defines the core business entities for Codewiki.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Repository: A registered source-code repository
//   - Chunk: An addressable span of source code
//   - Manifest: What was indexed for a (repo, commit) generation
//   - WikiArtifact: A versioned generated repository summary
//   - IngestionStatus: The live pipeline state for one repository
//   - IndexDocument: The unit fed to the document store
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
