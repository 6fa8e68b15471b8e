// Package domain defines the core business entities for shelf.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ebook file discovered in the library
//   - Format: The closed set of ebook formats shelf understands
//   - QueryRecord: One executed search and its owner
//   - MatchRecord: A persisted hit linking a QueryRecord to a Document
//   - Settings: Explicit configuration passed into services at construction
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
