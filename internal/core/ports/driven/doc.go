// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Extractor: Reads metadata and text from one ebook file
//   - FormatExtractor: Per-format extraction capability, selected by Format
//   - DocumentStore: Document persistence
//   - SearchStore: Query and match persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - MetricsRecorder: Observes extraction and search outcomes. A nil
//     recorder is replaced with a no-op.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
