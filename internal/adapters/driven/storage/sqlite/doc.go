// Package sqlite provides a SQLite-backed implementation of the library and
// search history stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. A single database connection pool serves both:
//
//   - DocumentStore: indexed ebook files and their metadata
//   - SearchStore: executed searches and their ranked matches
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files and applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.shelf/data/shelf.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. Match sets are written in a
// single transaction so a search is either fully stored or not at all.
package sqlite
