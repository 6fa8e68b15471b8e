package driving

import (
	"context"

	"github.com/custodia-labs/shelf/internal/core/domain"
)

// ScanReport summarises one library scan.
type ScanReport struct {
	// Added are the documents created by this scan.
	Added []domain.Document

	// Skipped counts supported files that were already indexed.
	Skipped int

	// Ignored counts files with unsupported formats.
	Ignored int
}

// LibraryService manages the indexed ebook library.
type LibraryService interface {
	// Scan walks the library root and indexes files not yet known.
	Scan(ctx context.Context) (*ScanReport, error)

	// List returns all documents, or only those of format when it is non-empty.
	List(ctx context.Context, format domain.Format) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Formats returns the distinct formats present in the library.
	Formats(ctx context.Context) ([]domain.Format, error)

	// Open checks that the document's file exists, records the access,
	// and returns the document with the MIME type to serve it as.
	Open(ctx context.Context, id string) (*domain.Document, string, error)
}
