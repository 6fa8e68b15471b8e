package driven

import (
	"context"

	"github.com/custodia-labs/shelf/internal/core/domain"
)

// Extractor reads metadata and text from a single ebook file.
// Extraction never mutates persistent state.
type Extractor interface {
	// Metadata returns the descriptive fields of the file at path.
	// Missing fields fall back to filesystem-derived defaults.
	Metadata(ctx context.Context, path string) (domain.Metadata, error)

	// Text returns the searchable text content of the file at path.
	// Returns domain.ErrUnsupportedType for formats without text support,
	// domain.ErrExtractionTimeout when a time bound elapses, and
	// domain.ErrExtractionFailed when the file cannot be parsed.
	Text(ctx context.Context, path string) (string, error)
}

// FormatExtractor is the extraction capability for one ebook format.
// The extractor registry dispatches to it by domain.Format.
type FormatExtractor interface {
	// Format returns the format this extractor handles.
	Format() domain.Format

	// Metadata reads embedded title and author. Implementations fill
	// only the fields they find; the registry supplies defaults.
	Metadata(ctx context.Context, path string) (domain.Metadata, error)

	// Text extracts the textual content of the file.
	Text(ctx context.Context, path string) (string, error)
}
