package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/shelf/internal/core/domain"
)

// DocumentStore persists library documents.
type DocumentStore interface {
	// ListAll returns every indexed document in discovery order.
	ListAll(ctx context.Context) ([]domain.Document, error)

	// FindByPath returns the document at path.
	// Returns domain.ErrNotFound if no document has that path.
	FindByPath(ctx context.Context, path string) (*domain.Document, error)

	// Create stores a new document.
	// Returns domain.ErrAlreadyExists if the path is already indexed.
	Create(ctx context.Context, doc domain.Document) (*domain.Document, error)

	// CreateBatch stores several documents in one transaction.
	// Either all documents are stored or none are.
	CreateBatch(ctx context.Context, docs []domain.Document) error

	// Get retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// ListByFormat returns the documents of one format.
	ListByFormat(ctx context.Context, format domain.Format) ([]domain.Document, error)

	// Formats returns the distinct formats present in the library, sorted.
	Formats(ctx context.Context) ([]domain.Format, error)

	// Touch records that the document was opened at the given time.
	Touch(ctx context.Context, id string, at time.Time) error
}
