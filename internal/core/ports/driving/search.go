package driving

import (
	"context"

	"github.com/custodia-labs/shelf/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// Search runs a query across every indexed document, persists the
	// ranked result set and returns it. Only persistence failures and
	// invalid input are reported as errors.
	Search(ctx context.Context, req domain.SearchRequest) (*domain.QueryRecord, []domain.SearchResult, error)

	// Get returns a past search owned by userID with its results in
	// their original order.
	Get(ctx context.Context, userID, searchID string) (*domain.QueryRecord, []domain.SearchResult, error)

	// History returns up to limit searches owned by userID, newest first.
	History(ctx context.Context, userID string, limit int) ([]domain.QueryRecord, error)

	// Delete removes a search owned by userID together with its results.
	Delete(ctx context.Context, userID, searchID string) error
}
