package driven

import (
	"context"

	"github.com/custodia-labs/shelf/internal/core/domain"
)

// SearchStore persists query records and their matches.
type SearchStore interface {
	// Create stores a new query record.
	Create(ctx context.Context, record domain.QueryRecord) error

	// SaveMatches stores the ranked matches of a query and its result
	// count in a single transaction. On any failure nothing is written.
	SaveMatches(ctx context.Context, queryID string, matches []domain.MatchRecord) error

	// SaveSearch stores a query record together with its ranked matches
	// in a single transaction. On any failure nothing is written.
	SaveSearch(ctx context.Context, record domain.QueryRecord, matches []domain.MatchRecord) error

	// Get retrieves a query record by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.QueryRecord, error)

	// Matches returns the matches of a query ordered by score descending,
	// ties broken by rank.
	Matches(ctx context.Context, queryID string) ([]domain.MatchRecord, error)

	// ListByUser returns up to limit query records owned by userID,
	// newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.QueryRecord, error)

	// Delete removes a query record and all of its matches.
	Delete(ctx context.Context, id string) error
}
