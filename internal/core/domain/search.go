package domain

import "time"

// Search defaults.
const (
	// DefaultMaxResults caps a search result set when the caller gives no limit.
	DefaultMaxResults = 50

	// DefaultHistoryLimit caps history listings when the caller gives no limit.
	DefaultHistoryLimit = 10
)

// QueryRecord is one executed search. It is created before the fan-out
// so its matches can reference it, and is immutable once they are written.
type QueryRecord struct {
	// ID is the unique identifier for the search.
	ID string `json:"search_id"`

	// Query is the literal query string.
	Query string `json:"query"`

	// UserID identifies the owner of the search.
	UserID string `json:"user_id"`

	// CreatedAt is when the search was started.
	CreatedAt time.Time `json:"timestamp"`

	// ResultCount is the number of persisted matches.
	ResultCount int `json:"result_count"`
}

// MatchRecord links a QueryRecord to a matching Document.
// A query has at most one match per document.
type MatchRecord struct {
	QueryID    string
	DocumentID string

	// Score is the relevance score, always >= 0.
	Score float64

	// Snippet is the highlighted context around the first hit. May be empty.
	Snippet string

	// Rank is the position in the ranked result set. It breaks score ties
	// when a result set is read back.
	Rank int
}

// SearchResult is a ranked match joined with its document.
type SearchResult struct {
	Document Document `json:"book"`
	Score    float64  `json:"relevance"`
	Snippet  string   `json:"context"`
}

// SearchRequest carries the parameters of one search invocation.
type SearchRequest struct {
	Query  string
	UserID string

	// MaxResults caps the result set. Zero or negative means DefaultMaxResults.
	MaxResults int
}

// EffectiveMaxResults returns MaxResults with the default applied.
func (r SearchRequest) EffectiveMaxResults() int {
	if r.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return r.MaxResults
}
