package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/ports/driven"
)

// Ensure SearchStore implements the interface.
var _ driven.SearchStore = (*SearchStore)(nil)

// SearchStore is an in-memory implementation of driven.SearchStore.
type SearchStore struct {
	mu      sync.RWMutex
	records map[string]domain.QueryRecord
	matches map[string][]domain.MatchRecord
	seq     map[string]int
	next    int
}

// NewSearchStore creates a new in-memory search store.
func NewSearchStore() *SearchStore {
	return &SearchStore{
		records: make(map[string]domain.QueryRecord),
		matches: make(map[string][]domain.MatchRecord),
		seq:     make(map[string]int),
	}
}

// Create stores a new query record.
func (s *SearchStore) Create(_ context.Context, record domain.QueryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.records[record.ID] = record
	s.seq[record.ID] = s.next
	s.next++
	return nil
}

// SaveSearch stores a query record together with its matches. Nothing is
// written when either is rejected.
func (s *SearchStore) SaveSearch(_ context.Context, record domain.QueryRecord, matches []domain.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return domain.ErrAlreadyExists
	}

	seen := make(map[string]bool, len(matches))
	stored := make([]domain.MatchRecord, len(matches))
	for i, m := range matches {
		if seen[m.DocumentID] {
			return domain.ErrAlreadyExists
		}
		seen[m.DocumentID] = true
		m.QueryID = record.ID
		stored[i] = m
	}

	record.ResultCount = len(stored)
	s.records[record.ID] = record
	if len(stored) > 0 {
		s.matches[record.ID] = stored
	}
	s.seq[record.ID] = s.next
	s.next++
	return nil
}

// SaveMatches stores the matches of a query all at once.
func (s *SearchStore) SaveMatches(_ context.Context, queryID string, matches []domain.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[queryID]
	if !ok {
		return domain.ErrNotFound
	}

	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if seen[m.DocumentID] {
			return domain.ErrAlreadyExists
		}
		seen[m.DocumentID] = true
	}
	for _, m := range s.matches[queryID] {
		if seen[m.DocumentID] {
			return domain.ErrAlreadyExists
		}
	}

	for _, m := range matches {
		m.QueryID = queryID
		s.matches[queryID] = append(s.matches[queryID], m)
	}
	record.ResultCount = len(s.matches[queryID])
	s.records[queryID] = record
	return nil
}

// Get retrieves a query record by ID.
func (s *SearchStore) Get(_ context.Context, id string) (*domain.QueryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// Matches returns the matches of a query by score descending, then rank.
func (s *SearchStore) Matches(_ context.Context, queryID string) ([]domain.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := slices.Clone(s.matches[queryID])
	slices.SortStableFunc(matches, func(a, b domain.MatchRecord) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return a.Rank - b.Rank
		}
	})
	return matches, nil
}

// ListByUser returns up to limit records owned by userID, newest first.
func (s *SearchStore) ListByUser(_ context.Context, userID string, limit int) ([]domain.QueryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []domain.QueryRecord
	for _, r := range s.records {
		if r.UserID == userID {
			records = append(records, r)
		}
	}
	slices.SortFunc(records, func(a, b domain.QueryRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return s.seq[b.ID] - s.seq[a.ID]
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Delete removes a query record and its matches.
func (s *SearchStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	delete(s.matches, id)
	delete(s.seq, id)
	return nil
}
