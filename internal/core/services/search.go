package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/ports/driven"
	"github.com/custodia-labs/shelf/internal/core/ports/driving"
	"github.com/custodia-labs/shelf/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService runs searches end to end. It fans a query out across the
// library, ranks and truncates the hits, then persists the query record and
// its matches together.
type SearchService struct {
	docStore    driven.DocumentStore
	searchStore driven.SearchStore
	extractor   driven.Extractor
	scheduler   *SearchScheduler
	settings    domain.SearchSettings
	metrics     driven.MetricsRecorder

	newID func() string
	now   func() time.Time
}

// NewSearchService creates a search service. The settings are fixed for
// the service's lifetime. The metrics recorder is optional (can be nil).
func NewSearchService(
	docStore driven.DocumentStore,
	searchStore driven.SearchStore,
	extractor driven.Extractor,
	settings domain.SearchSettings,
	metrics driven.MetricsRecorder,
) *SearchService {
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	return &SearchService{
		docStore:    docStore,
		searchStore: searchStore,
		extractor:   extractor,
		scheduler:   NewSearchScheduler(settings.WorkerCount(), NewScorer(), metrics),
		settings:    settings,
		metrics:     metrics,
		newID:       uuid.NewString,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Search runs req against every indexed document.
//
// Each call extracts through a fresh text cache. The query is matched and
// stored exactly as given; only a blank query is rejected. Failures confined
// to a single document only remove it from the results. Nothing is written
// until ranking is done, so an unfinished search never shows up in history.
// Storage failures are returned wrapped in domain.ErrPersistence.
func (s *SearchService) Search(
	ctx context.Context, req domain.SearchRequest,
) (*domain.QueryRecord, []domain.SearchResult, error) {
	logger.Section("Search Execution")
	start := time.Now()

	query := req.Query
	if strings.TrimSpace(query) == "" {
		return nil, nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	userID := req.UserID
	if userID == "" {
		userID = s.settings.UserID
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = s.settings.MaxResults
	}
	if maxResults <= 0 {
		maxResults = domain.DefaultMaxResults
	}
	logger.Debug("Query: %q, user: %s, max results: %d", query, userID, maxResults)

	record := domain.QueryRecord{
		ID:        s.newID(),
		Query:     query,
		UserID:    userID,
		CreatedAt: s.now(),
	}

	docs, err := s.docStore.ListAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: listing documents: %v", domain.ErrPersistence, err)
	}
	logger.Info("Searching %d documents", len(docs))

	cache, err := NewTextCache(s.extractor, s.settings.CacheEntries, s.settings.MaxChars, s.metrics)
	if err != nil {
		return nil, nil, err
	}

	hits := s.scheduler.Run(ctx, cache, docs, query)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	rankHits(hits)
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	matches := make([]domain.MatchRecord, len(hits))
	results := make([]domain.SearchResult, len(hits))
	for i, h := range hits {
		matches[i] = domain.MatchRecord{
			QueryID:    record.ID,
			DocumentID: h.Document.ID,
			Score:      h.Score,
			Snippet:    h.Snippet,
			Rank:       i,
		}
		results[i] = domain.SearchResult{
			Document: h.Document,
			Score:    h.Score,
			Snippet:  h.Snippet,
		}
	}

	record.ResultCount = len(matches)
	if err := s.searchStore.SaveSearch(ctx, record, matches); err != nil {
		logger.Error("Saving search %q: %v", query, err)
		return nil, nil, fmt.Errorf("%w: saving search: %v", domain.ErrPersistence, err)
	}

	s.metrics.SearchCompleted(len(results), time.Since(start))
	logger.Info("Found %d results for %q in %s", len(results), query, time.Since(start).Round(time.Millisecond))
	return &record, results, nil
}

// Get returns a past search and its results ordered as originally ranked.
// Searches owned by another user are reported as not found.
func (s *SearchService) Get(
	ctx context.Context, userID, searchID string,
) (*domain.QueryRecord, []domain.SearchResult, error) {
	record, err := s.owned(ctx, userID, searchID)
	if err != nil {
		return nil, nil, err
	}

	matches, err := s.searchStore.Matches(ctx, searchID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading results: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(matches))
	for _, m := range matches {
		doc, err := s.docStore.Get(ctx, m.DocumentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Result document %s no longer exists", m.DocumentID)
				continue
			}
			return nil, nil, fmt.Errorf("loading document %s: %w", m.DocumentID, err)
		}
		results = append(results, domain.SearchResult{
			Document: *doc,
			Score:    m.Score,
			Snippet:  m.Snippet,
		})
	}
	return record, results, nil
}

// History returns the user's most recent searches, newest first.
func (s *SearchService) History(ctx context.Context, userID string, limit int) ([]domain.QueryRecord, error) {
	if limit <= 0 {
		limit = s.settings.HistoryLimit
	}
	if limit <= 0 {
		limit = domain.DefaultHistoryLimit
	}
	records, err := s.searchStore.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return records, nil
}

// Delete removes a search owned by userID and its results.
func (s *SearchService) Delete(ctx context.Context, userID, searchID string) error {
	if _, err := s.owned(ctx, userID, searchID); err != nil {
		return err
	}
	if err := s.searchStore.Delete(ctx, searchID); err != nil {
		return fmt.Errorf("deleting search: %w", err)
	}
	return nil
}

func (s *SearchService) owned(ctx context.Context, userID, searchID string) (*domain.QueryRecord, error) {
	record, err := s.searchStore.Get(ctx, searchID)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

// rankHits orders hits by score descending. Equal scores keep the order in
// which their documents were listed.
func rankHits(hits []Hit) {
	slices.SortStableFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})
}
