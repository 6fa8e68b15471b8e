package services

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/ports/driven"
	"github.com/custodia-labs/shelf/internal/logger"
)

// TextCache memoises extracted document text by document ID.
//
// Concurrent misses on the same document collapse into a single
// extraction. Failed extractions are never cached, so a document that
// timed out can be retried by a later search. Cached text is truncated to
// a fixed number of characters.
type TextCache struct {
	extractor driven.Extractor
	maxChars  int
	entries   *lru.Cache[string, string]
	inflight  singleflight.Group
	metrics   driven.MetricsRecorder
}

// NewTextCache creates a cache holding at most size documents, each
// truncated to maxChars characters. Non-positive values use the defaults.
func NewTextCache(
	extractor driven.Extractor,
	size, maxChars int,
	metrics driven.MetricsRecorder,
) (*TextCache, error) {
	if size <= 0 {
		size = domain.DefaultCacheEntries
	}
	if maxChars <= 0 {
		maxChars = domain.DefaultMaxChars
	}
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}

	entries, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("creating text cache: %w", err)
	}

	return &TextCache{
		extractor: extractor,
		maxChars:  maxChars,
		entries:   entries,
		metrics:   metrics,
	}, nil
}

// GetOrExtract returns the cached text of doc, extracting it on a miss.
func (c *TextCache) GetOrExtract(ctx context.Context, doc domain.Document) (string, error) {
	if text, ok := c.entries.Get(doc.ID); ok {
		c.metrics.CacheLookup(true)
		return text, nil
	}
	c.metrics.CacheLookup(false)

	v, err, _ := c.inflight.Do(doc.ID, func() (any, error) {
		// Another caller may have filled the entry while we queued.
		if text, ok := c.entries.Get(doc.ID); ok {
			return text, nil
		}

		text, err := c.extractor.Text(ctx, doc.Path)
		if err != nil {
			return "", err
		}

		if truncated, ok := truncateChars(text, c.maxChars); ok {
			logger.Info("Truncating text of %q to %d characters", doc.Title, c.maxChars)
			text = truncated
		}
		c.entries.Add(doc.ID, text)
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Len returns the number of cached documents.
func (c *TextCache) Len() int {
	return c.entries.Len()
}

// truncateChars keeps the first limit characters of text. It reports
// whether anything was cut.
func truncateChars(text string, limit int) (string, bool) {
	if len(text) <= limit {
		return text, false
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i], true
		}
		n++
	}
	return text, false
}
