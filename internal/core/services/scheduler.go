package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/ports/driven"
	"github.com/custodia-labs/shelf/internal/logger"
)

// TextSource supplies the text of a document.
// TextCache is the production implementation.
type TextSource interface {
	GetOrExtract(ctx context.Context, doc domain.Document) (string, error)
}

// Hit is a matching document produced by one evaluation.
type Hit struct {
	Document domain.Document
	Score    float64
	Snippet  string

	// Seq is the document's position in the scheduled list. It orders
	// hits with equal scores.
	Seq int
}

// SearchScheduler fans a query out across documents on a fixed-size
// worker pool and collects the hits.
type SearchScheduler struct {
	workers int
	scorer  Scorer
	metrics driven.MetricsRecorder
}

// NewSearchScheduler creates a scheduler running at most workers
// evaluations at once. A nil metrics recorder discards observations.
func NewSearchScheduler(workers int, scorer Scorer, metrics driven.MetricsRecorder) *SearchScheduler {
	if workers < 1 {
		workers = 1
	}
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	return &SearchScheduler{
		workers: workers,
		scorer:  scorer,
		metrics: metrics,
	}
}

// Workers returns the pool size.
func (s *SearchScheduler) Workers() int {
	return s.workers
}

type evaluationJob struct {
	doc domain.Document
	seq int
}

// Run evaluates query against every document and returns the hits in
// completion order. A document that fails to extract or evaluate
// contributes nothing; it never affects the others.
func (s *SearchScheduler) Run(ctx context.Context, texts TextSource, docs []domain.Document, query string) []Hit {
	if len(docs) == 0 {
		return nil
	}

	workers := min(s.workers, len(docs))
	logger.Debug("Evaluating %d documents with %d workers", len(docs), workers)

	jobs := make(chan evaluationJob)
	results := make(chan Hit, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if hit, ok := s.evaluate(ctx, texts, job, query); ok {
					results <- hit
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range docs {
			select {
			case jobs <- evaluationJob{doc: docs[i], seq: i}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var hits []Hit
	for hit := range results {
		hits = append(hits, hit)
	}
	return hits
}

// evaluate fetches one document's text and scores it. Panics are
// recovered and reported as evaluation failures.
func (s *SearchScheduler) evaluate(ctx context.Context, texts TextSource, job evaluationJob, query string) (hit Hit, ok bool) {
	doc := job.doc
	start := time.Now()
	outcome := driven.OutcomeNoMatch

	defer func() {
		if r := recover(); r != nil {
			logger.Error("%v: %s: %v", domain.ErrEvaluationFailed, doc.Path, r)
			outcome = driven.OutcomeEvaluationError
			hit, ok = Hit{}, false
		}
		s.metrics.DocumentEvaluated(doc.Format, outcome, time.Since(start))
	}()

	text, err := texts.GetOrExtract(ctx, doc)
	if err != nil {
		outcome = classifyExtractionError(doc, err)
		return Hit{}, false
	}
	if text == "" {
		outcome = driven.OutcomeEmpty
		return Hit{}, false
	}
	if !s.scorer.Matches(query, text) {
		return Hit{}, false
	}

	score, snippet := s.scorer.ScoreAndSnippet(query, text)
	outcome = driven.OutcomeMatch
	return Hit{Document: doc, Score: score, Snippet: snippet, Seq: job.seq}, true
}

func classifyExtractionError(doc domain.Document, err error) string {
	switch {
	case errors.Is(err, domain.ErrExtractionTimeout):
		logger.Error("Timeout extracting text from %s", doc.Path)
		return driven.OutcomeTimeout
	case errors.Is(err, domain.ErrUnsupportedType):
		logger.Debug("No text support for %s", doc.Path)
		return driven.OutcomeUnsupported
	default:
		logger.Error("Extracting text from %s: %v", doc.Path, err)
		return driven.OutcomeExtractionError
	}
}
