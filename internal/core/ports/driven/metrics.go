package driven

import (
	"time"

	"github.com/custodia-labs/shelf/internal/core/domain"
)

// Evaluation outcomes reported for each document in a search.
const (
	OutcomeMatch           = "match"
	OutcomeNoMatch         = "no_match"
	OutcomeEmpty           = "empty"
	OutcomeUnsupported     = "unsupported"
	OutcomeTimeout         = "timeout"
	OutcomeExtractionError = "extraction_error"
	OutcomeEvaluationError = "evaluation_error"
)

// MetricsRecorder observes the search pipeline.
type MetricsRecorder interface {
	// DocumentEvaluated records the outcome of evaluating one document.
	DocumentEvaluated(format domain.Format, outcome string, elapsed time.Duration)

	// SearchCompleted records one finished search invocation.
	SearchCompleted(results int, elapsed time.Duration)

	// CacheLookup records a text cache hit or miss.
	CacheLookup(hit bool)
}

// NopMetrics is a MetricsRecorder that discards everything.
type NopMetrics struct{}

// DocumentEvaluated implements MetricsRecorder.
func (NopMetrics) DocumentEvaluated(domain.Format, string, time.Duration) {}

// SearchCompleted implements MetricsRecorder.
func (NopMetrics) SearchCompleted(int, time.Duration) {}

// CacheLookup implements MetricsRecorder.
func (NopMetrics) CacheLookup(bool) {}
