// Package metrics exposes the search pipeline as Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

const namespace = "shelf"

// Recorder records pipeline and HTTP metrics into its own registry so that
// several recorders (one per test, for instance) never collide.
type Recorder struct {
	registry *prometheus.Registry

	documentsTotal     *prometheus.CounterVec
	documentDuration   *prometheus.HistogramVec
	searchesTotal      prometheus.Counter
	searchDuration     prometheus.Histogram
	searchResults      prometheus.Histogram
	cacheLookupsTotal  *prometheus.CounterVec
	httpRequestsTotal  *prometheus.CounterVec
	httpRequestSeconds *prometheus.HistogramVec
}

// NewRecorder creates a recorder with Go runtime and process collectors
// already registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		documentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_evaluated_total",
				Help:      "Documents evaluated during searches, by format and outcome.",
			},
			[]string{"format", "outcome"},
		),
		documentDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_evaluation_seconds",
				Help:      "Time spent extracting and scoring one document.",
				Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 15, 30, 60},
			},
			[]string{"format"},
		),
		searchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Completed searches.",
		}),
		searchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration.",
			Buckets:   prometheus.DefBuckets,
		}),
		searchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		cacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "text_cache_lookups_total",
				Help:      "Text cache lookups by result.",
			},
			[]string{"result"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration by method and route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// DocumentEvaluated implements driven.MetricsRecorder.
func (r *Recorder) DocumentEvaluated(format domain.Format, outcome string, elapsed time.Duration) {
	r.documentsTotal.WithLabelValues(format.String(), outcome).Inc()
	r.documentDuration.WithLabelValues(format.String()).Observe(elapsed.Seconds())
}

// SearchCompleted implements driven.MetricsRecorder.
func (r *Recorder) SearchCompleted(results int, elapsed time.Duration) {
	r.searchesTotal.Inc()
	r.searchDuration.Observe(elapsed.Seconds())
	r.searchResults.Observe(float64(results))
}

// CacheLookup implements driven.MetricsRecorder.
func (r *Recorder) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveRequest records one served HTTP request. route should be the
// matched route pattern, not the raw path, to keep label cardinality bounded.
func (r *Recorder) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	r.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpRequestSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
