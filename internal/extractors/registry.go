package extractors

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/ports/driven"
	"github.com/custodia-labs/shelf/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.Extractor = (*Registry)(nil)

// Registry dispatches extraction to the extractor registered for a file's format.
type Registry struct {
	mu         sync.RWMutex
	extractors map[domain.Format]driven.FormatExtractor
}

// NewRegistry creates a registry holding the given extractors.
func NewRegistry(extractors ...driven.FormatExtractor) *Registry {
	r := &Registry{
		extractors: make(map[domain.Format]driven.FormatExtractor),
	}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds an extractor, replacing any existing one for its format.
func (r *Registry) Register(e driven.FormatExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[e.Format()] = e
}

// Get returns the extractor registered for format.
func (r *Registry) Get(format domain.Format) (driven.FormatExtractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[format]
	return e, ok
}

// Formats returns the formats with a registered extractor.
func (r *Registry) Formats() []domain.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]domain.Format, 0, len(r.extractors))
	for _, f := range domain.AllFormats() {
		if _, ok := r.extractors[f]; ok {
			formats = append(formats, f)
		}
	}
	return formats
}

// Metadata returns the file's metadata. Filesystem-derived defaults are
// always available: the filename stem as title and the size on disk.
// Embedded fields override them when the format's extractor finds any;
// extractor failures are logged and never returned.
func (r *Registry) Metadata(ctx context.Context, path string) (domain.Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Metadata{}, fmt.Errorf("stat %s: %w", path, err)
	}

	format, _ := domain.FormatFromPath(path)
	meta := domain.DefaultMetadata(path, format, info.Size())

	e, ok := r.Get(format)
	if !ok {
		return meta, nil
	}

	embedded, err := safeMetadata(ctx, e, path)
	if err != nil {
		logger.Warn("Reading metadata from %s: %v", path, err)
		return meta, nil
	}
	if embedded.Title != "" {
		meta.Title = embedded.Title
	}
	if embedded.Author != "" {
		meta.Author = embedded.Author
	}
	return meta, nil
}

// Text extracts the file's text with the extractor for its format.
// Panics inside a parser are reported as domain.ErrExtractionFailed.
func (r *Registry) Text(ctx context.Context, path string) (string, error) {
	format, ok := domain.FormatFromPath(path)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, path)
	}
	e, ok := r.Get(format)
	if !ok {
		return "", fmt.Errorf("%w: no text extractor for %s", domain.ErrUnsupportedType, format)
	}
	return safeText(ctx, e, path)
}

func safeMetadata(ctx context.Context, e driven.FormatExtractor, path string) (meta domain.Metadata, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return e.Metadata(ctx, path)
}

func safeText(ctx context.Context, e driven.FormatExtractor, path string) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s: panic: %v", domain.ErrExtractionFailed, path, rec)
		}
	}()
	return e.Text(ctx, path)
}
