package extractors

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/ports/driven"
	"github.com/custodia-labs/shelf/internal/logger"
)

// timeoutExtractor bounds extraction by a wall-clock limit.
type timeoutExtractor struct {
	inner   driven.Extractor
	timeout time.Duration
}

// WithTimeout wraps inner so that Metadata and Text give up after timeout.
//
// Parsers are not assumed to honour context cancellation, so extraction
// runs in its own goroutine and the caller stops waiting when the bound
// elapses. The abandoned goroutine runs to completion in the background
// and its result is discarded. A timeout <= 0 uses domain.DefaultExtractTimeout.
func WithTimeout(inner driven.Extractor, timeout time.Duration) driven.Extractor {
	if timeout <= 0 {
		timeout = domain.DefaultExtractTimeout
	}
	return &timeoutExtractor{inner: inner, timeout: timeout}
}

// Metadata returns the inner extractor's metadata, or an error wrapping
// domain.ErrExtractionTimeout if it does not finish in time.
func (t *timeoutExtractor) Metadata(ctx context.Context, path string) (domain.Metadata, error) {
	return bounded(ctx, t.timeout, path, func(ctx context.Context) (domain.Metadata, error) {
		return t.inner.Metadata(ctx, path)
	})
}

// Text returns the inner extractor's text, or an error wrapping
// domain.ErrExtractionTimeout if it does not finish in time.
func (t *timeoutExtractor) Text(ctx context.Context, path string) (string, error) {
	return bounded(ctx, t.timeout, path, func(ctx context.Context) (string, error) {
		return t.inner.Text(ctx, path)
	})
}

type result[T any] struct {
	value T
	err   error
}

// bounded runs fn in its own goroutine and waits at most timeout for it.
// A panic in fn is reported as domain.ErrExtractionFailed.
func bounded[T any](
	ctx context.Context, timeout time.Duration, path string, fn func(context.Context) (T, error),
) (T, error) {
	var zero T
	extractCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Buffered so the worker can always deliver and exit after we stop waiting.
	done := make(chan result[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result[T]{err: fmt.Errorf("%w: %s: panic: %v", domain.ErrExtractionFailed, path, r)}
			}
		}()
		value, err := fn(extractCtx)
		done <- result[T]{value: value, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.value, res.err
	case <-timer.C:
		logger.Warn("Extraction of %s exceeded %s, abandoning", path, timeout)
		return zero, fmt.Errorf("%w after %s: %s", domain.ErrExtractionTimeout, timeout, path)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
