package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a format with no registered extractor.
	ErrUnsupportedType = errors.New("unsupported type")

	// Extraction Errors.

	// ErrExtractionTimeout indicates text extraction for one document
	// exceeded its wall-clock bound. The document is skipped.
	ErrExtractionTimeout = errors.New("extraction timed out")

	// ErrExtractionFailed indicates a parser could not read the document
	// (corrupt file, unsupported internal structure).
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEvaluationFailed indicates an unexpected error while scoring one document.
	ErrEvaluationFailed = errors.New("evaluation failed")

	// ErrPersistence indicates a search result set could not be written.
	// It is the only search failure reported to callers.
	ErrPersistence = errors.New("persistence failure")
)
