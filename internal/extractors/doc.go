// Package extractors dispatches metadata and text extraction to
// per-format extractors and bounds text extraction in time.
//
// Registry selects a driven.FormatExtractor by the file's domain.Format.
// WithTimeout wraps any driven.Extractor so that a parser which hangs is
// abandoned after a fixed wall-clock bound.
package extractors
