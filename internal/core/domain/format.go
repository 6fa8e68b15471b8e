package domain

import (
	"path/filepath"
	"strings"
)

// Format identifies an ebook file format.
type Format string

// Supported ebook formats.
const (
	FormatPDF  Format = "pdf"
	FormatEPUB Format = "epub"
	FormatAZW3 Format = "azw3"
)

// mimeOctetStream is served for formats without a registered MIME type.
const mimeOctetStream = "application/octet-stream"

// AllFormats returns every format shelf recognises, in display order.
func AllFormats() []Format {
	return []Format{FormatPDF, FormatEPUB, FormatAZW3}
}

// ParseFormat converts an extension or format name to a Format.
// Matching is case-insensitive and a leading dot is ignored.
func ParseFormat(s string) (Format, bool) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	if f.IsValid() {
		return f, true
	}
	return "", false
}

// FormatFromPath returns the format implied by a file's extension.
func FormatFromPath(path string) (Format, bool) {
	return ParseFormat(filepath.Ext(path))
}

// IsValid returns true if the format is recognised.
func (f Format) IsValid() bool {
	switch f {
	case FormatPDF, FormatEPUB, FormatAZW3:
		return true
	default:
		return false
	}
}

// MIMEType returns the content type used when serving the file.
func (f Format) MIMEType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatEPUB:
		return "application/epub+zip"
	case FormatAZW3:
		return "application/x-mobi8-ebook"
	default:
		return mimeOctetStream
	}
}

// String returns the string representation.
func (f Format) String() string {
	return string(f)
}
