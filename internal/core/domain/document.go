package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Document represents an ebook file discovered in the library.
// Search never mutates a document.
type Document struct {
	// ID is the unique identifier for the document.
	ID string `json:"id"`

	// Path is the absolute file path. It is unique across the library.
	Path string `json:"file_path"`

	// Format is the ebook format derived from the file extension.
	Format Format `json:"file_format"`

	// Size is the file size in bytes.
	Size int64 `json:"file_size"`

	// Title is the embedded title, or the filename stem when absent.
	Title string `json:"title"`

	// Author is the embedded author. Empty when unknown.
	Author string `json:"author,omitempty"`

	// IndexedAt is when the document was first discovered.
	IndexedAt time.Time `json:"indexed_at"`

	// LastAccessed is when the file was last opened, if ever.
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
}

// Metadata is the descriptive information an extractor reads from a file.
type Metadata struct {
	Title  string
	Author string
	Format Format
	Size   int64
}

// DefaultMetadata returns filesystem-derived metadata for path:
// the filename stem as title and no author.
func DefaultMetadata(path string, format Format, size int64) Metadata {
	return Metadata{
		Title:  FilenameStem(path),
		Format: format,
		Size:   size,
	}
}

// FilenameStem returns the base name of path without its extension.
func FilenameStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
