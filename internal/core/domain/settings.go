package domain

import (
	"runtime"
	"time"
)

// Extraction defaults.
const (
	// DefaultExtractTimeout bounds text extraction for a single document.
	DefaultExtractTimeout = 60 * time.Second

	// DefaultPageCap is the number of PDF pages read on the fast path.
	DefaultPageCap = 50

	// DefaultMaxChars is the ceiling on cached text per document, in characters.
	DefaultMaxChars = 1_000_000

	// DefaultWorkers is the upper bound on concurrent document evaluations.
	DefaultWorkers = 4

	// DefaultCacheEntries bounds the number of documents held by a text cache.
	DefaultCacheEntries = 1024

	// DefaultUserID owns searches run without an explicit user.
	DefaultUserID = "local"
)

// Settings is the full runtime configuration, built once at startup.
type Settings struct {
	Library LibrarySettings
	Search  SearchSettings
	Extract ExtractSettings
	Server  ServerSettings
}

// LibrarySettings configures library discovery.
type LibrarySettings struct {
	// Path is the root directory scanned for ebooks.
	Path string

	// Formats is the set of formats the scanner indexes.
	Formats []Format
}

// SearchSettings configures the search session.
type SearchSettings struct {
	MaxResults   int
	HistoryLimit int
	Workers      int
	CacheEntries int
	MaxChars     int
	UserID       string
}

// ExtractSettings configures text extraction.
type ExtractSettings struct {
	Timeout time.Duration
	PageCap int
}

// ServerSettings configures the HTTP surface.
type ServerSettings struct {
	Addr string
}

// DefaultSettings returns settings with every default applied.
// The library path is left empty for the caller to resolve.
func DefaultSettings() Settings {
	return Settings{
		Library: LibrarySettings{
			Formats: AllFormats(),
		},
		Search: DefaultSearchSettings(),
		Extract: ExtractSettings{
			Timeout: DefaultExtractTimeout,
			PageCap: DefaultPageCap,
		},
		Server: ServerSettings{
			Addr: "127.0.0.1:8080",
		},
	}
}

// DefaultSearchSettings returns the search defaults.
func DefaultSearchSettings() SearchSettings {
	return SearchSettings{
		MaxResults:   DefaultMaxResults,
		HistoryLimit: DefaultHistoryLimit,
		Workers:      DefaultWorkers,
		CacheEntries: DefaultCacheEntries,
		MaxChars:     DefaultMaxChars,
		UserID:       DefaultUserID,
	}
}

// WorkerCount returns the size of the evaluation pool: the configured
// bound, never more than the host's parallelism and never less than one.
func (s SearchSettings) WorkerCount() int {
	n := s.Workers
	if n <= 0 {
		n = DefaultWorkers
	}
	if cpus := runtime.NumCPU(); cpus < n {
		n = cpus
	}
	if n < 1 {
		n = 1
	}
	return n
}

// SupportsFormat reports whether the scanner indexes format f.
func (s LibrarySettings) SupportsFormat(f Format) bool {
	for _, supported := range s.Formats {
		if supported == f {
			return true
		}
	}
	return false
}
