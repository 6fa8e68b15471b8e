package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/ports/driven"
	"github.com/custodia-labs/shelf/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyLibraryPath        = "library.path"
	KeyLibraryFormats     = "library.formats"
	KeySearchMaxResults   = "search.max_results"
	KeySearchHistoryLimit = "search.history_limit"
	KeySearchWorkers      = "search.workers"
	KeySearchCacheEntries = "search.cache_entries"
	KeySearchUser         = "search.user"
	KeyExtractTimeout     = "extract.timeout"
	KeyExtractPageCap     = "extract.page_cap"
	KeyExtractMaxChars    = "extract.max_chars"
	KeyServerAddr         = "server.addr"
)

var settingKeys = []string{
	KeyLibraryPath,
	KeyLibraryFormats,
	KeySearchMaxResults,
	KeySearchHistoryLimit,
	KeySearchWorkers,
	KeySearchCacheEntries,
	KeySearchUser,
	KeyExtractTimeout,
	KeyExtractPageCap,
	KeyExtractMaxChars,
	KeyServerAddr,
}

// SettingsService reads settings from a config store, applying defaults
// for anything missing or invalid.
type SettingsService struct {
	configStore driven.ConfigStore
	libraryDir  string
}

// NewSettingsService creates a new settings service. libraryDir is the
// library root used when none is configured; if empty it defaults to
// ~/.shelf/library.
func NewSettingsService(configStore driven.ConfigStore, libraryDir string) *SettingsService {
	if libraryDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			libraryDir = filepath.Join(home, ".shelf", "library")
		}
	}
	return &SettingsService{
		configStore: configStore,
		libraryDir:  libraryDir,
	}
}

// Get returns the effective settings.
func (s *SettingsService) Get() (domain.Settings, error) {
	settings := domain.DefaultSettings()

	settings.Library.Path = s.getString(KeyLibraryPath, s.libraryDir)
	if formats := s.getFormats(); len(formats) > 0 {
		settings.Library.Formats = formats
	}

	settings.Search.MaxResults = s.getInt(KeySearchMaxResults, settings.Search.MaxResults)
	settings.Search.HistoryLimit = s.getInt(KeySearchHistoryLimit, settings.Search.HistoryLimit)
	settings.Search.Workers = s.getInt(KeySearchWorkers, settings.Search.Workers)
	settings.Search.CacheEntries = s.getInt(KeySearchCacheEntries, settings.Search.CacheEntries)
	settings.Search.MaxChars = s.getInt(KeyExtractMaxChars, settings.Search.MaxChars)
	settings.Search.UserID = s.getString(KeySearchUser, settings.Search.UserID)

	if d := s.configStore.GetDuration(KeyExtractTimeout); d > 0 {
		settings.Extract.Timeout = d
	}
	settings.Extract.PageCap = s.getInt(KeyExtractPageCap, settings.Extract.PageCap)

	settings.Server.Addr = s.getString(KeyServerAddr, settings.Server.Addr)

	return settings, nil
}

// Set validates value for key and stores it in its typed form.
func (s *SettingsService) Set(key, value string) error {
	value = strings.TrimSpace(value)

	var typed any
	switch key {
	case KeyLibraryPath:
		if value == "" {
			return fmt.Errorf("%w: %s must not be empty", domain.ErrInvalidInput, key)
		}
		abs, err := filepath.Abs(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		typed = abs

	case KeyLibraryFormats:
		formats, err := parseFormatList(value)
		if err != nil {
			return err
		}
		names := make([]string, len(formats))
		for i, f := range formats {
			names[i] = f.String()
		}
		typed = names

	case KeySearchMaxResults, KeySearchHistoryLimit, KeySearchWorkers,
		KeySearchCacheEntries, KeyExtractPageCap, KeyExtractMaxChars:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer, got %q", domain.ErrInvalidInput, key, value)
		}
		typed = n

	case KeyExtractTimeout:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration, got %q", domain.ErrInvalidInput, key, value)
		}
		typed = d.String()

	case KeySearchUser, KeyServerAddr:
		if value == "" {
			return fmt.Errorf("%w: %s must not be empty", domain.ErrInvalidInput, key)
		}
		typed = value

	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every settable key.
func (s *SettingsService) Keys() []string {
	return append([]string(nil), settingKeys...)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

// getFormats returns the configured formats, dropping unknown names.
func (s *SettingsService) getFormats() []domain.Format {
	var formats []domain.Format
	for _, name := range s.configStore.GetStringSlice(KeyLibraryFormats) {
		if f, ok := domain.ParseFormat(name); ok {
			formats = append(formats, f)
		}
	}
	return formats
}

// parseFormatList parses a comma-separated list such as "pdf, epub".
func parseFormatList(value string) ([]domain.Format, error) {
	var formats []domain.Format
	seen := make(map[domain.Format]bool)
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, ok := domain.ParseFormat(part)
		if !ok {
			return nil, fmt.Errorf("%w: unknown format %q", domain.ErrInvalidInput, strings.TrimSpace(part))
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("%w: at least one format is required", domain.ErrInvalidInput)
	}
	return formats, nil
}
