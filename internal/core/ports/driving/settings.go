package driving

import "github.com/custodia-labs/shelf/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the effective settings: stored values over defaults.
	Get() (domain.Settings, error)

	// Set validates and stores a single setting given in its textual form,
	// e.g. Set("extract.timeout", "90s").
	// Returns domain.ErrInvalidInput for unknown keys or malformed values.
	Set(key, value string) error

	// Keys returns every settable key in display order.
	Keys() []string
}
