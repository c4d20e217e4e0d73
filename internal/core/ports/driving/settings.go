package driving

import "github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the effective settings: stored values over defaults.
	Get() (*domain.AppSettings, error)

	// Set stores a single setting by key after validating it.
	Set(key, value string) error

	// Keys lists the recognised setting keys.
	Keys() []string
}
