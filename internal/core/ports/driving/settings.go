package driving

import "github.com/custodia-labs/issue-archive/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, filling gaps with defaults.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Validate checks that the stored settings are usable for an export.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
