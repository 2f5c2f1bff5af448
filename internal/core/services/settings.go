package services

import (
	"fmt"
	"net/url"
	"time"

	"github.com/custodia-labs/issue-archive/internal/core/domain"
	"github.com/custodia-labs/issue-archive/internal/core/ports/driven"
	"github.com/custodia-labs/issue-archive/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyOutputPath       = "export.output"
	keySQLitePath       = "export.sqlite"
	keyPacing           = "export.pace"
	keyGraphQLURL       = "github.graphql_url"
	keyRESTURL          = "github.rest_url"
	keyMaxAttempts      = "resilience.max_attempts"
	keyFailureThreshold = "resilience.failure_threshold"
	keyOpenTimeout      = "resilience.open_timeout"
	keyInitialBackoff   = "resilience.initial_backoff"
	keyMaxBackoff       = "resilience.max_backoff"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
	}
}

// Get retrieves current application settings.
// Missing or unparsable values fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Export: domain.ExportSettings{
			OutputPath: s.getString(keyOutputPath, defaults.Export.OutputPath),
			SQLitePath: s.configStore.GetString(keySQLitePath), // No default - empty disables the mirror
			Pacing:     s.getDuration(keyPacing, defaults.Export.Pacing),
		},
		GitHub: domain.GitHubSettings{
			GraphQLURL: s.getString(keyGraphQLURL, defaults.GitHub.GraphQLURL),
			RESTURL:    s.configStore.GetString(keyRESTURL),
		},
		Resilience: domain.ResilienceSettings{
			MaxAttempts:      s.getInt(keyMaxAttempts, defaults.Resilience.MaxAttempts),
			FailureThreshold: s.getInt(keyFailureThreshold, defaults.Resilience.FailureThreshold),
			OpenTimeout:      s.getDuration(keyOpenTimeout, defaults.Resilience.OpenTimeout),
			InitialBackoff:   s.getDuration(keyInitialBackoff, defaults.Resilience.InitialBackoff),
			MaxBackoff:       s.getDuration(keyMaxBackoff, defaults.Resilience.MaxBackoff),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyOutputPath, settings.Export.OutputPath},
		{keySQLitePath, settings.Export.SQLitePath},
		{keyPacing, settings.Export.Pacing.String()},
		{keyGraphQLURL, settings.GitHub.GraphQLURL},
		{keyRESTURL, settings.GitHub.RESTURL},
		{keyMaxAttempts, settings.Resilience.MaxAttempts},
		{keyFailureThreshold, settings.Resilience.FailureThreshold},
		{keyOpenTimeout, settings.Resilience.OpenTimeout.String()},
		{keyInitialBackoff, settings.Resilience.InitialBackoff.String()},
		{keyMaxBackoff, settings.Resilience.MaxBackoff.String()},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// Validate checks that the stored settings are usable for an export.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Export.OutputPath == "" {
		return fmt.Errorf("%w: %s must not be empty", domain.ErrInvalidInput, keyOutputPath)
	}
	if settings.Export.Pacing < 0 {
		return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidInput, keyPacing)
	}
	if u, err := url.Parse(settings.GitHub.GraphQLURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %s is not an absolute URL", domain.ErrInvalidInput, keyGraphQLURL)
	}
	if settings.Resilience.MaxAttempts < 1 {
		return fmt.Errorf("%w: %s must be at least 1", domain.ErrInvalidInput, keyMaxAttempts)
	}
	if settings.Resilience.FailureThreshold < 1 {
		return fmt.Errorf("%w: %s must be at least 1", domain.ErrInvalidInput, keyFailureThreshold)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// getString returns the stored string or defaultVal when unset.
func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

// getInt returns the stored integer or defaultVal when unset.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); exists {
		return s.configStore.GetInt(key)
	}
	return defaultVal
}

// getDuration parses a duration string such as "600ms" or "1m".
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	str := s.configStore.GetString(key)
	if str == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
