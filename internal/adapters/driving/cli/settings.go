package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/issue-archive/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View the effective settings or reset them to defaults.

Settings live in ~/.issue-archive/config.toml unless --config is given.
Command-line flags override them for a single run.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Write default settings to the config file",
	RunE:  runSettingsReset,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	printSettings(cmd, settings)

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("\nWarning: %v\n", err)
	}
	return nil
}

func runSettingsReset(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	defaults := settingsService.GetDefaults()
	if err := settingsService.Save(&defaults); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println("Settings reset to defaults.")
	printSettings(cmd, &defaults)
	return nil
}

func printSettings(cmd *cobra.Command, s *domain.AppSettings) {
	sqlitePath := s.Export.SQLitePath
	if sqlitePath == "" {
		sqlitePath = "(disabled)"
	}
	restURL := s.GitHub.RESTURL
	if restURL == "" {
		restURL = "(default)"
	}

	cmd.Println("Export")
	cmd.Printf("  Output:            %s\n", s.Export.OutputPath)
	cmd.Printf("  SQLite mirror:     %s\n", sqlitePath)
	cmd.Printf("  Pace:              %s\n", s.Export.Pacing)
	cmd.Println("GitHub")
	cmd.Printf("  GraphQL URL:       %s\n", s.GitHub.GraphQLURL)
	cmd.Printf("  REST URL:          %s\n", restURL)
	cmd.Println("Resilience")
	cmd.Printf("  Max attempts:      %d\n", s.Resilience.MaxAttempts)
	cmd.Printf("  Failure threshold: %d\n", s.Resilience.FailureThreshold)
	cmd.Printf("  Open timeout:      %s\n", s.Resilience.OpenTimeout)
	cmd.Printf("  Initial backoff:   %s\n", s.Resilience.InitialBackoff)
	cmd.Printf("  Max backoff:       %s\n", s.Resilience.MaxBackoff)
}
