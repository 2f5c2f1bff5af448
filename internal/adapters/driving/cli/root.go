package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/issue-archive/internal/adapters/driven/config/file"
	"github.com/custodia-labs/issue-archive/internal/core/ports/driven"
	"github.com/custodia-labs/issue-archive/internal/core/ports/driving"
	"github.com/custodia-labs/issue-archive/internal/core/services"
	"github.com/custodia-labs/issue-archive/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Global flags.
var (
	verbose    bool
	configPath string
)

// Loaded before any command runs unless already set.
var (
	configStore     driven.ConfigStore
	settingsService driving.SettingsService
)

var rootCmd = &cobra.Command{
	Use:   "issue-archive",
	Short: "Archive the issue history of a GitHub repository",
	Long: `issue-archive exports every issue of a GitHub repository to an
append-only NDJSON file. Each label change is recorded together with the
title and body the issue had at that moment.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.issue-archive/config.toml)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetPretty(term.IsTerminal(int(os.Stderr.Fd())))

	if configStore == nil {
		store, err := file.NewConfigStore(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		configStore = store
	}
	if settingsService == nil {
		settingsService = services.NewSettingsService(configStore)
	}
	return nil
}
