package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/issue-archive/internal/adapters/driven/resilience"
	"github.com/custodia-labs/issue-archive/internal/adapters/driven/storage"
	"github.com/custodia-labs/issue-archive/internal/adapters/driven/storage/jsonl"
	"github.com/custodia-labs/issue-archive/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/issue-archive/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/issue-archive/internal/connectors/github"
	"github.com/custodia-labs/issue-archive/internal/core/domain"
	"github.com/custodia-labs/issue-archive/internal/core/ports/driving"
	"github.com/custodia-labs/issue-archive/internal/core/services"
)

// TokenEnvVar is read when --token is not given.
const TokenEnvVar = "GITHUB_TOKEN"

// Export flags.
var (
	exportCursor    string
	exportToken     string
	exportOutput    string
	exportSQLite    string
	exportPace      time.Duration
	exportDryRun    bool
	exportSkipCheck bool
)

var exportCmd = &cobra.Command{
	Use:   "export OWNER/REPO",
	Short: "Export the issue history of a repository",
	Long: `Pages through every issue of OWNER/REPO and appends one JSON record per
issue to the output file. Existing content is never rewritten, so a run
that fails part way can be resumed with --cursor.

The token is read from --token or the GITHUB_TOKEN environment variable.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportCursor, "cursor", "", "resume after this pagination cursor")
	f.StringVar(&exportToken, "token", "", "GitHub token (default $GITHUB_TOKEN)")
	f.StringVarP(&exportOutput, "output", "o", "", "NDJSON output file (default from config, else issues.jsonl)")
	f.StringVar(&exportSQLite, "sqlite", "", "also mirror records into this SQLite database")
	f.DurationVar(&exportPace, "pace", domain.DefaultPacing, "delay between page requests")
	f.BoolVar(&exportDryRun, "dry-run", false, "fetch and reconstruct without writing files")
	f.BoolVar(&exportSkipCheck, "skip-check", false, "skip the repository pre-flight check")
	rootCmd.AddCommand(exportCmd)
}

// exportConfig is the resolved configuration for one export run.
type exportConfig struct {
	Token      string
	OutputPath string
	SQLitePath string
	Pacing     time.Duration
	DryRun     bool
	SkipCheck  bool
	GitHub     domain.GitHubSettings
	Resilience domain.ResilienceSettings
	RunID      string
	Progress   func(domain.Progress)
}

// exportPipeline is a built exporter together with the sinks it feeds.
type exportPipeline struct {
	driving.Exporter
	dryRun  *memory.Sink
	mirror  *sqlite.Store
	closeFn func() error
}

// Close releases sink resources.
func (p *exportPipeline) Close() error {
	if p.closeFn == nil {
		return nil
	}
	return p.closeFn()
}

// summarize prints what the sinks took in during a finished run.
func (p *exportPipeline) summarize(ctx context.Context, cmd *cobra.Command, runID string) {
	if p.dryRun != nil {
		last := 0
		if batch := p.dryRun.Last(); len(batch) > 0 {
			last = batch[len(batch)-1].Number
		}
		cmd.Printf("Dry run: reconstructed %d issues in %d pages, last issue #%d. Nothing was written.\n",
			p.dryRun.Count(), p.dryRun.Batches(), last)
	}
	if p.mirror != nil {
		n, err := p.mirror.CountIssues(ctx, runID)
		if err != nil {
			cmd.PrintErrf("Warning: count mirrored rows: %v\n", err)
			return
		}
		cmd.Printf("Mirrored %d rows to %s.\n", n, p.mirror.Path())
	}
}

// newExporter builds the export pipeline. Replaced in tests.
var newExporter = buildExporter

func runExport(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	repo, err := domain.ParseRepository(args[0])
	if err != nil {
		return err
	}

	settings, err := runSettings(cmd)
	if err != nil {
		return err
	}

	cfg := newExportConfig(settings)
	if cfg.Token == "" {
		return fmt.Errorf("%w: pass --token or set %s", domain.ErrAuthRequired, TokenEnvVar)
	}
	cfg.Progress = func(p domain.Progress) {
		cmd.Printf("Page %d: last issue #%d, %d points remaining\n", p.Page, p.LastIssue, p.Remaining)
	}

	pipeline, err := newExporter(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := pipeline.Close(); cerr != nil {
			cmd.PrintErrf("Warning: close sinks: %v\n", cerr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target := cfg.OutputPath
	if cfg.DryRun {
		target = "memory (dry run)"
	}
	cmd.Printf("Exporting %s to %s...\n", repo, target)

	result, err := pipeline.Export(ctx, domain.ExportRequest{Repo: repo, Cursor: exportCursor})
	if err != nil {
		var exportErr *domain.ExportError
		if errors.As(err, &exportErr) && exportErr.Cursor != "" {
			cmd.PrintErrf("Resume with: issue-archive export %s --cursor %s\n", repo, exportErr.Cursor)
		}
		return fmt.Errorf("export failed: %w", err)
	}

	cmd.Printf("Exported %d issues in %d pages (run %s).\n", result.Issues, result.Pages, result.RunID)
	if result.LastCursor != "" {
		cmd.Printf("Last cursor: %s\n", result.LastCursor)
	}
	pipeline.summarize(ctx, cmd, result.RunID)
	return nil
}

// runSettings layers the export flags over the stored settings for this
// run only and validates the result. The config file is left untouched.
func runSettings(cmd *cobra.Command) (*domain.AppSettings, error) {
	svc := services.NewSettingsService(memory.NewConfigStore(configStore))

	settings, err := svc.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if exportOutput != "" {
		settings.Export.OutputPath = exportOutput
	}
	if exportSQLite != "" {
		settings.Export.SQLitePath = exportSQLite
	}
	if cmd.Flags().Changed("pace") {
		settings.Export.Pacing = exportPace
	}
	if err := svc.Save(settings); err != nil {
		return nil, fmt.Errorf("apply flags: %w", err)
	}

	if err := svc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return svc.Get()
}

// newExportConfig combines the run settings with the remaining flags.
func newExportConfig(settings *domain.AppSettings) exportConfig {
	cfg := exportConfig{
		Token:      exportToken,
		OutputPath: settings.Export.OutputPath,
		SQLitePath: settings.Export.SQLitePath,
		Pacing:     settings.Export.Pacing,
		DryRun:     exportDryRun,
		SkipCheck:  exportSkipCheck,
		GitHub:     settings.GitHub,
		Resilience: settings.Resilience,
		RunID:      uuid.NewString(),
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv(TokenEnvVar)
	}
	return cfg
}

// buildExporter wires the GitHub client, resilience policy and sinks.
// The SQLite mirror takes each page before the NDJSON file, so a failed
// mirror write never leaves a page in the file that a resume repeats.
func buildExporter(cfg exportConfig) (*exportPipeline, error) {
	client := github.NewClientWithToken(cfg.Token,
		github.WithGraphQLURL(cfg.GitHub.GraphQLURL),
		github.WithRESTURL(cfg.GitHub.RESTURL),
	)
	fetcher := resilience.NewFetcher(client, resilience.ConfigFromSettings(cfg.Resilience))

	pipeline := &exportPipeline{}
	var sinks storage.MultiSink
	if cfg.DryRun {
		pipeline.dryRun = memory.NewSink()
		sinks = append(sinks, pipeline.dryRun)
	} else {
		if cfg.SQLitePath != "" {
			store, err := sqlite.NewStore(cfg.SQLitePath)
			if err != nil {
				return nil, fmt.Errorf("open sqlite mirror: %w", err)
			}
			pipeline.mirror = store
			pipeline.closeFn = store.Close
			sinks = append(sinks, store.Sink(cfg.RunID))
		}
		sinks = append(sinks, jsonl.NewSink(cfg.OutputPath))
	}

	opts := []services.ExportOption{
		services.WithPacing(cfg.Pacing),
		services.WithRunID(cfg.RunID),
	}
	if !cfg.SkipCheck {
		opts = append(opts, services.WithInspector(client))
	}
	if cfg.Progress != nil {
		opts = append(opts, services.WithProgress(cfg.Progress))
	}

	pipeline.Exporter = services.NewExportService(fetcher, sinks, opts...)
	return pipeline, nil
}
