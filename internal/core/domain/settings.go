package domain

import "time"

// Default values for export behaviour.
const (
	// DefaultOutputPath is the archive file, relative to the working directory.
	DefaultOutputPath = "issues.jsonl"

	// DefaultPacing is the pause between consecutive page fetches.
	DefaultPacing = 600 * time.Millisecond

	// DefaultGraphQLURL is the public GitHub GraphQL endpoint.
	DefaultGraphQLURL = "https://api.github.com/graphql"
)

// Default values for the resilience policy.
const (
	DefaultMaxAttempts      = 10
	DefaultFailureThreshold = 5
	DefaultOpenTimeout      = 60 * time.Second
	DefaultInitialBackoff   = 500 * time.Millisecond
	DefaultMaxBackoff       = 30 * time.Second
)

// ExportSettings controls where and how fast records are written.
type ExportSettings struct {
	// OutputPath is the NDJSON archive that every run appends to.
	OutputPath string

	// SQLitePath optionally mirrors each batch into a SQLite database.
	// Empty disables the mirror.
	SQLitePath string

	// Pacing is the fixed delay between pages.
	Pacing time.Duration
}

// GitHubSettings holds remote endpoint configuration.
type GitHubSettings struct {
	// GraphQLURL is the GraphQL endpoint. Override for GitHub Enterprise.
	GraphQLURL string

	// RESTURL is the REST base URL used for the pre-flight check.
	// Empty means public GitHub.
	RESTURL string
}

// ResilienceSettings tunes retry and circuit breaking around page fetches.
type ResilienceSettings struct {
	MaxAttempts      int
	FailureThreshold int
	OpenTimeout      time.Duration
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Export     ExportSettings
	GitHub     GitHubSettings
	Resilience ResilienceSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Export: ExportSettings{
			OutputPath: DefaultOutputPath,
			Pacing:     DefaultPacing,
		},
		GitHub: GitHubSettings{
			GraphQLURL: DefaultGraphQLURL,
		},
		Resilience: ResilienceSettings{
			MaxAttempts:      DefaultMaxAttempts,
			FailureThreshold: DefaultFailureThreshold,
			OpenTimeout:      DefaultOpenTimeout,
			InitialBackoff:   DefaultInitialBackoff,
			MaxBackoff:       DefaultMaxBackoff,
		},
	}
}
