package driven

import (
	"context"

	"github.com/custodia-labs/issue-archive/internal/core/domain"
)

// PageFetcher retrieves one page of issues with their nested history.
// Implementations perform a single remote read per call and must not
// retry; retry and circuit breaking are layered on by decorators.
type PageFetcher interface {
	// FetchPage returns the page after cursor. An empty cursor requests
	// the first page.
	FetchPage(ctx context.Context, repo domain.Repository, cursor string) (*domain.Page, error)
}

// RepositoryInspector performs a lightweight pre-flight check.
type RepositoryInspector interface {
	// Inspect returns nil if the repository exists, is readable with the
	// configured credentials and has issues enabled.
	Inspect(ctx context.Context, repo domain.Repository) error
}
