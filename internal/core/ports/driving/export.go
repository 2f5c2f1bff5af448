package driving

import (
	"context"

	"github.com/custodia-labs/issue-archive/internal/core/domain"
)

// Exporter drives a full issue export for one repository.
type Exporter interface {
	// Export fetches and persists pages until none remain or a failure
	// survives the resilience policy. Pages are processed strictly in order.
	Export(ctx context.Context, req domain.ExportRequest) (domain.ExportResult, error)
}
