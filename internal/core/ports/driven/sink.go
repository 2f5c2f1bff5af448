package driven

import (
	"context"

	"github.com/custodia-labs/issue-archive/internal/core/domain"
)

// IssueSink persists derived issue records.
// Append adds one batch after everything previously written and never
// reads, rewrites or truncates earlier content.
type IssueSink interface {
	Append(ctx context.Context, issues []domain.Issue) error
}
