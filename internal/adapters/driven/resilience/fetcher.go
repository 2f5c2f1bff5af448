package resilience

import (
	"context"

	"github.com/custodia-labs/issue-archive/internal/core/domain"
	"github.com/custodia-labs/issue-archive/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.PageFetcher = (*Fetcher)(nil)

// Fetcher decorates a PageFetcher with a Policy.
type Fetcher struct {
	next   driven.PageFetcher
	policy *Policy[*domain.Page]
}

// NewFetcher wraps next with retry and circuit breaking.
func NewFetcher(next driven.PageFetcher, cfg Config) *Fetcher {
	return &Fetcher{
		next:   next,
		policy: New[*domain.Page](cfg),
	}
}

// FetchPage fetches one page through the policy.
func (f *Fetcher) FetchPage(ctx context.Context, repo domain.Repository, cursor string) (*domain.Page, error) {
	return f.policy.Execute(ctx, func(ctx context.Context) (*domain.Page, error) {
		return f.next.FetchPage(ctx, repo, cursor)
	})
}

// Policy returns the underlying policy.
func (f *Fetcher) Policy() *Policy[*domain.Page] {
	return f.policy
}
