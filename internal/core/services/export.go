package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/custodia-labs/issue-archive/internal/core/domain"
	"github.com/custodia-labs/issue-archive/internal/core/ports/driven"
	"github.com/custodia-labs/issue-archive/internal/core/ports/driving"
	"github.com/custodia-labs/issue-archive/internal/logger"
)

// Ensure ExportService implements the interface.
var _ driving.Exporter = (*ExportService)(nil)

// ExportService pages through a repository's issues and persists the
// reconstructed records. Pages are fetched one at a time; the next fetch
// starts only after the previous page has been written.
type ExportService struct {
	fetcher   driven.PageFetcher
	sink      driven.IssueSink
	inspector driven.RepositoryInspector
	pacing    time.Duration
	progress  func(domain.Progress)
	sleep     func(ctx context.Context, d time.Duration) error
	newRunID  func() string
}

// ExportOption configures an ExportService.
type ExportOption func(*ExportService)

// WithPacing sets the delay between pages. Zero disables pacing.
func WithPacing(d time.Duration) ExportOption {
	return func(s *ExportService) {
		s.pacing = d
	}
}

// WithInspector runs a pre-flight repository check before the first fetch.
func WithInspector(i driven.RepositoryInspector) ExportOption {
	return func(s *ExportService) {
		s.inspector = i
	}
}

// WithProgress registers a callback invoked after each persisted page.
func WithProgress(fn func(domain.Progress)) ExportOption {
	return func(s *ExportService) {
		s.progress = fn
	}
}

// WithSleeper replaces the pacing wait. Used by tests.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) ExportOption {
	return func(s *ExportService) {
		s.sleep = fn
	}
}

// WithRunID fixes the run ID instead of generating one, so other
// components of the same run can share it.
func WithRunID(id string) ExportOption {
	return func(s *ExportService) {
		s.newRunID = func() string { return id }
	}
}

// NewExportService creates an export service.
func NewExportService(fetcher driven.PageFetcher, sink driven.IssueSink, opts ...ExportOption) *ExportService {
	s := &ExportService{
		fetcher:  fetcher,
		sink:     sink,
		pacing:   domain.DefaultPacing,
		sleep:    sleepContext,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export fetches and persists pages until the remote source reports no
// further pages. On failure the returned error is an *domain.ExportError
// carrying the cursor of the last persisted page.
func (s *ExportService) Export(ctx context.Context, req domain.ExportRequest) (domain.ExportResult, error) {
	if s.fetcher == nil || s.sink == nil {
		return domain.ExportResult{}, errors.New("export service not configured")
	}

	result := domain.ExportResult{
		RunID:      s.newRunID(),
		LastCursor: req.Cursor,
	}
	log := logger.L().With().
		Str("run_id", result.RunID).
		Str("repo", req.Repo.String()).
		Logger()

	if s.inspector != nil {
		if err := s.inspector.Inspect(ctx, req.Repo); err != nil {
			return result, fmt.Errorf("inspect %s: %w", req.Repo, err)
		}
	}

	log.Info().Str("cursor", req.Cursor).Msg("export started")

	cursor := req.Cursor
	for {
		pageNum := result.Pages + 1

		page, err := s.fetcher.FetchPage(ctx, req.Repo, cursor)
		if err != nil {
			log.Error().Err(err).Int("page", pageNum).Str("cursor", cursor).Msg("page fetch failed")
			return result, &domain.ExportError{Cursor: cursor, Page: pageNum, Err: err}
		}

		if page.HasNextPage && page.EndCursor == "" {
			log.Error().Int("page", pageNum).Str("cursor", cursor).Msg("next page reported without end cursor")
			return result, &domain.ExportError{
				Cursor: cursor,
				Page:   pageNum,
				Err:    fmt.Errorf("%w: next page reported without end cursor", domain.ErrMalformedPage),
			}
		}

		issues := make([]domain.Issue, 0, len(page.Issues))
		for _, raw := range page.Issues {
			issues = append(issues, Reconstruct(raw))
		}

		if err := s.sink.Append(ctx, issues); err != nil {
			log.Error().Err(err).Int("page", pageNum).Msg("persist failed")
			return result, &domain.ExportError{Cursor: cursor, Page: pageNum, Err: fmt.Errorf("append page: %w", err)}
		}

		result.Pages = pageNum
		result.Issues += len(issues)
		result.Remaining = page.RateLimit.Remaining
		if page.EndCursor != "" {
			result.LastCursor = page.EndCursor
		}

		s.report(log, domain.Progress{
			RunID:       result.RunID,
			Page:        pageNum,
			LastIssue:   page.LastIssueNumber(),
			Remaining:   page.RateLimit.Remaining,
			Cost:        page.RateLimit.Cost,
			Cursor:      page.EndCursor,
			HasNextPage: page.HasNextPage,
		})

		if !page.HasNextPage {
			break
		}
		cursor = page.EndCursor

		if s.pacing > 0 {
			if err := s.sleep(ctx, s.pacing); err != nil {
				return result, &domain.ExportError{Cursor: cursor, Page: pageNum + 1, Err: err}
			}
		}
	}

	log.Info().
		Int("pages", result.Pages).
		Int("issues", result.Issues).
		Int("remaining", result.Remaining).
		Msg("export finished")

	return result, nil
}

func (s *ExportService) report(log zerolog.Logger, p domain.Progress) {
	log.Info().
		Int("page", p.Page).
		Int("last_issue", p.LastIssue).
		Int("remaining", p.Remaining).
		Int("cost", p.Cost).
		Str("cursor", p.Cursor).
		Msg("page exported")

	if s.progress != nil {
		s.progress(p)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
