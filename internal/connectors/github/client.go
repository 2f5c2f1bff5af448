package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/issue-archive/internal/core/domain"
	"github.com/custodia-labs/issue-archive/internal/core/ports/driven"
	"github.com/custodia-labs/issue-archive/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody bounds how much of a failed response is kept.
	maxErrorBody = 1024
)

// Ensure Client implements the driven ports.
var (
	_ driven.PageFetcher         = (*Client)(nil)
	_ driven.RepositoryInspector = (*Client)(nil)
)

// StaticToken is a TokenProvider for a fixed token.
type StaticToken string

// GetToken returns the token, or domain.ErrAuthRequired if it is empty.
func (t StaticToken) GetToken(_ context.Context) (string, error) {
	if t == "" {
		return "", domain.ErrAuthRequired
	}
	return string(t), nil
}

// Client talks to the GitHub GraphQL and REST APIs.
type Client struct {
	tokenProvider driven.TokenProvider
	rateLimiter   *RateLimiter
	graphqlURL    string
	restURL       string
	baseHTTP      *http.Client

	gql  *githubv4.Client
	rest *gh.Client
}

// Option configures a Client.
type Option func(*Client)

// WithGraphQLURL points the client at a GitHub Enterprise GraphQL endpoint.
func WithGraphQLURL(u string) Option {
	return func(c *Client) {
		c.graphqlURL = u
	}
}

// WithRESTURL points the client at a GitHub Enterprise REST base URL.
func WithRESTURL(u string) Option {
	return func(c *Client) {
		c.restURL = u
	}
}

// WithHTTPClient sets the underlying HTTP client. Auth is layered on top.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.baseHTTP = hc
	}
}

// WithRateLimiter replaces the default rate limiter.
func WithRateLimiter(r *RateLimiter) Option {
	return func(c *Client) {
		c.rateLimiter = r
	}
}

// NewClient creates a new GitHub API client with a token provider.
func NewClient(tokenProvider driven.TokenProvider, opts ...Option) *Client {
	c := &Client{
		tokenProvider: tokenProvider,
		rateLimiter:   NewRateLimiter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientWithToken creates a GitHub client with a static access token.
// Works for both PAT and OAuth access tokens.
func NewClientWithToken(token string, opts ...Option) *Client {
	return NewClient(StaticToken(token), opts...)
}

// ensureClient initializes the API clients if not already done.
// This is called lazily so we can get the token when needed.
func (c *Client) ensureClient(ctx context.Context) error {
	if c.gql != nil {
		return nil
	}
	if c.tokenProvider == nil {
		return domain.ErrAuthRequired
	}

	token, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}

	base := c.baseHTTP
	if base == nil {
		base = &http.Client{}
	}
	inner := base.Transport
	if inner == nil {
		inner = http.DefaultTransport
	}
	checked := &http.Client{Transport: &statusTransport{base: inner, limiter: c.rateLimiter}}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	// The client is cached, so it must not inherit ctx.
	tc := oauth2.NewClient(context.WithValue(context.Background(), oauth2.HTTPClient, checked), ts)
	tc.Timeout = DefaultTimeout

	if c.graphqlURL != "" && c.graphqlURL != domain.DefaultGraphQLURL {
		c.gql = githubv4.NewEnterpriseClient(c.graphqlURL, tc)
	} else {
		c.gql = githubv4.NewClient(tc)
	}

	rest := gh.NewClient(tc)
	if c.restURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(c.restURL, "/") + "/")
		if err != nil {
			return fmt.Errorf("%w: rest url: %v", domain.ErrInvalidInput, err)
		}
		rest.BaseURL = baseURL
	}
	c.rest = rest

	return nil
}

// FetchPage issues one GraphQL query for the page of issues after cursor.
func (c *Client) FetchPage(ctx context.Context, repo domain.Repository, cursor string) (*domain.Page, error) {
	if err := c.ensureClient(ctx); err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var q issuesQuery
	if err := c.gql.Query(ctx, &q, queryVariables(repo, cursor)); err != nil {
		return nil, c.wrapError(err, "query issues")
	}

	page := q.toPage()
	c.rateLimiter.Record(page.RateLimit)

	logger.Debug("github: fetched %d issues for %s (cost=%d remaining=%d)",
		len(page.Issues), repo, page.RateLimit.Cost, page.RateLimit.Remaining)

	return page, nil
}

// Inspect confirms the repository exists and has issues enabled.
func (c *Client) Inspect(ctx context.Context, repo domain.Repository) error {
	if err := c.ensureClient(ctx); err != nil {
		return err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	r, _, err := c.rest.Repositories.Get(ctx, repo.Owner, repo.Name)
	if err != nil {
		err = c.wrapError(err, "get repo")
		switch {
		case IsUnauthorized(err):
			return fmt.Errorf("%w: %v", domain.ErrAuthInvalid, err)
		case IsNotFound(err):
			return fmt.Errorf("%w: repository %s: %v", domain.ErrNotFound, repo, err)
		}
		return err
	}

	if !r.GetHasIssues() {
		return fmt.Errorf("%w: %s", domain.ErrIssuesDisabled, repo)
	}
	return nil
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// wrapError converts transport and API errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	var rateLimitErr *RateLimitError
	if errors.As(err, &apiErr) || errors.As(err, &rateLimitErr) {
		return fmt.Errorf("%s: %w", operation, err)
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
			URL:        ghErr.Response.Request.URL.String(),
		}
	}

	var ghRate *gh.RateLimitError
	if errors.As(err, &ghRate) {
		return &RateLimitError{
			ResetAt:   ghRate.Rate.Reset.Time,
			Remaining: ghRate.Rate.Remaining,
			Limit:     ghRate.Rate.Limit,
			Err:       err,
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", operation, err)
	}

	// Anything left came back as a GraphQL errors array.
	msg := err.Error()
	if strings.Contains(strings.ToLower(msg), "rate limit") {
		return &RateLimitError{
			ResetAt:   c.rateLimiter.ResetTime(),
			Remaining: c.rateLimiter.Remaining(),
			Limit:     c.rateLimiter.Limit(),
			Err:       err,
		}
	}
	return &QueryError{Messages: []string{msg}, Err: err}
}

// statusTransport records rate-limit headers and turns non-2xx responses
// into typed errors.
type statusTransport struct {
	base    http.RoundTripper
	limiter *RateLimiter
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if rlErr := t.limiter.CheckRateLimit(resp); rlErr != nil {
		drain(resp.Body)
		return nil, rlErr
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return resp, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	drain(resp.Body)
	return nil, &APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
		URL:        req.URL.String(),
	}
}

func drain(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, rc)
	_ = rc.Close()
}
