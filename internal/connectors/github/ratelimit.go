package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/issue-archive/internal/core/domain"
)

const (
	// GraphQLPointLimit is the hourly GraphQL budget of an authenticated user.
	GraphQLPointLimit = 5000

	// ProactiveRate is the token bucket rate in requests per second.
	// It sits above the export pacing so it only bites during retry bursts.
	ProactiveRate = 2.0

	// MinBuffer is the number of points kept in reserve beyond the cost of
	// the next query.
	MinBuffer = 100

	// ResourceGraphQL is the X-RateLimit-Resource value of GraphQL responses.
	ResourceGraphQL = "graphql"

	HeaderRateLimit     = "X-RateLimit-Limit"
	HeaderRateRemaining = "X-RateLimit-Remaining"
	HeaderRateReset     = "X-RateLimit-Reset"
	HeaderRateResource  = "X-RateLimit-Resource"
	HeaderRetryAfter    = "Retry-After"
)

// RateLimiter paces requests against the GraphQL point budget.
//
// A token bucket spaces requests out. Beyond that, Wait holds a request
// until the budget resets whenever the points left would not cover the cost
// of the previous query plus MinBuffer. The budget is learned from the
// rateLimit block of each page and from X-RateLimit headers of the graphql
// resource. Headers of other resources, such as the REST core budget used
// by Inspect, are not mixed in.
type RateLimiter struct {
	mu        sync.Mutex
	limit     int
	remaining int
	lastCost  int
	resetAt   time.Time
	minBuffer int
	bucket    *rate.Limiter
	now       func() time.Time
}

// NewRateLimiter creates a limiter that assumes a full budget.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limit:     GraphQLPointLimit,
		remaining: GraphQLPointLimit,
		lastCost:  1,
		minBuffer: MinBuffer,
		bucket:    rate.NewLimiter(rate.Limit(ProactiveRate), 1),
		now:       time.Now,
	}
}

// Wait blocks until the next query may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	hold := r.holdFor()
	if hold <= 0 {
		return nil
	}

	timer := time.NewTimer(hold)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// holdFor returns how long the next query has to wait for a reset.
func (r *RateLimiter) holdFor() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resetAt.IsZero() {
		return 0
	}
	now := r.now()
	if !now.Before(r.resetAt) {
		// New window: the whole budget is available again.
		r.remaining = r.limit
		r.resetAt = time.Time{}
		return 0
	}
	if r.remaining >= r.lastCost+r.minBuffer {
		return 0
	}
	return r.resetAt.Sub(now)
}

// Record stores the rateLimit block reported with a page.
func (r *RateLimiter) Record(rl domain.RateLimit) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.remaining = rl.Remaining
	if rl.Cost > 0 {
		r.lastCost = rl.Cost
	}
	if !rl.ResetAt.IsZero() {
		r.resetAt = rl.ResetAt
	}
}

// CheckRateLimit records the quota headers of resp and returns a
// *RateLimitError for a 429, or for a 403 whose quota is exhausted.
func (r *RateLimiter) CheckRateLimit(resp *http.Response) error {
	if resp == nil {
		return nil
	}

	h := resp.Header
	remaining, hasRemaining := headerInt(h, HeaderRateRemaining)
	limit, _ := headerInt(h, HeaderRateLimit)
	var resetAt time.Time
	if reset, ok := headerInt(h, HeaderRateReset); ok {
		resetAt = time.Unix(int64(reset), 0)
	}

	if res := h.Get(HeaderRateResource); res == "" || res == ResourceGraphQL {
		r.mu.Lock()
		if hasRemaining {
			r.remaining = remaining
		}
		if limit > 0 {
			r.limit = limit
		}
		if !resetAt.IsZero() {
			r.resetAt = resetAt
		}
		r.mu.Unlock()
	}

	exhausted := resp.StatusCode == http.StatusForbidden && hasRemaining && remaining == 0
	if resp.StatusCode != http.StatusTooManyRequests && !exhausted {
		return nil
	}

	if seconds, ok := headerInt(h, HeaderRetryAfter); ok {
		resetAt = r.now().Add(time.Duration(seconds) * time.Second)
	}
	return &RateLimitError{
		ResetAt:   resetAt,
		Remaining: remaining,
		Limit:     limit,
	}
}

// Remaining returns the points left in the current window.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// Limit returns the size of the budget.
func (r *RateLimiter) Limit() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limit
}

// LastCost returns the cost of the most recent query.
func (r *RateLimiter) LastCost() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastCost
}

// ResetTime returns when the current window ends, or zero if unknown.
func (r *RateLimiter) ResetTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetAt
}

func headerInt(h http.Header, key string) (int, bool) {
	v := h.Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
