// Package resilience wraps remote calls in bounded retry and a circuit
// breaker.
//
// Every retry attempt runs through the breaker. Once the breaker has seen
// FailureThreshold consecutive failures it opens and rejects calls with
// gobreaker.ErrOpenState, without invoking the operation, until OpenTimeout
// has passed. It then lets a single trial call through: success closes the
// circuit, failure opens it again for another OpenTimeout.
package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"

	"github.com/custodia-labs/issue-archive/internal/core/domain"
	"github.com/custodia-labs/issue-archive/internal/logger"
)

// ErrOpenState is returned for calls rejected by an open breaker.
var ErrOpenState = gobreaker.ErrOpenState

// Config tunes retry and breaker behaviour.
type Config struct {
	// Name identifies the breaker in log lines.
	Name string

	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// InitialInterval, MaxInterval, Multiplier and RandomizationFactor
	// shape the jittered exponential backoff between attempts.
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64

	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold int

	// OpenTimeout is how long the breaker stays open before a trial call.
	OpenTimeout time.Duration
}

// DefaultConfig returns ten attempts and a breaker that opens after five
// consecutive failures for sixty seconds.
func DefaultConfig() Config {
	return Config{
		Name:                "github",
		MaxAttempts:         domain.DefaultMaxAttempts,
		InitialInterval:     domain.DefaultInitialBackoff,
		MaxInterval:         domain.DefaultMaxBackoff,
		Multiplier:          2,
		RandomizationFactor: 0.5,
		FailureThreshold:    domain.DefaultFailureThreshold,
		OpenTimeout:         domain.DefaultOpenTimeout,
	}
}

// ConfigFromSettings builds a Config from application settings.
func ConfigFromSettings(s domain.ResilienceSettings) Config {
	cfg := DefaultConfig()
	if s.MaxAttempts > 0 {
		cfg.MaxAttempts = s.MaxAttempts
	}
	if s.FailureThreshold > 0 {
		cfg.FailureThreshold = s.FailureThreshold
	}
	if s.OpenTimeout > 0 {
		cfg.OpenTimeout = s.OpenTimeout
	}
	if s.InitialBackoff > 0 {
		cfg.InitialInterval = s.InitialBackoff
	}
	if s.MaxBackoff > 0 {
		cfg.MaxInterval = s.MaxBackoff
	}
	return cfg
}

// Policy executes operations returning T under retry and circuit breaking.
// The breaker state is shared by every call made through one Policy.
type Policy[T any] struct {
	cfg     Config
	breaker *gobreaker.CircuitBreaker[T]
}

// New creates a policy.
func New[T any](cfg Config) *Policy[T] {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 1
	}
	threshold := uint32(cfg.FailureThreshold)

	breaker := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.L().Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &Policy[T]{cfg: cfg, breaker: breaker}
}

// State reports the breaker state.
func (p *Policy[T]) State() gobreaker.State {
	return p.breaker.State()
}

// Execute runs op until it succeeds, MaxAttempts is reached or ctx ends.
// Every failure is retried, including breaker rejections. The error of
// the last attempt is returned. No attempt starts once ctx is done, so
// cancellation never reaches the breaker.
func (p *Policy[T]) Execute(ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	attempt := 0
	operation := func() (T, error) {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}
		attempt++
		result, err := p.breaker.Execute(func() (T, error) {
			return op(ctx)
		})
		if err != nil {
			logger.L().Debug().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", p.cfg.MaxAttempts).
				Msg("attempt failed")
		}
		return result, err
	}

	result, err := backoff.RetryWithData(operation, p.backOff(ctx))
	if err != nil {
		return result, fmt.Errorf("after %d attempts: %w", attempt, err)
	}
	return result, nil
}

func (p *Policy[T]) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.InitialInterval
	b.MaxInterval = p.cfg.MaxInterval
	if p.cfg.Multiplier > 0 {
		b.Multiplier = p.cfg.Multiplier
	}
	b.RandomizationFactor = p.cfg.RandomizationFactor
	// Attempts, not elapsed time, bound the retry loop.
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.cfg.MaxAttempts-1)), ctx)
}
