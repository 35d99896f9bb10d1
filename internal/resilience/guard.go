// Package resilience wraps calls to remote providers with a circuit breaker and a rate limiter.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker open")

// Settings configures a Guard.
type Settings struct {
	Name              string
	RequestsPerMinute int
	// Burst defaults to RequestsPerMinute/10 (at least 1).
	Burst int
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Guard runs calls through a rate limiter and then a circuit breaker.
type Guard struct {
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewGuard returns a guard. A non-positive RequestsPerMinute disables rate limiting.
func NewGuard(s Settings, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 60 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	limiter := rate.NewLimiter(rate.Inf, 0)
	if s.RequestsPerMinute > 0 {
		burst := s.Burst
		if burst <= 0 {
			burst = s.RequestsPerMinute / 10
		}
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(float64(s.RequestsPerMinute)/60.0), burst)
	}
	return &Guard{breaker: breaker, limiter: limiter}
}

// Do waits for the limiter, then runs fn inside the breaker.
func Do[T any](ctx context.Context, g *Guard, fn func() (T, error)) (T, error) {
	var zero T
	if err := g.limiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("rate limit: %w", err)
	}
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %v", ErrOpen, err)
		}
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}

// State reports the breaker state, for health output.
func (g *Guard) State() string {
	return g.breaker.State().String()
}
