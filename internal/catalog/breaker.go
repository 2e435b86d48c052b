package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/mmcdole/moviefan/internal/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerSettings configures BreakerClient
type BreakerSettings struct {
	Name         string
	MaxRequests  uint32        // Allowed through while half-open
	Interval     time.Duration // Count reset period while closed
	Timeout      time.Duration // Open -> half-open delay
	MinRequests  uint32        // Requests observed before the ratio is trusted
	FailureRatio float64       // Trip when failures/requests >= ratio
}

// BreakerClient wraps a catalog client with a circuit breaker.
// An open breaker rejects calls without touching the network. It never retries.
type BreakerClient struct {
	next   domain.CatalogClient
	cb     *gobreaker.CircuitBreaker[any]
	name   string
	logger *slog.Logger
}

// NewBreakerClient wraps next with the given breaker settings
func NewBreakerClient(next domain.CatalogClient, st BreakerSettings, logger *slog.Logger) *BreakerClient {
	if logger == nil {
		logger = slog.Default()
	}
	if st.Name == "" {
		st.Name = "catalog-api"
	}

	b := &BreakerClient{next: next, name: st.Name, logger: logger}
	metrics.CircuitBreakerState.WithLabelValues(st.Name).Set(0)

	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        st.Name,
		MaxRequests: st.MaxRequests,
		Interval:    st.Interval,
		Timeout:     st.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < st.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= st.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		// A cancelled caller says nothing about catalog health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return b
}

// FetchMovies calls the wrapped client through the breaker
func (b *BreakerClient) FetchMovies(ctx context.Context) ([]domain.Movie, error) {
	return execute[[]domain.Movie](b, endpointPopular, func() (any, error) {
		return b.next.FetchMovies(ctx)
	})
}

// FetchRatings calls the wrapped client through the breaker
func (b *BreakerClient) FetchRatings(ctx context.Context) ([]domain.MovieRating, error) {
	return execute[[]domain.MovieRating](b, endpointTopRated, func() (any, error) {
		return b.next.FetchRatings(ctx)
	})
}

// State returns the current breaker state
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func execute[T any](b *BreakerClient, endpoint string, fn func() (any, error)) (T, error) {
	var zero T
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CatalogRequests.WithLabelValues(endpoint, "rejected").Inc()
			b.logger.Warn("circuit breaker rejected request", "name", b.name, "endpoint", endpoint)
			return zero, domain.NetworkError("catalog temporarily unavailable", err)
		}
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, domain.NetworkError(fmt.Sprintf("unexpected result type %T", result), nil)
	}
	return typed, nil
}

// stateToFloat converts breaker state to the gauge encoding
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
