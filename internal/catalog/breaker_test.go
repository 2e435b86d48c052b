package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmcdole/moviefan/internal/domain"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	calls   int
	movies  []domain.Movie
	ratings []domain.MovieRating
	err     error
}

func (s *stubCatalog) FetchMovies(ctx context.Context) ([]domain.Movie, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.movies, nil
}

func (s *stubCatalog) FetchRatings(ctx context.Context) ([]domain.MovieRating, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.ratings, nil
}

func testSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

func TestBreakerClient_PassesThrough(t *testing.T) {
	stub := &stubCatalog{
		movies:  []domain.Movie{{ID: 1, Title: "A"}},
		ratings: []domain.MovieRating{{ID: 2, VoteAverage: 7}},
	}
	b := NewBreakerClient(stub, testSettings("test-pass"), nil)

	movies, err := b.FetchMovies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stub.movies, movies)

	ratings, err := b.FetchRatings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stub.ratings, ratings)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerClient_OpensAndRejectsWithoutCalling(t *testing.T) {
	stub := &stubCatalog{err: domain.NetworkError("boom", errors.New("dial tcp"))}
	b := NewBreakerClient(stub, testSettings("test-open"), nil)

	for i := 0; i < 3; i++ {
		_, err := b.FetchMovies(context.Background())
		require.Error(t, err)
		assert.True(t, domain.IsNetwork(err))
	}
	require.Equal(t, gobreaker.StateOpen, b.State())
	callsBefore := stub.calls

	_, err := b.FetchRatings(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsNetwork(err))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, callsBefore, stub.calls, "open breaker must not reach the catalog")
}

func TestBreakerClient_StaysClosedBelowMinimum(t *testing.T) {
	stub := &stubCatalog{err: domain.NetworkError("boom", nil)}
	b := NewBreakerClient(stub, testSettings("test-min"), nil)

	for i := 0; i < 2; i++ {
		_, _ = b.FetchMovies(context.Background())
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
