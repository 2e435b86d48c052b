package library

import (
	"context"
	"strings"

	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/mmcdole/moviefan/internal/search"
	"github.com/mmcdole/moviefan/internal/state"
)

// Queries provides synchronous reads. It never touches the network.
type Queries struct {
	store  domain.MovieStore
	holder *state.Holder
}

// NewQueries creates a new Queries instance.
func NewQueries(store domain.MovieStore, holder *state.Holder) *Queries {
	return &Queries{store: store, holder: holder}
}

// CachedMovies returns every stored movie ordered by ID
func (q *Queries) CachedMovies(ctx context.Context) ([]domain.Movie, error) {
	records, err := q.store.FindAll(ctx)
	if err != nil {
		return nil, domain.AsDataError(err, domain.KindStore)
	}
	return domain.Movies(records), nil
}

func (q *Queries) Movies() []domain.Movie {
	return q.holder.Snapshot().Movies
}

func (q *Queries) Ratings() []domain.MovieRating {
	return q.holder.Snapshot().Ratings
}

// Filter matches query against the held movie titles. A blank query returns
// every held movie in its current order.
func (q *Queries) Filter(query string) []search.Result {
	movies := q.Movies()
	if strings.TrimSpace(query) == "" {
		results := make([]search.Result, len(movies))
		for i, m := range movies {
			results[i] = search.Result{Movie: m}
		}
		return results
	}
	return search.Filter(query, movies)
}
