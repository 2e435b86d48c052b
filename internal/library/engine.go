package library

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/mmcdole/moviefan/internal/metrics"
	"github.com/mmcdole/moviefan/internal/state"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// publishTimeout bounds how long a refresh waits for its state mutation to
// run on the dispatcher
const publishTimeout = 5 * time.Second

// Outcome is the result of one refresh
type Outcome struct {
	Stream     domain.Stream
	State      domain.StreamState // Settled, SettledFromCache, Failed or Skipped
	Count      int                // Items now held for the stream
	Err        *domain.DataError  // Non-nil iff State is Failed
	PersistErr *domain.DataError  // Movies only: fetch succeeded but saving failed
	Report     ReconcileReport
}

// Deps are the collaborators an Engine works against
type Deps struct {
	Client       domain.CatalogClient
	Store        domain.MovieStore
	Reachability domain.ReachabilityProvider
	Holder       *state.Holder
	Dispatcher   state.Dispatcher // Defaults to state.Inline
}

// Engine refreshes the movie and rating streams. It hits the network when
// the catalog may be reachable and falls back to the store otherwise.
type Engine struct {
	client   domain.CatalogClient
	store    domain.MovieStore
	reach    domain.ReachabilityProvider
	holder   *state.Holder
	dispatch state.Dispatcher
	logger   *slog.Logger

	refreshTimeout time.Duration
	now            func() time.Time

	flight singleflight.Group

	mu     sync.Mutex
	states map[domain.Stream]domain.StreamState
}

// NewEngine creates an Engine. A non-positive refreshTimeout means refreshes
// are bounded only by the caller's context.
func NewEngine(deps Deps, refreshTimeout time.Duration, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = state.Inline{}
	}
	return &Engine{
		client:         deps.Client,
		store:          deps.Store,
		reach:          deps.Reachability,
		holder:         deps.Holder,
		dispatch:       deps.Dispatcher,
		logger:         logger,
		refreshTimeout: refreshTimeout,
		now:            time.Now,
		states: map[domain.Stream]domain.StreamState{
			domain.StreamMovies:  domain.StateIdle,
			domain.StreamRatings: domain.StateIdle,
		},
	}
}

// StreamState returns the current state of stream
func (e *Engine) StreamState(stream domain.Stream) domain.StreamState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.states[stream]
}

// RefreshMovies fetches popular movies, reconciles them into the store and
// publishes them. When offline it publishes the stored movies instead.
func (e *Engine) RefreshMovies(ctx context.Context) Outcome {
	return e.refresh(ctx, domain.StreamMovies, e.refreshMovies)
}

// RefreshRatings fetches top-rated movies and publishes them. Ratings are
// never stored, so offline this is a no-op.
func (e *Engine) RefreshRatings(ctx context.Context) Outcome {
	return e.refresh(ctx, domain.StreamRatings, e.refreshRatings)
}

// RefreshAll refreshes both streams concurrently
func (e *Engine) RefreshAll(ctx context.Context) (movies, ratings Outcome) {
	var g errgroup.Group
	g.Go(func() error {
		movies = e.RefreshMovies(ctx)
		return nil
	})
	g.Go(func() error {
		ratings = e.RefreshRatings(ctx)
		return nil
	})
	_ = g.Wait()
	return movies, ratings
}

// refresh runs fn at most once at a time per stream. Callers arriving while
// a refresh is in flight wait for it and share its Outcome.
func (e *Engine) refresh(ctx context.Context, stream domain.Stream, fn func(context.Context) Outcome) Outcome {
	leader := false
	v, _, _ := e.flight.Do(string(stream), func() (any, error) {
		leader = true
		start := time.Now()

		if e.refreshTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.refreshTimeout)
			defer cancel()
		}

		out := fn(ctx)
		e.setState(stream, out.State)

		metrics.RefreshTotal.WithLabelValues(string(stream), out.State.String()).Inc()
		metrics.RefreshDuration.WithLabelValues(string(stream)).Observe(time.Since(start).Seconds())
		e.logger.Info("refresh finished",
			"stream", stream,
			"state", out.State.String(),
			"count", out.Count,
			"duration", time.Since(start),
		)
		return out, nil
	})
	if !leader {
		metrics.RefreshShared.WithLabelValues(string(stream)).Inc()
		e.logger.Debug("joined in-flight refresh", "stream", stream)
	}
	return v.(Outcome)
}

func (e *Engine) refreshMovies(ctx context.Context) Outcome {
	stream := domain.StreamMovies
	status := e.reach.Status()
	e.setState(stream, domain.StateFetching)

	if status == domain.Unreachable {
		return e.moviesFromStore(ctx)
	}

	movies, err := e.client.FetchMovies(ctx)
	if err != nil {
		de := domain.AsDataError(err, domain.KindNetwork)
		e.logger.Error("failed to fetch movies", "error", err, "reachability", status.String())
		e.publish(ctx, func() { e.holder.SetError(de) })
		return Outcome{Stream: stream, State: domain.StateFailed, Err: de, Count: len(e.holder.Snapshot().Movies)}
	}

	e.setState(stream, domain.StateReconciling)
	report, persistErr := e.reconcile(ctx, movies)

	// Movies and error land together; a persist failure still shows the feed
	e.publish(ctx, func() {
		e.holder.Update(func(s *state.Snapshot) {
			s.Movies = movies
			s.FromCache = false
			s.Err = persistErr
		})
	})

	return Outcome{
		Stream:     stream,
		State:      domain.StateSettled,
		Count:      len(movies),
		PersistErr: persistErr,
		Report:     report,
	}
}

func (e *Engine) moviesFromStore(ctx context.Context) Outcome {
	stream := domain.StreamMovies
	records, err := e.store.FindAll(ctx)
	if err != nil {
		de := domain.AsDataError(err, domain.KindStore)
		e.logger.Error("failed to load saved movies", "error", err)
		e.publish(ctx, func() { e.holder.SetError(de) })
		return Outcome{Stream: stream, State: domain.StateFailed, Err: de, Count: len(e.holder.Snapshot().Movies)}
	}

	movies := domain.Movies(records)
	e.publish(ctx, func() { e.holder.SetMovies(movies, true) })
	e.logger.Debug("loaded movies from store", "count", len(movies))
	return Outcome{Stream: stream, State: domain.StateSettledFromCache, Count: len(movies)}
}

func (e *Engine) refreshRatings(ctx context.Context) Outcome {
	stream := domain.StreamRatings
	status := e.reach.Status()
	if status == domain.Unreachable {
		e.logger.Debug("ratings refresh skipped while unreachable")
		return Outcome{Stream: stream, State: domain.StateSkipped, Count: len(e.holder.Snapshot().Ratings)}
	}

	e.setState(stream, domain.StateFetching)
	ratings, err := e.client.FetchRatings(ctx)
	if err != nil {
		de := domain.AsDataError(err, domain.KindNetwork)
		e.logger.Error("failed to fetch ratings", "error", err, "reachability", status.String())
		e.publish(ctx, func() { e.holder.SetError(de) })
		return Outcome{Stream: stream, State: domain.StateFailed, Err: de, Count: len(e.holder.Snapshot().Ratings)}
	}

	e.publish(ctx, func() {
		e.holder.Update(func(s *state.Snapshot) {
			s.Ratings = ratings
			s.Err = nil
		})
	})
	return Outcome{Stream: stream, State: domain.StateSettled, Count: len(ratings)}
}

// publish runs mutate on the dispatcher and waits for it. The wait outlives
// ctx so a timed-out refresh still reports its failure.
func (e *Engine) publish(ctx context.Context, mutate func()) {
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := state.DispatchWait(waitCtx, e.dispatch, mutate); err != nil {
		e.logger.Warn("state update still queued", "error", err)
	}
}

func (e *Engine) setState(stream domain.Stream, s domain.StreamState) {
	e.mu.Lock()
	e.states[stream] = s
	e.mu.Unlock()
}
