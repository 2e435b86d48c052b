// Package state holds the observable data the presentation layer renders.
//
// A Holder keeps the latest movies, ratings and error. Mutations are meant to
// run on one designated goroutine (see Loop); subscribers are notified after
// every mutation with a private copy of the new Snapshot.
package state

import (
	"slices"
	"sync"

	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/mmcdole/moviefan/internal/metrics"
)

// Snapshot is an immutable view of the held state
type Snapshot struct {
	Movies    []domain.Movie
	Ratings   []domain.MovieRating
	Err       *domain.DataError // Last failure; nil once a later attempt succeeds
	FromCache bool              // Movies came from the local store
	Version   uint64            // Incremented by every mutation
}

func (s Snapshot) clone() Snapshot {
	s.Movies = slices.Clone(s.Movies)
	s.Ratings = slices.Clone(s.Ratings)
	return s
}

// Holder stores the current Snapshot and fans out changes
type Holder struct {
	mu     sync.Mutex
	snap   Snapshot
	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// NewHolder creates an empty holder
func NewHolder() *Holder {
	return &Holder{}
}

// Snapshot returns a copy of the current state
func (h *Holder) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snap.clone()
}

// Update applies every change made by fn as one mutation: Version moves
// once and subscribers are notified once. fn must not retain s or call
// back into the holder.
func (h *Holder) Update(fn func(s *Snapshot)) {
	h.update(func(s *Snapshot) {
		fn(s)
		s.Movies = slices.Clone(s.Movies)
		s.Ratings = slices.Clone(s.Ratings)
	})
}

// SetMovies replaces the held movies
func (h *Holder) SetMovies(movies []domain.Movie, fromCache bool) {
	h.Update(func(s *Snapshot) {
		s.Movies = movies
		s.FromCache = fromCache
	})
}

// SetRatings replaces the held ratings
func (h *Holder) SetRatings(ratings []domain.MovieRating) {
	h.Update(func(s *Snapshot) {
		s.Ratings = ratings
	})
}

// SetError records the latest failure, replacing any previous one
func (h *Holder) SetError(err *domain.DataError) {
	h.Update(func(s *Snapshot) {
		s.Err = err
	})
}

// ClearError drops the held error
func (h *Holder) ClearError() {
	h.Update(func(s *Snapshot) {
		s.Err = nil
	})
}

// Subscribe registers fn for change notifications. fn runs on the mutating
// goroutine, in subscription order. The returned func unsubscribes.
func (h *Holder) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs = append(h.subs, subscriber{id: id, fn: fn})
	metrics.StateSubscribers.Set(float64(len(h.subs)))
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.subs = slices.DeleteFunc(h.subs, func(s subscriber) bool { return s.id == id })
			metrics.StateSubscribers.Set(float64(len(h.subs)))
		})
	}
}

func (h *Holder) update(mutate func(*Snapshot)) {
	h.mu.Lock()
	mutate(&h.snap)
	h.snap.Version++
	snap := h.snap
	subs := slices.Clone(h.subs)
	h.mu.Unlock()

	for _, s := range subs {
		s.fn(snap.clone())
	}
}
