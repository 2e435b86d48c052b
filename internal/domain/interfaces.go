package domain

import "context"

// CatalogClient: Network reads against the remote catalog (first page only).
// Implementations fail with a KindNetwork *DataError and never retry.
type CatalogClient interface {
	FetchMovies(ctx context.Context) ([]Movie, error)
	FetchRatings(ctx context.Context) ([]MovieRating, error)
}

// MovieStore: Local persisted movie records.
// Upsert stages a write; Commit applies every staged write in one transaction.
type MovieStore interface {
	FindByIDs(ctx context.Context, ids []int) ([]MovieRecord, error)
	FindAll(ctx context.Context) ([]MovieRecord, error)
	Upsert(rec MovieRecord)
	Commit(ctx context.Context) error
}

// ReachabilityProvider reports the last observed network state.
// Status must return instantly and never perform I/O.
type ReachabilityProvider interface {
	Status() Reachability
}

// Reachability is the cached connectivity state
type Reachability int32

const (
	ReachabilityUnknown Reachability = iota
	Reachable
	Unreachable
)

// String returns a human-readable representation of the state
func (r Reachability) String() string {
	switch r {
	case Reachable:
		return "reachable"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}
