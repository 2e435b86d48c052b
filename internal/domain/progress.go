package domain

// Stream names an independently refreshed projection
type Stream string

const (
	StreamMovies  Stream = "movies"
	StreamRatings Stream = "ratings"
)

// StreamState is the lifecycle of one stream's latest refresh.
// Settled, SettledFromCache, Skipped and Failed are terminal but re-enterable.
type StreamState int

const (
	StateIdle StreamState = iota
	StateFetching
	StateReconciling
	StateSettled
	StateSettledFromCache
	StateSkipped
	StateFailed
)

// String returns a human-readable representation of the state
func (s StreamState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateReconciling:
		return "reconciling"
	case StateSettled:
		return "settled"
	case StateSettledFromCache:
		return "settled_from_cache"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no refresh is running in this state
func (s StreamState) Terminal() bool {
	return s != StateFetching && s != StateReconciling
}
