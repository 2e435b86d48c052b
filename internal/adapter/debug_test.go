package adapter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/mmcdole/moviefan/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStreams map[domain.Stream]domain.StreamState

func (f fixedStreams) StreamState(s domain.Stream) domain.StreamState { return f[s] }

func TestDebugServer_State(t *testing.T) {
	holder := state.NewHolder()
	holder.SetMovies([]domain.Movie{{ID: 1}, {ID: 2}}, true)
	holder.SetError(domain.NetworkError("catalog returned 503 Service Unavailable", nil))

	srv := NewDebugServer("", holder, fixedStreams{
		domain.StreamMovies:  domain.StateSettledFromCache,
		domain.StreamRatings: domain.StateSkipped,
	}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Movies)
	assert.True(t, got.FromCache)
	assert.Equal(t, uint64(2), got.Version)
	require.NotNil(t, got.Error)
	assert.Equal(t, "network", got.Error.Kind)
	assert.Equal(t, map[string]string{"movies": "settled_from_cache", "ratings": "skipped"}, got.Streams)
}

func TestDebugServer_HealthAndMetrics(t *testing.T) {
	srv := NewDebugServer("", state.NewHolder(), fixedStreams{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
	assert.Equal(t, "debug-server", srv.String())
}
