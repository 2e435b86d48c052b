package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const popularBody = `{
  "page": 1,
  "results": [
    {"id": 505642, "title": "Black Panther: Wakanda Forever", "release_date": "2022-11-09",
     "poster_path": "/sv1xJUazXeYqALzczSZ3O6nkH75.jpg", "overview": "Queen Ramonda, Shuri..."},
    {"id": 76600, "title": "Avatar: The Way of Water", "release_date": "2022-12-14",
     "poster_path": null, "overview": "Set more than a decade after..."}
  ],
  "total_pages": 500
}`

const topRatedBody = `{
  "page": 1,
  "results": [
    {"id": 238, "original_title": "The Godfather", "popularity": 112.5, "vote_count": 17000, "vote_average": 8.7},
    {"id": 278, "original_title": "The Shawshank Redemption", "popularity": 88.1, "vote_count": 23000, "vote_average": 8.7}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/3", "secret-key", "en-US", 2*time.Second, nil)
	require.NoError(t, err)
	return c
}

func TestClient_FetchMovies(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	var gotCache string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"api_key":  r.URL.Query().Get("api_key"),
			"language": r.URL.Query().Get("language"),
			"page":     r.URL.Query().Get("page"),
		}
		gotCache = r.Header.Get("Cache-Control")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(popularBody))
	})

	movies, err := c.FetchMovies(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/3/movie/popular", gotPath)
	assert.Equal(t, map[string]string{"api_key": "secret-key", "language": "en-US", "page": "1"}, gotQuery)
	assert.Equal(t, "no-cache", gotCache)

	require.Len(t, movies, 2)
	assert.Equal(t, domain.Movie{
		ID:              505642,
		Title:           "Black Panther: Wakanda Forever",
		ReleaseDate:     "2022-11-09",
		ImagePathSuffix: "/sv1xJUazXeYqALzczSZ3O6nkH75.jpg",
		Overview:        "Queen Ramonda, Shuri...",
	}, movies[0])
	assert.Empty(t, movies[1].ImagePathSuffix)
}

func TestClient_FetchRatings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/movie/top_rated", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(topRatedBody))
	})

	ratings, err := c.FetchRatings(context.Background())
	require.NoError(t, err)
	require.Len(t, ratings, 2)
	assert.Equal(t, domain.MovieRating{ID: 238, Title: "The Godfather", Popularity: 112.5, VoteCount: 17000, VoteAverage: 8.7}, ratings[0])
}

func TestClient_EmptyResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
	})

	movies, err := c.FetchMovies(context.Background())
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestClient_FailuresAreNetworkErrors(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantMessage string
	}{
		{
			name: "non-2xx with catalog status message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"status_code":7,"status_message":"Invalid API key: You must be granted a valid key."}`))
			},
			wantMessage: "catalog returned 401: Invalid API key",
		},
		{
			name: "non-2xx without body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantMessage: "catalog returned 502 Bad Gateway",
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"page":1,"results":[{"id":"not-a-number"}]}`))
			},
			wantMessage: "failed to parse catalog response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)

			_, err := c.FetchMovies(context.Background())
			require.Error(t, err)
			assert.True(t, domain.IsNetwork(err), "want network DataError, got %T", err)
			assert.Contains(t, err.Error(), tt.wantMessage)
		})
	}
}

func TestClient_TransportErrorDoesNotLeakKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := NewClient(base, "secret-key", "en-US", time.Second, nil)
	require.NoError(t, err)

	_, err = c.FetchRatings(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsNetwork(err))
	assert.False(t, strings.Contains(err.Error(), "secret-key"), "error leaks api key: %v", err)
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewClient("api.themoviedb.org/3", "k", "en-US", time.Second, nil)
	assert.Error(t, err)
}
