package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const imageBase = "https://image.tmdb.org/t/p/"

func TestMovieImageURLs(t *testing.T) {
	m := Movie{ID: 1, ImagePathSuffix: "/sv1xJUazXeYqALzczSZ3O6nkH75.jpg"}

	assert.Equal(t, "https://image.tmdb.org/t/p/w45/sv1xJUazXeYqALzczSZ3O6nkH75.jpg", m.ThumbnailURL(imageBase))
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/sv1xJUazXeYqALzczSZ3O6nkH75.jpg", m.LargeImageURL(imageBase))

	empty := Movie{ID: 2}
	assert.Empty(t, empty.ThumbnailURL(imageBase))
	assert.Empty(t, empty.LargeImageURL(imageBase))
}

func TestMovieRecordRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 0)
	m := Movie{ID: 7, Title: "Heat", ReleaseDate: "1995-12-15", ImagePathSuffix: "/heat.jpg", Overview: "LA crime"}

	rec := m.Record(now)
	assert.Equal(t, int64(1700000000), rec.CreatedAt)
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)
	assert.Equal(t, m, rec.Movie())
	assert.Equal(t, []int{7}, MovieIDs(Movies([]MovieRecord{rec})))
}

func TestDataErrorTaxonomy(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("refresh: %w", NetworkError("fetch popular movies", cause))

	assert.True(t, IsNetwork(err))
	assert.False(t, IsStore(err))
	assert.ErrorIs(t, err, cause)

	de := AsDataError(err, KindStore)
	require.NotNil(t, de)
	assert.Equal(t, KindNetwork, de.Kind)
	assert.Equal(t, "network error: fetch popular movies", de.Error())

	foreign := AsDataError(errors.New("disk full"), KindStore)
	assert.Equal(t, KindStore, foreign.Kind)
	assert.Equal(t, "disk full", foreign.Message)

	assert.Nil(t, AsDataError(nil, KindStore))
}

func TestStreamStateTerminal(t *testing.T) {
	assert.False(t, StateFetching.Terminal())
	assert.False(t, StateReconciling.Terminal())
	for _, s := range []StreamState{StateIdle, StateSettled, StateSettledFromCache, StateSkipped, StateFailed} {
		assert.True(t, s.Terminal(), s.String())
	}
}
