package search

import (
	"testing"

	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalog = []domain.Movie{
	{ID: 1, Title: "The Godfather"},
	{ID: 2, Title: "Avatar: The Way of Water"},
	{ID: 3, Title: "Black Panther: Wakanda Forever"},
	{ID: 4, Title: "The Godfather Part II"},
}

func titles(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Movie.Title
	}
	return out
}

func TestFilter_EmptyQuery(t *testing.T) {
	assert.Nil(t, Filter("", catalog))
	assert.Nil(t, Filter("   ", catalog))
	assert.Nil(t, Filter("god", nil))
}

func TestFilter_Subsequence(t *testing.T) {
	got := Filter("godfather", catalog)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []string{"The Godfather", "The Godfather Part II"}, titles(got))
	assert.Equal(t, []int{4, 5, 6, 7, 8, 9, 10, 11, 12}, got[0].MatchedIndexes)
}

func TestFilter_CaseInsensitive(t *testing.T) {
	got := Filter("WAKANDA", catalog)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Movie.ID)
}

func TestFilter_TypoFallback(t *testing.T) {
	got := Filter("godfahter", catalog)
	require.Len(t, got, 2)
	assert.Equal(t, "The Godfather", got[0].Movie.Title, "equal distance keeps input order")
	assert.Equal(t, []int{4, 5, 6, 7, 8, 9, 10, 11, 12}, got[0].MatchedIndexes)
}

func TestFilter_TypoFallbackAllWordsMustMatch(t *testing.T) {
	assert.Empty(t, Filter("watr avatr zzz", catalog))
	got := Filter("watr avatr", catalog)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Movie.ID)
}

func TestFilter_NoMatch(t *testing.T) {
	assert.Empty(t, Filter("xyzzy", catalog))
}

func TestAllowedTypos(t *testing.T) {
	assert.Equal(t, 0, allowedTypos(3))
	assert.Equal(t, 1, allowedTypos(4))
	assert.Equal(t, 1, allowedTypos(6))
	assert.Equal(t, 2, allowedTypos(7))
}

func TestRuneIndexes(t *testing.T) {
	// "é" is two bytes
	assert.Equal(t, []int{0, 2}, runeIndexes("éab", []int{0, 3}))
	assert.Empty(t, runeIndexes("abc", nil))
}
