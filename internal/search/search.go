// Package search filters the held movie list by title.
package search

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/sahilm/fuzzy"
)

// Result is one matching movie with the title positions that matched
type Result struct {
	Movie          domain.Movie
	MatchedIndexes []int // Rune positions in Movie.Title
}

// titleIndex implements fuzzy.Source over pre-lowered titles
type titleIndex struct {
	lower []string
}

func (idx titleIndex) String(i int) string { return idx.lower[i] }

func (idx titleIndex) Len() int { return len(idx.lower) }

// Filter returns the movies whose title matches query, best first.
//
// Subsequence matching (sahilm/fuzzy) ranks first. When nothing matches that
// way, each query word may instead match a title word within a small edit
// distance, so "godfahter" still finds "The Godfather".
func Filter(query string, movies []domain.Movie) []Result {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(movies) == 0 {
		return nil
	}

	idx := titleIndex{lower: make([]string, len(movies))}
	for i, m := range movies {
		idx.lower[i] = strings.ToLower(m.Title)
	}

	matches := fuzzy.FindFrom(query, idx)
	if len(matches) > 0 {
		results := make([]Result, len(matches))
		for i, match := range matches {
			results[i] = Result{
				Movie:          movies[match.Index],
				MatchedIndexes: runeIndexes(idx.lower[match.Index], match.MatchedIndexes),
			}
		}
		return results
	}

	return typoMatches(query, movies, idx)
}

type scored struct {
	Result
	index int
	score int
}

func typoMatches(query string, movies []domain.Movie, idx titleIndex) []Result {
	queryWords := words(query)
	if len(queryWords) == 0 {
		return nil
	}

	var found []scored
	for i, title := range idx.lower {
		titleWords := words(title)
		total := 0
		var matched []int
		ok := true
		for _, q := range queryWords {
			best, dist := closestWord(q, titleWords)
			if best < 0 {
				ok = false
				break
			}
			total += dist
			w := titleWords[best]
			for p := w.start; p < w.end; p++ {
				matched = append(matched, p)
			}
		}
		if !ok {
			continue
		}
		slices.Sort(matched)
		found = append(found, scored{
			Result: Result{Movie: movies[i], MatchedIndexes: slices.Compact(matched)},
			index:  i,
			score:  total,
		})
	}

	slices.SortStableFunc(found, func(a, b scored) int {
		return cmp.Compare(a.score, b.score)
	})
	results := make([]Result, len(found))
	for i, f := range found {
		results[i] = f.Result
	}
	return results
}

type word struct {
	text       string
	start, end int // Rune positions, end exclusive
}

// words splits text on anything that is not a letter or digit
func words(text string) []word {
	var out []word
	runes := []rune(text)
	start := -1
	for i, r := range runes {
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		switch {
		case isWord && start < 0:
			start = i
		case !isWord && start >= 0:
			out = append(out, word{text: string(runes[start:i]), start: start, end: i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, word{text: string(runes[start:]), start: start, end: len(runes)})
	}
	return out
}

// closestWord returns the index and distance of the nearest title word
// within the typo allowance for q, or -1.
func closestWord(q word, titleWords []word) (int, int) {
	limit := allowedTypos(len([]rune(q.text)))
	best, bestDist := -1, limit+1
	for i, w := range titleWords {
		d := lfuzzy.LevenshteinDistance(q.text, w.text)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// allowedTypos: 1-3 runes = 0, 4-6 = 1, 7+ = 2
func allowedTypos(length int) int {
	switch {
	case length <= 3:
		return 0
	case length <= 6:
		return 1
	default:
		return 2
	}
}

// runeIndexes converts byte offsets reported by sahilm/fuzzy to rune offsets
func runeIndexes(s string, byteIdx []int) []int {
	if len(byteIdx) == 0 {
		return byteIdx
	}
	out := make([]int, len(byteIdx))
	runePos := 0
	j := 0
	for b := range s {
		for j < len(byteIdx) && byteIdx[j] == b {
			out[j] = runePos
			j++
		}
		runePos++
	}
	return out[:j]
}
