// Package stats derives chart data from the held ratings.
package stats

import (
	"errors"

	"github.com/mmcdole/moviefan/internal/domain"
)

// Chart scaling applied to each bar so both series share one axis
const (
	VoteAverageScale = 500
	PopularityScale  = 20
)

// ErrInvalidWindow is returned for a non-positive window
var ErrInvalidWindow = errors.New("stats: window must be positive")

// AverageVote returns the mean VoteAverage over the first window ratings.
//
// The sum is divided by window, not by the number of ratings actually
// present, so a short list pulls the average down.
func AverageVote(ratings []domain.MovieRating, window int) (float64, error) {
	if window <= 0 {
		return 0, ErrInvalidWindow
	}
	var sum float64
	for _, r := range Window(ratings, window) {
		sum += r.VoteAverage
	}
	return sum / float64(window), nil
}

// Window returns the first n ratings in received order
func Window(ratings []domain.MovieRating, n int) []domain.MovieRating {
	if n <= 0 {
		return nil
	}
	if n > len(ratings) {
		n = len(ratings)
	}
	return ratings[:n]
}

// ChartPoint is one bar group on the ratings chart
type ChartPoint struct {
	Title       string
	VoteCount   int
	VoteAverage float64 // Scaled by VoteAverageScale
	Popularity  float64 // Scaled by PopularityScale
}

// ChartPoints returns the scaled chart series for the first n ratings
func ChartPoints(ratings []domain.MovieRating, n int) []ChartPoint {
	window := Window(ratings, n)
	points := make([]ChartPoint, len(window))
	for i, r := range window {
		points[i] = ChartPoint{
			Title:       r.Title,
			VoteCount:   r.VoteCount,
			VoteAverage: r.VoteAverage * VoteAverageScale,
			Popularity:  r.Popularity * PopularityScale,
		}
	}
	return points
}
