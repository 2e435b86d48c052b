package catalog

import "github.com/mmcdole/moviefan/internal/domain"

// MapMovies converts popular-movie DTOs, preserving server order
func MapMovies(dtos []MovieDTO) []domain.Movie {
	movies := make([]domain.Movie, 0, len(dtos))
	for _, d := range dtos {
		movies = append(movies, domain.Movie{
			ID:              d.ID,
			Title:           d.Title,
			ReleaseDate:     d.ReleaseDate,
			ImagePathSuffix: d.PosterPath,
			Overview:        d.Overview,
		})
	}
	return movies
}

// MapRatings converts top-rated DTOs, preserving server order.
// The chart labels ratings by original title.
func MapRatings(dtos []RatingDTO) []domain.MovieRating {
	ratings := make([]domain.MovieRating, 0, len(dtos))
	for _, d := range dtos {
		ratings = append(ratings, domain.MovieRating{
			ID:          d.ID,
			Title:       d.OriginalTitle,
			Popularity:  d.Popularity,
			VoteCount:   d.VoteCount,
			VoteAverage: d.VoteAverage,
		})
	}
	return ratings
}
