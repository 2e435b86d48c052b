package catalog

// MoviePage is the /movie/popular response envelope
type MoviePage struct {
	Page    int        `json:"page"`
	Results []MovieDTO `json:"results"`
}

// MovieDTO is one popular-movie entry
type MovieDTO struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	PosterPath  string `json:"poster_path"` // null for movies without artwork
	Overview    string `json:"overview"`
}

// RatingPage is the /movie/top_rated response envelope
type RatingPage struct {
	Page    int         `json:"page"`
	Results []RatingDTO `json:"results"`
}

// RatingDTO is one top-rated entry
type RatingDTO struct {
	ID            int     `json:"id"`
	OriginalTitle string  `json:"original_title"`
	Popularity    float64 `json:"popularity"`
	VoteCount     int     `json:"vote_count"`
	VoteAverage   float64 `json:"vote_average"`
}

// statusResponse is the catalog's error body
type statusResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}
