package domain

import "time"

// Movie is a popular-movie listing as the catalog reports it
type Movie struct {
	ID              int    // Catalog identifier, stable across refreshes
	Title           string // Display title
	ReleaseDate     string // ISO-like date, not validated
	ImagePathSuffix string // Poster path, e.g. "/sv1xJUazXeYqALzczSZ3O6nkH75.jpg" (may be empty)
	Overview        string // Plot synopsis
}

// Poster sizes understood by the image CDN
const (
	ThumbnailSize = "w45"
	LargeSize     = "w500"
)

// ThumbnailURL returns the small poster URL for list rows
func (m Movie) ThumbnailURL(imageBase string) string {
	return imageURL(imageBase, ThumbnailSize, m.ImagePathSuffix)
}

// LargeImageURL returns the poster URL used on the detail view
func (m Movie) LargeImageURL(imageBase string) string {
	return imageURL(imageBase, LargeSize, m.ImagePathSuffix)
}

func imageURL(base, size, suffix string) string {
	if suffix == "" {
		return ""
	}
	return base + size + suffix
}

// Record converts the movie into a new persisted record stamped with now
func (m Movie) Record(now time.Time) MovieRecord {
	return MovieRecord{
		ID:              m.ID,
		Title:           m.Title,
		ReleaseDate:     m.ReleaseDate,
		ImagePathSuffix: m.ImagePathSuffix,
		Overview:        m.Overview,
		CreatedAt:       now.Unix(),
		UpdatedAt:       now.Unix(),
	}
}

// MovieRating is a top-rated entry. Ratings are never persisted.
type MovieRating struct {
	ID          int
	Title       string
	Popularity  float64
	VoteCount   int
	VoteAverage float64 // 0-10 nominal
}

// MovieRecord is the durable counterpart of Movie, one per ID.
// CreatedAt and UpdatedAt are local bookkeeping; remote data never writes them.
type MovieRecord struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	ReleaseDate     string `json:"releaseDate"`
	ImagePathSuffix string `json:"imageUrlSuffix"`
	Overview        string `json:"overview"`
	CreatedAt       int64  `json:"createdAt"`
	UpdatedAt       int64  `json:"updatedAt"`
}

// Movie maps the record back to the domain listing
func (r MovieRecord) Movie() Movie {
	return Movie{
		ID:              r.ID,
		Title:           r.Title,
		ReleaseDate:     r.ReleaseDate,
		ImagePathSuffix: r.ImagePathSuffix,
		Overview:        r.Overview,
	}
}

// Movies maps a record slice, preserving order
func Movies(records []MovieRecord) []Movie {
	movies := make([]Movie, len(records))
	for i, r := range records {
		movies[i] = r.Movie()
	}
	return movies
}

// MovieIDs returns the identifiers of movies in order
func MovieIDs(movies []Movie) []int {
	ids := make([]int, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
	}
	return ids
}
