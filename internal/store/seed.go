package store

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/mmcdole/moviefan/internal/domain"
)

// ReadSeedFile loads a JSON array of movie records (the same shape the store
// persists). Timestamps in the file are ignored.
func ReadSeedFile(path string) ([]domain.Movie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var records []domain.MovieRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return domain.Movies(records), nil
}
