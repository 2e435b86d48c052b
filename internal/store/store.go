package store

import (
	"cmp"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/mmcdole/moviefan/internal/metrics"
	bolt "go.etcd.io/bbolt"
)

var bucketMovies = []byte("movies")

// MovieStore implements domain.MovieStore using BoltDB.
//
// Upsert stages records in memory; Commit writes every staged record in a
// single bolt transaction. Reads see staged records layered over committed
// ones.
type MovieStore struct {
	db     *bolt.DB
	logger *slog.Logger

	mu      sync.Mutex
	pending map[int]domain.MovieRecord

	// Committed records by ID (promoted on read). In memory-only mode this
	// is the only copy.
	cache map[int][]byte
}

// NewMovieStore opens the store at path. An empty path selects memory-only
// mode (no persistence).
func NewMovieStore(path string, logger *slog.Logger) (*MovieStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &MovieStore{
		logger:  logger,
		pending: make(map[int]domain.MovieRecord),
		cache:   make(map[int][]byte),
	}
	if path == "" {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMovies)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

func (s *MovieStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Reads ===

// FindByIDs returns the records whose ID is in ids, ordered by ID.
// Missing IDs are skipped; no match yields an empty slice.
func (s *MovieStore) FindByIDs(ctx context.Context, ids []int) ([]domain.MovieRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found := make(map[int]domain.MovieRecord, len(ids))
	var misses []int
	for _, id := range ids {
		if rec, ok := s.pending[id]; ok {
			found[id] = rec
			continue
		}
		if data, ok := s.cache[id]; ok {
			rec, err := decode(data)
			if err != nil {
				return nil, s.fail("find", "could not read cached movie", err)
			}
			found[id] = rec
			continue
		}
		misses = append(misses, id)
	}

	if s.db != nil && len(misses) > 0 {
		err := s.db.View(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketMovies)
			for _, id := range misses {
				v := b.Get(key(id))
				if v == nil {
					continue
				}
				data := make([]byte, len(v))
				copy(data, v)
				rec, err := decode(data)
				if err != nil {
					return fmt.Errorf("decode movie %d: %w", id, err)
				}
				found[id] = rec
				// Promote to memory cache
				s.cache[id] = data
			}
			return nil
		})
		if err != nil {
			return nil, s.fail("find", "could not read saved movies", err)
		}
	}

	return sorted(found), nil
}

// FindAll returns every record ordered by ID, including staged ones
func (s *MovieStore) FindAll(ctx context.Context) ([]domain.MovieRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := make(map[int]domain.MovieRecord)
	if s.db == nil {
		for id, data := range s.cache {
			rec, err := decode(data)
			if err != nil {
				return nil, s.fail("find", "could not read saved movies", err)
			}
			all[id] = rec
		}
	} else {
		err := s.db.View(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketMovies).ForEach(func(k, v []byte) error {
				rec, err := decode(v)
				if err != nil {
					return fmt.Errorf("decode movie %d: %w", decodeKey(k), err)
				}
				all[rec.ID] = rec
				return nil
			})
		})
		if err != nil {
			return nil, s.fail("find", "could not read saved movies", err)
		}
	}

	for id, rec := range s.pending {
		all[id] = rec
	}
	return sorted(all), nil
}

// Count returns the number of records, including staged ones
func (s *MovieStore) Count(ctx context.Context) (int, error) {
	all, err := s.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// === Writes ===

// Upsert stages rec, replacing any staged or committed record with its ID
func (s *MovieStore) Upsert(rec domain.MovieRecord) {
	s.mu.Lock()
	s.pending[rec.ID] = rec
	s.mu.Unlock()
}

// Commit writes all staged records in one transaction. On failure the staged
// records are discarded and nothing is written.
func (s *MovieStore) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}
	staged := s.pending
	s.pending = make(map[int]domain.MovieRecord)

	if err := ctx.Err(); err != nil {
		return s.fail("commit", "save cancelled", err)
	}

	encoded := make(map[int][]byte, len(staged))
	for id, rec := range staged {
		data, err := json.Marshal(rec)
		if err != nil {
			return s.fail("commit", "could not encode movie", err)
		}
		encoded[id] = data
	}

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketMovies)
			for id, data := range encoded {
				if err := b.Put(key(id), data); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return s.fail("commit", "could not save movies", err)
		}
	}

	for id, data := range encoded {
		s.cache[id] = data
	}
	s.logger.Debug("committed movie records", "count", len(encoded))
	return nil
}

// Seed inserts records for movies whose ID is not stored yet. Existing
// records are left untouched. Returns the number inserted.
func (s *MovieStore) Seed(ctx context.Context, movies []domain.Movie) (int, error) {
	if len(movies) == 0 {
		return 0, nil
	}
	existing, err := s.FindByIDs(ctx, domain.MovieIDs(movies))
	if err != nil {
		return 0, err
	}
	have := make(map[int]bool, len(existing))
	for _, rec := range existing {
		have[rec.ID] = true
	}

	now := time.Now()
	inserted := 0
	for _, m := range movies {
		if have[m.ID] {
			continue
		}
		have[m.ID] = true
		s.Upsert(m.Record(now))
		inserted++
	}
	if inserted == 0 {
		return 0, nil
	}
	if err := s.Commit(ctx); err != nil {
		return 0, err
	}
	s.logger.Info("seeded movie store", "inserted", inserted)
	return inserted, nil
}

func (s *MovieStore) fail(op, msg string, err error) error {
	metrics.StoreErrors.WithLabelValues(op).Inc()
	s.logger.Error("store operation failed", "operation", op, "error", err)
	return domain.StoreError(msg, err)
}

// Keys are big-endian so bolt's byte order matches ID order
func key(id int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func decodeKey(k []byte) int {
	return int(binary.BigEndian.Uint64(k))
}

func decode(data []byte) (domain.MovieRecord, error) {
	var rec domain.MovieRecord
	err := json.Unmarshal(data, &rec)
	return rec, err
}

func sorted(m map[int]domain.MovieRecord) []domain.MovieRecord {
	out := make([]domain.MovieRecord, 0, len(m))
	for _, rec := range m {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b domain.MovieRecord) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
