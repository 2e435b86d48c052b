package store

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id int, title string) domain.MovieRecord {
	return domain.MovieRecord{
		ID:              id,
		Title:           title,
		ReleaseDate:     "2022-11-09",
		ImagePathSuffix: "/p.jpg",
		Overview:        "overview",
		CreatedAt:       100,
		UpdatedAt:       100,
	}
}

func openStores(t *testing.T) map[string]*MovieStore {
	t.Helper()
	disk, err := NewMovieStore(filepath.Join(t.TempDir(), "nested", "moviefan.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { disk.Close() })

	mem, err := NewMovieStore("", nil)
	require.NoError(t, err)

	return map[string]*MovieStore{"bolt": disk, "memory": mem}
}

func TestMovieStore_UpsertCommitFind(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			s.Upsert(record(3, "C"))
			s.Upsert(record(1, "A"))
			s.Upsert(record(2, "B"))
			require.NoError(t, s.Commit(ctx))

			all, err := s.FindAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, []int{1, 2, 3}, ids(all))

			got, err := s.FindByIDs(ctx, []int{3, 99, 1})
			require.NoError(t, err)
			if diff := cmp.Diff([]domain.MovieRecord{record(1, "A"), record(3, "C")}, got); diff != "" {
				t.Errorf("FindByIDs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMovieStore_FindAllOrdersExtremeIDs(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			s.Upsert(record(math.MaxInt, "max"))
			s.Upsert(record(1, "one"))
			s.Upsert(record(-1, "negative"))
			require.NoError(t, s.Commit(ctx))

			all, err := s.FindAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, []int{-1, 1, math.MaxInt}, ids(all))
		})
	}
}

func TestMovieStore_FindByIDsNoMatch(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := s.FindByIDs(context.Background(), []int{42})
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestMovieStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			rec := record(7, "Seven")
			s.Upsert(rec)
			require.NoError(t, s.Commit(ctx))
			first, err := s.FindAll(ctx)
			require.NoError(t, err)

			s.Upsert(rec)
			require.NoError(t, s.Commit(ctx))
			second, err := s.FindAll(ctx)
			require.NoError(t, err)

			assert.Equal(t, first, second)
			assert.Len(t, second, 1)
		})
	}
}

func TestMovieStore_PendingWritesVisible(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			s.Upsert(record(1, "A"))
			require.NoError(t, s.Commit(ctx))

			s.Upsert(record(1, "A2"))
			s.Upsert(record(2, "B"))

			got, err := s.FindByIDs(ctx, []int{1, 2})
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "A2", got[0].Title)

			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
		})
	}
}

func TestMovieStore_CommitEmptyIsNoop(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, s.Commit(context.Background()))
		})
	}
}

func TestMovieStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "moviefan.db")

	s, err := NewMovieStore(path, nil)
	require.NoError(t, err)
	s.Upsert(record(5, "Five"))
	require.NoError(t, s.Commit(ctx))
	require.NoError(t, s.Close())

	reopened, err := NewMovieStore(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.FindByIDs(ctx, []int{5})
	require.NoError(t, err)
	assert.Equal(t, []domain.MovieRecord{record(5, "Five")}, got)
}

func TestMovieStore_CommitFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "moviefan.db")

	s, err := NewMovieStore(path, nil)
	require.NoError(t, err)
	s.Upsert(record(1, "A"))
	require.NoError(t, s.Close())

	err = s.Commit(ctx)
	require.Error(t, err)
	assert.True(t, domain.IsStore(err))

	// Staged writes are gone, nothing reached disk
	reopened, err := NewMovieStore(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	all, err := reopened.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	s.mu.Lock()
	assert.Empty(t, s.pending)
	s.mu.Unlock()
}

func TestMovieStore_CancelledCommit(t *testing.T) {
	s, err := NewMovieStore("", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.Upsert(record(1, "A"))
	err = s.Commit(ctx)
	require.Error(t, err)
	assert.True(t, domain.IsStore(err))

	all, err := s.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMovieStore_Seed(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			s.Upsert(record(1, "Existing"))
			require.NoError(t, s.Commit(ctx))

			n, err := s.Seed(ctx, []domain.Movie{
				{ID: 1, Title: "Seeded over existing"},
				{ID: 2, Title: "Two"},
				{ID: 2, Title: "Two again"},
			})
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			all, err := s.FindAll(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "Existing", all[0].Title)
			assert.Equal(t, "Two", all[1].Title)
			assert.Equal(t, all[1].CreatedAt, all[1].UpdatedAt)
			assert.InDelta(t, time.Now().Unix(), all[1].CreatedAt, 5)
		})
	}
}

func TestReadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	body := `[{"id": 10, "title": "Ten", "releaseDate": "2020-01-01", "imageUrlSuffix": "/ten.jpg", "overview": "x", "createdAt": 1}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	movies, err := ReadSeedFile(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.Movie{{ID: 10, Title: "Ten", ReleaseDate: "2020-01-01", ImagePathSuffix: "/ten.jpg", Overview: "x"}}, movies)

	_, err = ReadSeedFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func ids(recs []domain.MovieRecord) []int {
	out := make([]int, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
