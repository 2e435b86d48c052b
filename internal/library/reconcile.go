package library

import (
	"context"

	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/mmcdole/moviefan/internal/metrics"
)

// ReconcileReport counts what one reconciliation did to the store
type ReconcileReport struct {
	Created   int
	Updated   int
	Unchanged int
}

// field describes one mirrored attribute of a record type
type field[R any] struct {
	name  string
	apply func(dst *R, src R) bool // Copies src's value into dst; reports a change
}

func stringField[R any](name string, ptr func(*R) *string) field[R] {
	return field[R]{
		name: name,
		apply: func(dst *R, src R) bool {
			d, s := ptr(dst), ptr(&src)
			if *d == *s {
				return false
			}
			*d = *s
			return true
		},
	}
}

// diffFields copies every differing field from src into dst and returns the
// names of the fields it changed
func diffFields[R any](dst *R, src R, fields []field[R]) []string {
	var changed []string
	for _, f := range fields {
		if f.apply(dst, src) {
			changed = append(changed, f.name)
		}
	}
	return changed
}

// Fields mirrored from the catalog. ID, CreatedAt and UpdatedAt are local.
var movieFields = []field[domain.MovieRecord]{
	stringField("title", func(r *domain.MovieRecord) *string { return &r.Title }),
	stringField("releaseDate", func(r *domain.MovieRecord) *string { return &r.ReleaseDate }),
	stringField("imagePathSuffix", func(r *domain.MovieRecord) *string { return &r.ImagePathSuffix }),
	stringField("overview", func(r *domain.MovieRecord) *string { return &r.Overview }),
}

// reconcile merges incoming into the store: unknown IDs are created, known
// IDs are updated only when a mirrored field differs, and everything staged
// is committed once. Records absent from incoming are left alone.
func (e *Engine) reconcile(ctx context.Context, incoming []domain.Movie) (ReconcileReport, *domain.DataError) {
	var report ReconcileReport
	if len(incoming) == 0 {
		e.logger.Debug("reconcile skipped, nothing incoming")
		return report, nil
	}

	existing, err := e.store.FindByIDs(ctx, domain.MovieIDs(incoming))
	if err != nil {
		e.logger.Error("failed to read saved movies", "error", err)
		return report, domain.AsDataError(err, domain.KindStore)
	}
	byID := make(map[int]domain.MovieRecord, len(existing))
	for _, rec := range existing {
		byID[rec.ID] = rec
	}

	now := e.now()
	seen := make(map[int]bool, len(incoming))
	for _, m := range incoming {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true

		rec, ok := byID[m.ID]
		if !ok {
			e.store.Upsert(m.Record(now))
			report.Created++
			continue
		}
		changed := diffFields(&rec, m.Record(now), movieFields)
		if len(changed) == 0 {
			report.Unchanged++
			continue
		}
		rec.UpdatedAt = now.Unix()
		e.store.Upsert(rec)
		report.Updated++
		e.logger.Debug("movie changed", "id", m.ID, "fields", changed)
	}

	if err := e.store.Commit(ctx); err != nil {
		e.logger.Error("failed to commit movies", "error", err)
		return ReconcileReport{}, domain.AsDataError(err, domain.KindStore)
	}

	metrics.ReconciledRecords.WithLabelValues("created").Add(float64(report.Created))
	metrics.ReconciledRecords.WithLabelValues("updated").Add(float64(report.Updated))
	metrics.ReconciledRecords.WithLabelValues("unchanged").Add(float64(report.Unchanged))
	e.logger.Info("reconciled movies",
		"created", report.Created,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
	)
	return report, nil
}
