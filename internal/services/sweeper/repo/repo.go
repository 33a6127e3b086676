// Package repo holds the retention delete statements
package repo

import (
	"context"
	"time"

	"ridepulse/internal/modkit/repokit"
)

const timeFormat = "2006-01-02T15:04:05Z"

func encodeTime(t time.Time) string { return t.UTC().Format(timeFormat) }

// Repo defines the retention contract, every method returns rows removed
type Repo interface {
	DeleteIdemBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteIdleBucketsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteRejectionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type (
	// SQLite implements the Repo interface over the embedded store
	SQLite struct{}

	queries struct{ q repokit.Queryer }
)

// NewSQLite creates a new sqlite repository binder
func NewSQLite() repokit.Binder[Repo] { return SQLite{} }

// Bind binds a queryer to the Repo implementation
func (SQLite) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) del(ctx context.Context, sql string, cutoff time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, sql, encodeTime(cutoff))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *queries) DeleteIdemBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.del(ctx, `DELETE FROM idempotency_keys WHERE accepted_at < ?`, cutoff)
}

func (r *queries) DeleteIdleBucketsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.del(ctx, `DELETE FROM rate_limit_buckets WHERE last_refill < ?`, cutoff)
}

func (r *queries) DeleteRejectionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.del(ctx, `DELETE FROM rejection_log WHERE created_at < ?`, cutoff)
}

func (r *queries) DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.del(ctx, `DELETE FROM ride_audit WHERE created_at < ?`, cutoff)
}
