// Package repo reads service metadata from the embedded store
package repo

import (
	"context"

	"ridepulse/internal/modkit/repokit"
)

// Repo defines the metadata read contract
type Repo interface {
	// FeedVersion returns the recorded schedule feed tag, "" when unseeded
	FeedVersion(ctx context.Context) (string, error)
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

func (r *queries) FeedVersion(ctx context.Context) (string, error) {
	const sql = `SELECT value FROM schedule_meta WHERE key = 'feed_version'`
	rows, err := r.q.Query(ctx, sql)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	if !rows.Next() {
		return "", rows.Err()
	}
	var v string
	if err := rows.Scan(&v); err != nil {
		return "", err
	}
	return v, rows.Err()
}
