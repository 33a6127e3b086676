// Package repo provides read access to learned segment statistics
package repo

import (
	"context"
	"time"

	"ridepulse/internal/core/learn"
	"ridepulse/internal/modkit/repokit"
)

const timeFormat = "2006-01-02T15:04:05Z"

// Repo defines the read contract for the estimator
type Repo interface {
	// Cell loads the learning state and schedule baseline for one
	// (segment, bin). found=false means no row exists at all
	Cell(ctx context.Context, segmentID int64, binID int) (cell learn.Cell, scheduleSec *float64, found bool, err error)
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

func (r *queries) Cell(ctx context.Context, segmentID int64, binID int) (learn.Cell, *float64, bool, error) {
	const sql = `
SELECT n, m1, m2, ema_mean, ema_var, schedule_mean_sec, last_update
FROM segment_stats
WHERE segment_id = ? AND bin_id = ?
`
	rows, err := r.q.Query(ctx, sql, segmentID, binID)
	if err != nil {
		return learn.Cell{}, nil, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return learn.Cell{}, nil, false, rows.Err()
	}
	var c learn.Cell
	var schedule *float64
	var lastUpdate *string
	if err := rows.Scan(&c.N, &c.M1, &c.M2, &c.EMAMean, &c.EMAVar, &schedule, &lastUpdate); err != nil {
		return learn.Cell{}, nil, false, err
	}
	if lastUpdate != nil {
		if t, perr := time.Parse(timeFormat, *lastUpdate); perr == nil {
			c.LastUpdate = t
		}
	}
	return c, schedule, true, rows.Err()
}
