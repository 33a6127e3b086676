// Package repo provides sqlite access for the segment registry
package repo

import (
	"context"

	"ridepulse/internal/modkit/repokit"
	"ridepulse/internal/services/segments/domain"
)

// Repo defines the repository contract for segments
type Repo interface {
	All(ctx context.Context) ([]domain.Segment, error)
	Upsert(ctx context.Context, s domain.Segment) (int64, error)
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

func (r *queries) All(ctx context.Context) ([]domain.Segment, error) {
	const sql = `
SELECT segment_id, route_id, direction_id, from_stop_id, to_stop_id
FROM segments
ORDER BY segment_id
`
	rows, err := r.q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Segment
	for rows.Next() {
		var s domain.Segment
		if err := rows.Scan(
			&s.SegmentID,
			&s.RouteID,
			&s.DirectionID,
			&s.FromStopID,
			&s.ToStopID,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Upsert inserts the tuple if new and returns the segment id either way
func (r *queries) Upsert(ctx context.Context, s domain.Segment) (int64, error) {
	const ins = `
INSERT INTO segments (route_id, direction_id, from_stop_id, to_stop_id)
VALUES (?, ?, ?, ?)
ON CONFLICT (route_id, direction_id, from_stop_id, to_stop_id) DO NOTHING
`
	if _, err := r.q.Exec(ctx, ins, s.RouteID, s.DirectionID, s.FromStopID, s.ToStopID); err != nil {
		return 0, err
	}
	const sel = `
SELECT segment_id FROM segments
WHERE route_id = ? AND direction_id = ? AND from_stop_id = ? AND to_stop_id = ?
`
	var id int64
	if err := r.q.QueryRow(ctx, sel, s.RouteID, s.DirectionID, s.FromStopID, s.ToStopID).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
