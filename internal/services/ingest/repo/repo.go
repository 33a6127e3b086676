// Package repo provides sqlite access for the ingestion pipeline
// all methods are written to run against the queryer they are bound to,
// inside the orchestrator that is the open write transaction
package repo

import (
	"context"
	"time"

	"ridepulse/internal/core/learn"
	"ridepulse/internal/modkit/repokit"
)

// timeFormat is the canonical column encoding for timestamps
// sqlite's strftime understands this form, which the quota debit relies on
const timeFormat = "2006-01-02T15:04:05Z"

func encodeTime(t time.Time) string { return t.UTC().Format(timeFormat) }

func decodeTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IdemRow is one idempotency record
type IdemRow struct {
	Key        string
	BodyHash   []byte
	StatusCode int
	Response   string
	AcceptedAt time.Time
}

// RejectionRow is one append-only rejection entry
type RejectionRow struct {
	SegmentID     *int64
	BinID         *int
	Reason        string
	ObservedValue *float64
	BucketID      string
	CreatedAt     time.Time
}

// AuditRow records one accepted observation
type AuditRow struct {
	SegmentID   int64
	BinID       int
	DurationSec float64
	DwellSec    *float64
	ObservedAt  time.Time
	CreatedAt   time.Time
}

// Repo defines the repository contract for ingestion
type Repo interface {
	// GetIdem returns the record for key, nil when absent
	GetIdem(ctx context.Context, key string) (*IdemRow, error)
	// PutIdem stores the completed record, the row only becomes visible at commit
	PutIdem(ctx context.Context, row IdemRow) error

	// EnsureBucket creates the bucket full if it does not exist yet
	EnsureBucket(ctx context.Context, bucketID string, capacity int, now time.Time) error
	// DebitBucket spends one token iff one is available, refilling first
	// when the window has elapsed, all in a single conditional write
	DebitBucket(ctx context.Context, bucketID string, capacity, windowSec int, now time.Time) (bool, error)
	// BucketState reads tokens and the next refill instant without spending
	BucketState(ctx context.Context, bucketID string, capacity, windowSec int, now time.Time) (tokens int, reset int64, err error)

	// GetCell loads the learning state, found=false means no row yet
	GetCell(ctx context.Context, segmentID int64, binID int) (cell learn.Cell, scheduleSec *float64, found bool, err error)
	// PutCell upserts the learning state, leaving schedule_mean_sec alone
	PutCell(ctx context.Context, segmentID int64, binID int, cell learn.Cell) error

	AppendRejection(ctx context.Context, row RejectionRow) error
	AppendAudit(ctx context.Context, row AuditRow) error
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

func (r *queries) GetIdem(ctx context.Context, key string) (*IdemRow, error) {
	const sql = `
SELECT idem_key, body_hash, status_code, response, accepted_at
FROM idempotency_keys
WHERE idem_key = ?
`
	rows, err := r.q.Query(ctx, sql, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	var row IdemRow
	var acceptedAt string
	if err := rows.Scan(&row.Key, &row.BodyHash, &row.StatusCode, &row.Response, &acceptedAt); err != nil {
		return nil, err
	}
	row.AcceptedAt = decodeTime(acceptedAt)
	return &row, rows.Err()
}

func (r *queries) PutIdem(ctx context.Context, row IdemRow) error {
	const sql = `
INSERT INTO idempotency_keys (idem_key, body_hash, status_code, response, accepted_at)
VALUES (?, ?, ?, ?, ?)
`
	_, err := r.q.Exec(ctx, sql, row.Key, row.BodyHash, row.StatusCode, row.Response, encodeTime(row.AcceptedAt))
	return err
}

func (r *queries) EnsureBucket(ctx context.Context, bucketID string, capacity int, now time.Time) error {
	const sql = `
INSERT INTO rate_limit_buckets (bucket_id, tokens, last_refill)
VALUES (?, ?, ?)
ON CONFLICT (bucket_id) DO NOTHING
`
	_, err := r.q.Exec(ctx, sql, bucketID, capacity, encodeTime(now))
	return err
}

// DebitBucket is the single conditional check-and-spend
// the WHERE clause admits the write only when a token remains or the
// window has elapsed, so two racing debits can never both take the last token
func (r *queries) DebitBucket(ctx context.Context, bucketID string, capacity, windowSec int, now time.Time) (bool, error) {
	const sql = `
UPDATE rate_limit_buckets SET
	tokens = CASE
		WHEN ? - CAST(strftime('%s', last_refill) AS INTEGER) >= ? THEN ? - 1
		ELSE tokens - 1
	END,
	last_refill = CASE
		WHEN ? - CAST(strftime('%s', last_refill) AS INTEGER) >= ? THEN ?
		ELSE last_refill
	END
WHERE bucket_id = ?
  AND (tokens > 0 OR ? - CAST(strftime('%s', last_refill) AS INTEGER) >= ?)
`
	nowUnix := now.UTC().Unix()
	tag, err := r.q.Exec(ctx, sql,
		nowUnix, windowSec, capacity,
		nowUnix, windowSec, encodeTime(now),
		bucketID,
		nowUnix, windowSec,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *queries) BucketState(ctx context.Context, bucketID string, capacity, windowSec int, now time.Time) (int, int64, error) {
	const sql = `
SELECT tokens, CAST(strftime('%s', last_refill) AS INTEGER)
FROM rate_limit_buckets
WHERE bucket_id = ?
`
	rows, err := r.q.Query(ctx, sql, bucketID)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()
	if !rows.Next() {
		// bucket never touched, a full window from now
		return capacity, now.UTC().Unix() + int64(windowSec), rows.Err()
	}
	var tokens int
	var refillUnix int64
	if err := rows.Scan(&tokens, &refillUnix); err != nil {
		return 0, 0, err
	}
	reset := refillUnix + int64(windowSec)
	// an elapsed window means the next admission refills immediately
	if now.UTC().Unix() >= reset {
		tokens = capacity
		reset = now.UTC().Unix() + int64(windowSec)
	}
	return tokens, reset, rows.Err()
}

func (r *queries) GetCell(ctx context.Context, segmentID int64, binID int) (learn.Cell, *float64, bool, error) {
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
		c.LastUpdate = decodeTime(*lastUpdate)
	}
	return c, schedule, true, rows.Err()
}

func (r *queries) PutCell(ctx context.Context, segmentID int64, binID int, cell learn.Cell) error {
	const sql = `
INSERT INTO segment_stats (segment_id, bin_id, n, m1, m2, ema_mean, ema_var, last_update)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (segment_id, bin_id) DO UPDATE SET
	n = excluded.n,
	m1 = excluded.m1,
	m2 = excluded.m2,
	ema_mean = excluded.ema_mean,
	ema_var = excluded.ema_var,
	last_update = excluded.last_update
`
	_, err := r.q.Exec(ctx, sql,
		segmentID, binID, cell.N, cell.M1, cell.M2, cell.EMAMean, cell.EMAVar,
		encodeTime(cell.LastUpdate),
	)
	return err
}

func (r *queries) AppendRejection(ctx context.Context, row RejectionRow) error {
	const sql = `
INSERT INTO rejection_log (segment_id, bin_id, reason, observed_value, bucket_id, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`
	_, err := r.q.Exec(ctx, sql,
		row.SegmentID, row.BinID, row.Reason, row.ObservedValue, row.BucketID,
		encodeTime(row.CreatedAt),
	)
	return err
}

func (r *queries) AppendAudit(ctx context.Context, row AuditRow) error {
	const sql = `
INSERT INTO ride_audit (segment_id, bin_id, duration_sec, dwell_sec, observed_at, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`
	_, err := r.q.Exec(ctx, sql,
		row.SegmentID, row.BinID, row.DurationSec, row.DwellSec,
		encodeTime(row.ObservedAt), encodeTime(row.CreatedAt),
	)
	return err
}
