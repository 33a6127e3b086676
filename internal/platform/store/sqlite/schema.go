package sqlite

import (
	"context"
	"fmt"
)

// schema is the full DDL, idempotent via IF NOT EXISTS
var schema = []string{
	`CREATE TABLE IF NOT EXISTS segments (
		segment_id    INTEGER PRIMARY KEY,
		route_id      TEXT    NOT NULL,
		direction_id  INTEGER NOT NULL,
		from_stop_id  TEXT    NOT NULL,
		to_stop_id    TEXT    NOT NULL,
		UNIQUE (route_id, direction_id, from_stop_id, to_stop_id)
	)`,

	`CREATE TABLE IF NOT EXISTS segment_stats (
		segment_id        INTEGER NOT NULL,
		bin_id            INTEGER NOT NULL,
		n                 INTEGER NOT NULL DEFAULT 0,
		m1                REAL    NOT NULL DEFAULT 0,
		m2                REAL    NOT NULL DEFAULT 0,
		ema_mean          REAL    NOT NULL DEFAULT 0,
		ema_var           REAL    NOT NULL DEFAULT 0,
		schedule_mean_sec REAL,
		last_update       TEXT,
		PRIMARY KEY (segment_id, bin_id)
	) WITHOUT ROWID`,

	`CREATE TABLE IF NOT EXISTS idempotency_keys (
		idem_key    TEXT PRIMARY KEY,
		body_hash   BLOB NOT NULL,
		status_code INTEGER NOT NULL,
		response    TEXT NOT NULL,
		accepted_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_idempotency_accepted_at
		ON idempotency_keys (accepted_at)`,

	`CREATE TABLE IF NOT EXISTS rate_limit_buckets (
		bucket_id   TEXT PRIMARY KEY,
		tokens      INTEGER NOT NULL,
		last_refill TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS rejection_log (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		segment_id     INTEGER,
		bin_id         INTEGER,
		reason         TEXT NOT NULL,
		observed_value REAL,
		bucket_id      TEXT,
		created_at     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rejection_created_at
		ON rejection_log (created_at)`,

	`CREATE TABLE IF NOT EXISTS ride_audit (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		segment_id   INTEGER NOT NULL,
		bin_id       INTEGER NOT NULL,
		duration_sec REAL    NOT NULL,
		dwell_sec    REAL,
		observed_at  TEXT NOT NULL,
		created_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ride_audit_created_at
		ON ride_audit (created_at)`,

	`CREATE TABLE IF NOT EXISTS schedule_meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// Migrate creates the schema through the writer handle
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.Writer.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite migrate: %w", err)
		}
	}
	return nil
}
