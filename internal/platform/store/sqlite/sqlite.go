// Package sqlite provides an embedded sqlite client with split read and write handles
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

// Config configures the sqlite database
type Config struct {
	// Path is the database file path
	Path string
	// BusyMs is the busy_timeout pragma in milliseconds
	BusyMs int
	// MaxReadConns caps the read pool
	MaxReadConns int
	SlowMs       int
}

// DB holds a single writer handle and a read pool over one database file
//
// sqlite allows one writer at a time. Funneling all writes through a
// handle with MaxOpenConns(1) turns writer contention into queueing
// instead of SQLITE_BUSY storms
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	Tracer QueryTracer
	SlowMs int
}

// Open opens the writer and reader handles and applies pragmas
func Open(ctx context.Context, cfg Config, tracer QueryTracer) (*DB, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: empty path")
	}
	busy := cfg.BusyMs
	if busy <= 0 {
		busy = 5000
	}
	maxRead := cfg.MaxReadConns
	if maxRead <= 0 {
		maxRead = 4
	}

	dsn := dsnFor(cfg.Path, busy)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)
	writer.SetMaxIdleConns(1)

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	reader.SetMaxOpenConns(maxRead)
	reader.SetMaxIdleConns(maxRead)

	db := &DB{
		Writer: writer,
		Reader: reader,
		Tracer: tracer,
		SlowMs: cfg.SlowMs,
	}

	if err := db.applyPragmas(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func dsnFor(path string, busyMs int) string {
	// pragmas in the DSN apply to every pooled connection as it opens
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyMs))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", "foreign_keys(ON)")
	return "file:" + path + "?" + q.Encode()
}

// applyPragmas forces WAL on the writer once so the mode persists in the file
func (d *DB) applyPragmas(ctx context.Context) error {
	var mode string
	if err := d.Writer.QueryRowContext(ctx, "PRAGMA journal_mode=WAL").Scan(&mode); err != nil {
		return fmt.Errorf("sqlite journal_mode: %w", err)
	}
	// in-memory databases report "memory"; anything else must be wal
	if mode != "wal" && mode != "memory" {
		return fmt.Errorf("sqlite journal_mode: wanted wal, got %q", mode)
	}
	return nil
}

// Close closes both handles
func (d *DB) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.Reader != nil {
		if err := d.Reader.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.Writer != nil {
		if err := d.Writer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
