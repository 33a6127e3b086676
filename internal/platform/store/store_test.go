package store_test

import (
	"context"
	"errors"
	"testing"

	perr "ridepulse/internal/platform/errors"
	"ridepulse/internal/platform/store"
	"ridepulse/internal/platform/testkit"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{
		AppName: "ridepulse-test",
		SQLite: store.SQLiteConfig{
			Enabled: true,
			Path:    testkit.TempDB(t),
		},
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestOpenMigratesSchema(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Guard(ctx); err != nil {
		t.Fatalf("guard: %v", err)
	}

	n, err := store.Scalar[int](ctx, s.SQL,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN
		('segments','segment_stats','idempotency_keys','rate_limit_buckets','rejection_log','ride_audit','schedule_meta')`)
	if err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7 tables, got %d", n)
	}
}

func TestExecAndScalar(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := store.ExecOne(ctx, s.SQL,
		`INSERT INTO schedule_meta (key, value) VALUES (?, ?)`, "feed_version", "2026-08"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	v, err := store.Scalar[string](ctx, s.SQL,
		`SELECT value FROM schedule_meta WHERE key = ?`, "feed_version")
	if err != nil {
		t.Fatalf("scalar: %v", err)
	}
	if v != "2026-08" {
		t.Fatalf("got %q", v)
	}
}

func TestOneNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := store.One(ctx, s.SQL, func(r store.Row) (string, error) {
		var v string
		err := r.Scan(&v)
		return v, err
	}, `SELECT value FROM schedule_meta WHERE key = ?`, "missing")
	if !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTxRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.SQL.Tx(ctx, func(q store.RowQuerier) error {
		if err := store.ExecOne(ctx, q,
			`INSERT INTO schedule_meta (key, value) VALUES (?, ?)`, "k", "v"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	n, err := store.Scalar[int](ctx, s.SQL, `SELECT COUNT(*) FROM schedule_meta`)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("rollback left %d rows", n)
	}
}

func TestTxCommitVisibleToReaders(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.SQL.Tx(ctx, func(q store.RowQuerier) error {
		return store.ExecOne(ctx, q,
			`INSERT INTO segments (segment_id, route_id, direction_id, from_stop_id, to_stop_id)
			 VALUES (1, '12', 0, 'A', 'B')`)
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	n, err := store.Scalar[int](ctx, s.SQL, `SELECT COUNT(*) FROM segments`)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected committed row, got %d", n)
	}
}
