package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	perr "ridepulse/internal/platform/errors"
	"ridepulse/internal/platform/store/sqlite"
)

// sqliteAdapter wraps sqlite.DB and implements RowQuerier + TxRunner
// reads go to the read pool, writes and transactions to the single writer handle
// it also emits query trace events when a tracer is configured
type sqliteAdapter struct {
	d *sqlite.DB
}

func newSQLiteAdapter(d *sqlite.DB) *sqliteAdapter { return &sqliteAdapter{d: d} }

func (a *sqliteAdapter) Ping(ctx context.Context) error {
	if a == nil {
		return errors.New("sqlite: nil adapter")
	}
	var one int
	return a.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (a *sqliteAdapter) Close() error { return a.d.Close() }

func (a *sqliteAdapter) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	start := time.Now()
	res, err := a.d.Writer.ExecContext(ctx, q, args...)
	a.emit(ctx, q, args, start, err)
	if err != nil {
		return nil, err
	}
	return tag{res}, nil
}

func (a *sqliteAdapter) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := a.d.Reader.QueryContext(ctx, q, args...)
	a.emit(ctx, q, args, start, err)
	if err != nil {
		return nil, err
	}
	return rows{r: rs}, nil
}

func (a *sqliteAdapter) QueryRow(ctx context.Context, q string, args ...any) Row {
	start := time.Now()
	r := a.d.Reader.QueryRowContext(ctx, q, args...)
	// wrap to emit after Scan completes, capturing error from Scan
	return row{
		r: r,
		after: func(scanErr error) {
			a.emit(ctx, q, args, start, scanErr)
		},
	}
}

// Tx runs fn inside a single write transaction opened with BEGIN IMMEDIATE
// the begin is retried a bounded number of times when another process holds the lock
func (a *sqliteAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	const (
		beginAttempts = 5
		backoffStart  = 25 * time.Millisecond
	)

	conn, err := a.d.Writer.Conn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	backoff := backoffStart
	for i := 0; ; i++ {
		_, err = conn.ExecContext(ctx, "BEGIN IMMEDIATE")
		if err == nil {
			break
		}
		if i+1 >= beginAttempts || !perr.IsRetryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	q := connQuerier{
		conn:   conn,
		tracer: a.d.Tracer,
		slowUS: int64(a.d.SlowMs) * 1000,
	}
	if err := fn(q); err != nil {
		_, _ = conn.ExecContext(ctx, "ROLLBACK")
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		_, _ = conn.ExecContext(ctx, "ROLLBACK")
		return err
	}
	return nil
}

// emit sends a query event to the configured tracer
func (a *sqliteAdapter) emit(ctx context.Context, q string, args []any, start time.Time, err error) {
	if a == nil || a.d == nil || a.d.Tracer == nil {
		return
	}
	elapsedUS := time.Since(start).Microseconds()
	slow := a.d.SlowMs >= 0 && elapsedUS >= int64(a.d.SlowMs)*1000
	a.d.Tracer.OnQuery(ctx, sqlite.QueryEvent{
		SQL:       q,
		Args:      args,
		ElapsedUS: elapsedUS,
		Err:       err,
		Slow:      slow,
	})
}

// adapters for database/sql to our tiny Row/Rows/CommandTag

type row struct {
	r     *sql.Row
	after func(error)
}

func (x row) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

type rows struct{ r *sql.Rows }

func (x rows) Next() bool            { return x.r.Next() }
func (x rows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x rows) Err() error            { return x.r.Err() }
func (x rows) Close()                { _ = x.r.Close() }
func (x rows) Columns() []string {
	cols, err := x.r.Columns()
	if err != nil {
		return nil
	}
	return cols
}

// wrap sql.Result so we satisfy our CommandTag interface
type tag struct{ res sql.Result }

func (t tag) String() string {
	n, err := t.res.RowsAffected()
	if err != nil {
		return "EXEC"
	}
	return "EXEC " + strconv.FormatInt(n, 10)
}

func (t tag) RowsAffected() int64 {
	n, err := t.res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

// connQuerier satisfies RowQuerier inside a Tx on the dedicated writer connection
// it mirrors sqliteAdapter emit behavior so queries inside transactions are also traced
type connQuerier struct {
	conn   *sql.Conn
	tracer sqlite.QueryTracer
	slowUS int64
}

func (t connQuerier) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	start := time.Now()
	res, err := t.conn.ExecContext(ctx, q, args...)
	t.emit(ctx, q, args, start, err)
	if err != nil {
		return nil, err
	}
	return tag{res}, nil
}

func (t connQuerier) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.conn.QueryContext(ctx, q, args...)
	t.emit(ctx, q, args, start, err)
	if err != nil {
		return nil, err
	}
	return rows{r: rs}, nil
}

func (t connQuerier) QueryRow(ctx context.Context, q string, args ...any) Row {
	start := time.Now()
	r := t.conn.QueryRowContext(ctx, q, args...)
	return row{
		r: r,
		after: func(scanErr error) {
			t.emit(ctx, q, args, start, scanErr)
		},
	}
}

func (t connQuerier) emit(ctx context.Context, q string, args []any, start time.Time, err error) {
	if t.tracer == nil {
		return
	}
	elapsedUS := time.Since(start).Microseconds()
	slow := t.slowUS >= 0 && elapsedUS >= t.slowUS
	t.tracer.OnQuery(ctx, sqlite.QueryEvent{
		SQL:       q,
		Args:      args,
		ElapsedUS: elapsedUS,
		Err:       err,
		Slow:      slow,
	})
}
