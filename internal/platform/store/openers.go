package store

import (
	"context"
	"fmt"
	"time"

	"ridepulse/internal/platform/store/sqlite"
)

// openSQLite opens the embedded db, migrates the schema, and wraps it with our sql adapter
func openSQLite(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer sqlite.QueryTracer
	if cfg.SQLite.LogSQL {
		tracer = sqlite.Tracer(s.Log)
	}

	d, err := sqlite.Open(ctx, sqlite.Config{
		Path:         cfg.SQLite.Path,
		BusyMs:       cfg.SQLite.BusyMs,
		MaxReadConns: cfg.SQLite.MaxReadConns,
		SlowMs:       cfg.SQLite.SlowQueryMs,
	}, tracer)
	if err != nil {
		return nil, err
	}

	pingTimeout := cfg.SQLite.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}

	toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := d.Writer.PingContext(toCtx); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	if err := d.Migrate(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}

	a := newSQLiteAdapter(d)
	s.SQL = a
	return a, nil
}
