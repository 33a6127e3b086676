package store

import "time"

// Config aggregates per backend configuration
type Config struct {
	AppName string

	SQLite SQLiteConfig
}

// SQLiteConfig configures the embedded sqlite database
type SQLiteConfig struct {
	Enabled bool
	// Path is the database file path; ":memory:" opens a throwaway db
	Path string
	// BusyMs is the busy_timeout pragma in milliseconds, default 5000
	BusyMs int
	// MaxReadConns caps the read pool, default 4. The write handle is always 1
	MaxReadConns int
	LogSQL       bool
	SlowQueryMs  int

	// Guard/boot knobs:
	PingTimeout time.Duration // default 5s
}
