// Package seed imports a schedule feed into the store
// the importer owns schedule_mean_sec and the feed version tag,
// learned statistics in the same rows are never touched
package seed

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"ridepulse/internal/core/timebin"
	perr "ridepulse/internal/platform/errors"
	"ridepulse/internal/platform/logger"

	"ridepulse/internal/modkit/repokit"
	segdomain "ridepulse/internal/services/segments/domain"
	segrepo "ridepulse/internal/services/segments/repo"
)

// ScheduleEntry is one per-bin baseline in the feed
type ScheduleEntry struct {
	BinID   int     `json:"bin_id"`
	MeanSec float64 `json:"mean_sec"`
}

// FeedSegment is one segment with its schedule in the feed
type FeedSegment struct {
	RouteID     string          `json:"route_id"`
	DirectionID int             `json:"direction_id"`
	FromStopID  string          `json:"from_stop_id"`
	ToStopID    string          `json:"to_stop_id"`
	Schedule    []ScheduleEntry `json:"schedule"`
}

// Feed is the importer input document
type Feed struct {
	Version  string        `json:"version"`
	Segments []FeedSegment `json:"segments"`
}

// Stats reports what one import touched
type Stats struct {
	Segments  int
	Baselines int
}

// Importer seeds segments and schedule baselines in one transaction
type Importer struct {
	db     repokit.TxRunner
	binder repokit.Binder[segrepo.Repo]
	log    logger.Logger
}

// New creates a new importer
func New(db repokit.TxRunner, log logger.Logger) *Importer {
	if db == nil {
		panic("seed.Importer requires a non nil TxRunner")
	}
	return &Importer{db: db, binder: segrepo.NewSQLite(), log: log}
}

// Parse decodes and shape-checks a feed document
func Parse(r io.Reader) (Feed, error) {
	var f Feed
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return Feed{}, perr.JSONErrf("feed decode: %v", err)
	}
	if f.Version == "" {
		return Feed{}, perr.Validationf("feed version is required")
	}
	if len(f.Segments) == 0 {
		return Feed{}, perr.Validationf("feed has no segments")
	}
	for _, seg := range f.Segments {
		if seg.RouteID == "" || seg.FromStopID == "" || seg.ToStopID == "" {
			return Feed{}, perr.Validationf("segment %s/%d %s->%s is missing identifiers",
				seg.RouteID, seg.DirectionID, seg.FromStopID, seg.ToStopID)
		}
		if seg.DirectionID != 0 && seg.DirectionID != 1 {
			return Feed{}, perr.Validationf("segment %s direction must be 0 or 1", seg.RouteID)
		}
		for _, e := range seg.Schedule {
			if e.BinID < 0 || e.BinID >= timebin.Bins {
				return Feed{}, perr.Validationf("bin_id %d out of range", e.BinID)
			}
			if e.MeanSec <= 0 {
				return Feed{}, perr.Validationf("mean_sec must be positive, got %v", e.MeanSec)
			}
		}
	}
	return f, nil
}

// ParseFile reads and parses the feed at path
func ParseFile(path string) (Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return Feed{}, perr.Wrap(err, perr.ErrorCodeValidation, "feed open")
	}
	defer f.Close()
	return Parse(f)
}

// Import applies the whole feed atomically
func (im *Importer) Import(ctx context.Context, f Feed) (Stats, error) {
	var st Stats
	err := im.db.Tx(ctx, func(q repokit.Queryer) error {
		segs := im.binder.Bind(q)

		for _, fs := range f.Segments {
			id, err := segs.Upsert(ctx, segdomain.Segment{
				RouteID:     fs.RouteID,
				DirectionID: fs.DirectionID,
				FromStopID:  fs.FromStopID,
				ToStopID:    fs.ToStopID,
			})
			if err != nil {
				return perr.FromStore(err, "segment upsert")
			}
			st.Segments++

			for _, e := range fs.Schedule {
				if err := upsertBaseline(ctx, q, id, e.BinID, e.MeanSec); err != nil {
					return perr.FromStore(err, "baseline upsert")
				}
				st.Baselines++
			}
		}

		if err := putFeedVersion(ctx, q, f.Version); err != nil {
			return perr.FromStore(err, "feed version write")
		}
		return nil
	})
	return st, err
}

// upsertBaseline sets the schedule mean, preserving learned state in the row
func upsertBaseline(ctx context.Context, q repokit.Queryer, segmentID int64, binID int, meanSec float64) error {
	const sql = `
INSERT INTO segment_stats (segment_id, bin_id, n, m1, m2, ema_mean, ema_var, schedule_mean_sec, last_update)
VALUES (?, ?, 0, 0, 0, 0, 0, ?, NULL)
ON CONFLICT (segment_id, bin_id) DO UPDATE SET
	schedule_mean_sec = excluded.schedule_mean_sec
`
	_, err := q.Exec(ctx, sql, segmentID, binID, meanSec)
	return err
}

func putFeedVersion(ctx context.Context, q repokit.Queryer, version string) error {
	const sql = `
INSERT INTO schedule_meta (key, value)
VALUES ('feed_version', ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value
`
	_, err := q.Exec(ctx, sql, version)
	return err
}
