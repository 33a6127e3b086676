package seed_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"ridepulse/internal/platform/store"
	"ridepulse/internal/platform/testkit"
	"ridepulse/internal/services/seed"
)

const feedJSON = `{
	"version": "2026-08-24",
	"segments": [
		{
			"route_id": "12",
			"direction_id": 0,
			"from_stop_id": "stop_a",
			"to_stop_id": "stop_b",
			"schedule": [
				{"bin_id": 36, "mean_sec": 300},
				{"bin_id": 37, "mean_sec": 320}
			]
		},
		{
			"route_id": "12",
			"direction_id": 1,
			"from_stop_id": "stop_b",
			"to_stop_id": "stop_a",
			"schedule": [
				{"bin_id": 36, "mean_sec": 310}
			]
		}
	]
}`

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{
		AppName: "ridepulse-test",
		SQLite:  store.SQLiteConfig{Enabled: true, Path: testkit.TempDB(t)},
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

func TestParseRejectsBadFeeds(t *testing.T) {
	cases := map[string]string{
		"empty version":    `{"version": "", "segments": [{"route_id": "1", "direction_id": 0, "from_stop_id": "a", "to_stop_id": "b"}]}`,
		"no segments":      `{"version": "v1", "segments": []}`,
		"bad direction":    `{"version": "v1", "segments": [{"route_id": "1", "direction_id": 2, "from_stop_id": "a", "to_stop_id": "b"}]}`,
		"bin out of range": `{"version": "v1", "segments": [{"route_id": "1", "direction_id": 0, "from_stop_id": "a", "to_stop_id": "b", "schedule": [{"bin_id": 192, "mean_sec": 100}]}]}`,
		"negative mean":    `{"version": "v1", "segments": [{"route_id": "1", "direction_id": 0, "from_stop_id": "a", "to_stop_id": "b", "schedule": [{"bin_id": 0, "mean_sec": -1}]}]}`,
		"unknown field":    `{"version": "v1", "nope": true, "segments": [{"route_id": "1", "direction_id": 0, "from_stop_id": "a", "to_stop_id": "b"}]}`,
	}
	for name, raw := range cases {
		if _, err := seed.Parse(strings.NewReader(raw)); err == nil {
			t.Errorf("%s: expected parse error", name)
		}
	}
}

func TestImportSeedsBaselinesAndVersion(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	feed, err := seed.Parse(strings.NewReader(feedJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	im := seed.New(st.SQL, zerolog.Nop())
	stats, err := im.Import(ctx, feed)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stats.Segments != 2 || stats.Baselines != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	version, err := store.Scalar[string](ctx, st.SQL,
		`SELECT value FROM schedule_meta WHERE key = 'feed_version'`)
	if err != nil {
		t.Fatalf("feed version: %v", err)
	}
	if version != "2026-08-24" {
		t.Fatalf("unexpected feed version %q", version)
	}

	mean, err := store.Scalar[float64](ctx, st.SQL, `
SELECT ss.schedule_mean_sec
FROM segment_stats ss
JOIN segments s ON s.segment_id = ss.segment_id
WHERE s.route_id = '12' AND s.direction_id = 0 AND ss.bin_id = 37`)
	if err != nil {
		t.Fatalf("baseline read: %v", err)
	}
	if mean != 320 {
		t.Fatalf("unexpected baseline %v", mean)
	}
}

func TestReimportPreservesLearnedState(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	feed, err := seed.Parse(strings.NewReader(feedJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	im := seed.New(st.SQL, zerolog.Nop())
	if _, err := im.Import(ctx, feed); err != nil {
		t.Fatalf("first import: %v", err)
	}

	// simulate learning between imports
	if _, err := st.SQL.Exec(ctx,
		`UPDATE segment_stats SET n = 12, m1 = 305 WHERE bin_id = 36`); err != nil {
		t.Fatalf("mark learned: %v", err)
	}

	feed.Version = "2026-09-01"
	feed.Segments[0].Schedule[0].MeanSec = 290
	if _, err := im.Import(ctx, feed); err != nil {
		t.Fatalf("second import: %v", err)
	}

	n, err := store.Scalar[int64](ctx, st.SQL,
		`SELECT n FROM segment_stats WHERE bin_id = 36 LIMIT 1`)
	if err != nil {
		t.Fatalf("read n: %v", err)
	}
	if n != 12 {
		t.Fatalf("reimport clobbered learned state, n=%d", n)
	}

	version, err := store.Scalar[string](ctx, st.SQL,
		`SELECT value FROM schedule_meta WHERE key = 'feed_version'`)
	if err != nil {
		t.Fatalf("feed version: %v", err)
	}
	if version != "2026-09-01" {
		t.Fatalf("feed version not updated, got %q", version)
	}
}
