// Command ridepulse-seed imports a schedule feed into the store
package main

import (
	"context"
	"flag"

	"ridepulse/internal/platform/config"
	"ridepulse/internal/platform/logger"
	"ridepulse/internal/platform/store"

	"ridepulse/internal/services/seed"
)

func main() {
	feedPath := flag.String("feed", "", "path to the schedule feed JSON")
	flag.Parse()

	root := config.New()
	dbCfg := root.Prefix("SERVICE_SQLITE_")

	l := logger.Get()
	if *feedPath == "" {
		l.Panic().Msg("missing -feed path")
	}

	st, err := store.Open(
		context.Background(),
		store.Config{
			AppName: "ridepulse-seed",
			SQLite: store.SQLiteConfig{
				Enabled: true,
				Path:    dbCfg.MayString("PATH", "ridepulse.db"),
				BusyMs:  dbCfg.MayInt("BUSY_MS", 5000),
			},
		},
		store.WithLogger(*logger.Get()),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	feed, err := seed.ParseFile(*feedPath)
	if err != nil {
		l.Panic().Err(err).Str("feed", *feedPath).Msg("feed parse failed")
	}

	im := seed.New(st.SQL, *l)
	stats, err := im.Import(context.Background(), feed)
	if err != nil {
		l.Panic().Err(err).Msg("feed import failed")
	}
	l.Info().
		Str("version", feed.Version).
		Int("segments", stats.Segments).
		Int("baselines", stats.Baselines).
		Msg("schedule feed imported")
}
