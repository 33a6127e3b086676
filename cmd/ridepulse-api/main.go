// @title         RidePulse API
// @version       0.1.0
// @description   Privacy preserving ETA learning for the bus network

package main

import (
	"context"
	"time"

	"ridepulse/internal/core/version"
	"ridepulse/internal/platform/config"
	"ridepulse/internal/platform/logger"
	phttp "ridepulse/internal/platform/net/http"
	"ridepulse/internal/platform/store"

	"ridepulse/internal/services/api"
	sweeprepo "ridepulse/internal/services/sweeper/repo"
	sweepsvc "ridepulse/internal/services/sweeper/service"
	"ridepulse/internal/services/tuning"
)

func main() {
	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	dbCfg := root.Prefix("SERVICE_SQLITE_") // dbCfg lives under SERVICE_SQLITE_*
	learnCfg := root.Prefix("LEARN_")       // learning tunables live under LEARN_*

	// bring up logging early
	l := logger.Get()
	started := time.Now().UTC()

	bi := version.Info()
	l.Info().Str("version", bi.Version).Str("commit", bi.Commit).Msg("starting ridepulse-api")

	st, err := store.Open(
		context.Background(),
		store.Config{
			AppName: "ridepulse-api",
			SQLite: store.SQLiteConfig{
				Enabled:      true,
				Path:         dbCfg.MayString("PATH", "ridepulse.db"),
				BusyMs:       dbCfg.MayInt("BUSY_MS", 5000),
				MaxReadConns: dbCfg.MayInt("MAX_READ_CONNS", 4),
				SlowQueryMs:  dbCfg.MayInt("SLOW_MS", 500),
				LogSQL:       dbCfg.MayBool("LOG_SQL", false),
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

	params := tuning.FromConfig(learnCfg)

	// background retention sweeps for idempotency, quota, and log tables
	sweepCtx, stopSweeps := context.WithCancel(context.Background())
	defer stopSweeps()
	sweeper := sweepsvc.New(st.SQL, sweeprepo.NewSQLite(), sweepsvc.FromConfig(learnCfg, params), *l)
	go sweeper.Run(sweepCtx)

	// http server (reads CORE_API_PORT / CORE_API_ADDR)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         apiCfg,
			Store:          st,
			Logger:         l,
			Params:         params,
			Started:        started,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
