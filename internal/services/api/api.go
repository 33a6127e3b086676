// Package api provides the HTTP API for the application
package api

import (
	"context"
	"crypto/subtle"
	"time"

	"ridepulse/internal/platform/config"
	"ridepulse/internal/platform/logger"
	phttp "ridepulse/internal/platform/net/http"
	"ridepulse/internal/platform/store"

	"ridepulse/internal/modkit"
	"ridepulse/internal/modkit/httpkit"
	"ridepulse/internal/modkit/module"
	"ridepulse/internal/modkit/swaggerkit"

	perr "ridepulse/internal/platform/errors"

	ingestmod "ridepulse/internal/services/ingest/module"
	metamod "ridepulse/internal/services/meta/module"
	predictmod "ridepulse/internal/services/predict/module"
	segrepo "ridepulse/internal/services/segments/repo"
	segsvc "ridepulse/internal/services/segments/service"
	"ridepulse/internal/services/tuning"
)

// Options are the API options
type Options struct {
	Config config.Conf
	Store  *store.Store
	Logger *logger.Logger

	// Params are the learning tunables loaded once at startup
	Params tuning.Params
	// Started marks process boot for uptime reporting
	Started time.Time

	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
// the segment registry is loaded before any route becomes reachable
func Mount(r phttp.Router, opt Options) {
	l := opt.Logger
	deps := modkit.Deps{
		Log: *l,
		Cfg: opt.Config,
		DB:  opt.Store.SQL,
	}

	// registry first, the write and read paths both resolve against it
	registry := segsvc.New(deps.DB, segrepo.NewSQLite())
	if err := registry.Load(context.Background()); err != nil {
		l.Panic().Err(err).Msg("segment registry load failed")
	}
	l.Info().Int("segments", registry.Size()).Msg("segment registry loaded")

	auth := httpkit.Auth(httpkit.NewPortFunc(tokenParser(opt.Config.MustString("TOKEN"))))

	mods := []module.Module{
		metamod.New(deps, modkit.WithPorts(metamod.Ports{
			Params:  opt.Params,
			Started: opt.Started,
		})),
		predictmod.New(deps, modkit.WithPorts(predictmod.Ports{
			Registry: registry,
			Params:   opt.Params,
		})),
		// only the write path requires the collector bearer token
		ingestmod.New(deps,
			modkit.WithPorts(ingestmod.Ports{
				Registry: registry,
				Params:   opt.Params,
			}),
			modkit.WithMiddlewares(auth),
		),
	}

	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})
}

// tokenParser matches the shared collector token in constant time
func tokenParser(want string) httpkit.TokenFunc {
	return func(token string) (string, error) {
		if subtle.ConstantTimeCompare([]byte(token), []byte(want)) != 1 {
			return "", perr.Unauthorizedf("invalid bearer token")
		}
		return "collector", nil
	}
}
