// Package service answers config and health introspection
package service

import (
	"context"
	"time"

	perr "ridepulse/internal/platform/errors"
	"ridepulse/internal/platform/logger"

	"ridepulse/internal/modkit/repokit"
	"ridepulse/internal/services/meta/domain"
	"ridepulse/internal/services/meta/repo"
	"ridepulse/internal/services/tuning"
)

// pingTimeout bounds the health probe so a wedged store cannot stall the endpoint
const pingTimeout = 2 * time.Second

// Service defines the service contract for metadata
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo    repo.Repo
	db      repokit.TxRunner
	params  tuning.Params
	started time.Time
	log     logger.Logger
}

// New creates a new metadata service, started marks process boot for uptime
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], params tuning.Params, started time.Time, log logger.Logger) *Svc {
	if db == nil {
		panic("meta.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("meta.Service requires a non nil Repo binder")
	}
	if started.IsZero() {
		started = time.Now().UTC()
	}
	return &Svc{Repo: binder.Bind(db), db: db, params: params, started: started, log: log}
}

// Config reports the active tunables and the schedule feed tag
func (s *Svc) Config(ctx context.Context) (domain.ConfigOut, error) {
	version, err := s.Repo.FeedVersion(ctx)
	if err != nil {
		return domain.ConfigOut{}, perr.FromStore(err, "feed version read")
	}
	return domain.ConfigOut{Params: s.params, FeedVersion: version}, nil
}

// Health probes the store and reports liveness, it never fails the request
func (s *Svc) Health(ctx context.Context) domain.HealthOut {
	out := domain.HealthOut{
		Status:    "ok",
		DBOK:      true,
		UptimeSec: int64(time.Since(s.started).Seconds()),
	}

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if p, ok := s.db.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(pctx); err != nil {
			s.log.Warn().Err(err).Msg("health probe: store ping failed")
			out.DBOK = false
			out.Status = "degraded"
		}
	}
	return out
}
