// Package service contains the ETA query workflow
package service

import (
	"context"
	"time"

	"ridepulse/internal/core/eta"
	"ridepulse/internal/core/timebin"
	perr "ridepulse/internal/platform/errors"

	"ridepulse/internal/modkit/repokit"
	"ridepulse/internal/services/predict/domain"
	"ridepulse/internal/services/predict/repo"
	segdomain "ridepulse/internal/services/segments/domain"
	"ridepulse/internal/services/tuning"
)

// Service defines the service contract for the estimator
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
// reads run on the shared reader pool, the query path never writes
type Svc struct {
	Repo     repo.Repo
	registry segdomain.RegistryPort
	params   tuning.Params
}

// New creates a new estimator service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], registry segdomain.RegistryPort, params tuning.Params) *Svc {
	if db == nil {
		panic("predict.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("predict.Service requires a non nil Repo binder")
	}
	if registry == nil {
		panic("predict.Service requires a segment registry")
	}
	return &Svc{Repo: binder.Bind(db), registry: registry, params: params}
}

// Estimate answers one ETA query
// an unknown segment or a cell without a schedule baseline is not_found,
// a cell with schedule but no observations degrades to the pure baseline
func (s *Svc) Estimate(ctx context.Context, q domain.Query) (eta.Estimate, error) {
	segID, err := s.registry.Lookup(ctx, segdomain.Key{
		RouteID:     q.RouteID,
		DirectionID: q.DirectionID,
		FromStopID:  q.FromStopID,
		ToStopID:    q.ToStopID,
	})
	if err != nil {
		return eta.Estimate{}, err
	}

	when := q.When
	if when.IsZero() {
		when = time.Now().UTC()
	}
	binID := timebin.BinOf(when, q.Holiday)

	cell, schedule, found, err := s.Repo.Cell(ctx, segID, binID)
	if err != nil {
		return eta.Estimate{}, perr.FromStore(err, "stats read")
	}
	if !found || schedule == nil {
		return eta.Estimate{}, perr.NotFoundf("no schedule baseline for segment %d bin %d", segID, binID)
	}
	return eta.EstimateCell(cell, *schedule, binID, s.params.ETA()), nil
}
