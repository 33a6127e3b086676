// Package service runs the background retention sweeps
package service

import (
	"context"
	"time"

	perr "ridepulse/internal/platform/errors"
	"ridepulse/internal/platform/logger"

	"ridepulse/internal/modkit/repokit"
	"ridepulse/internal/services/sweeper/repo"
)

// Params tune the sweep cadence and retention windows
type Params struct {
	Interval time.Duration

	IdempotencyTTL time.Duration
	BucketIdle     time.Duration
	RejectionKeep  time.Duration
	AuditKeep      time.Duration
}

// DefaultParams returns the production retention windows
func DefaultParams() Params {
	return Params{
		Interval:       15 * time.Minute,
		IdempotencyTTL: 24 * time.Hour,
		BucketIdle:     24 * time.Hour,
		RejectionKeep:  30 * 24 * time.Hour,
		AuditKeep:      90 * 24 * time.Hour,
	}
}

// Counts reports rows removed by one sweep pass
type Counts struct {
	Idempotency int64
	Buckets     int64
	Rejections  int64
	Audit       int64
}

// Svc owns the sweep loop
type Svc struct {
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
	params Params
	log    logger.Logger
}

// New creates a new sweeper
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], params Params, log logger.Logger) *Svc {
	if db == nil {
		panic("sweeper.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("sweeper.Service requires a non nil Repo binder")
	}
	if params.Interval <= 0 {
		params.Interval = DefaultParams().Interval
	}
	return &Svc{binder: binder, db: db, params: params, log: log}
}

// SweepOnce runs all retention deletes in one write transaction
func (s *Svc) SweepOnce(ctx context.Context, now time.Time) (Counts, error) {
	var c Counts
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		rq := s.binder.Bind(q)
		var err error
		if c.Idempotency, err = rq.DeleteIdemBefore(ctx, now.Add(-s.params.IdempotencyTTL)); err != nil {
			return perr.FromStore(err, "idempotency sweep")
		}
		if c.Buckets, err = rq.DeleteIdleBucketsBefore(ctx, now.Add(-s.params.BucketIdle)); err != nil {
			return perr.FromStore(err, "bucket sweep")
		}
		if c.Rejections, err = rq.DeleteRejectionsBefore(ctx, now.Add(-s.params.RejectionKeep)); err != nil {
			return perr.FromStore(err, "rejection sweep")
		}
		if c.Audit, err = rq.DeleteAuditBefore(ctx, now.Add(-s.params.AuditKeep)); err != nil {
			return perr.FromStore(err, "audit sweep")
		}
		return nil
	})
	return c, err
}

// Run loops until the context is cancelled
func (s *Svc) Run(ctx context.Context) {
	t := time.NewTicker(s.params.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			now := time.Now().UTC()
			counts, err := s.SweepOnce(ctx, now)
			if err != nil {
				s.log.Error().Err(err).Msg("retention sweep failed")
				continue
			}
			if total := counts.Idempotency + counts.Buckets + counts.Rejections + counts.Audit; total > 0 {
				s.log.Info().
					Int64("idempotency", counts.Idempotency).
					Int64("buckets", counts.Buckets).
					Int64("rejections", counts.Rejections).
					Int64("audit", counts.Audit).
					Msg("retention sweep removed rows")
			}
		}
	}
}
