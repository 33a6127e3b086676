// Package service contains the ingestion orchestrator
// One admitted request is one write transaction, idempotency, quota,
// learning state, rejection log, and audit commit or roll back together
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"ridepulse/internal/core/learn"
	"ridepulse/internal/core/timebin"
	perr "ridepulse/internal/platform/errors"
	"ridepulse/internal/platform/logger"

	"ridepulse/internal/modkit/repokit"
	"ridepulse/internal/services/ingest/domain"
	"ridepulse/internal/services/ingest/repo"
	segdomain "ridepulse/internal/services/segments/domain"
	"ridepulse/internal/services/tuning"
)

// StaleWindow bounds accepted observation timestamps to [now-7d, now]
const StaleWindow = 7 * 24 * time.Hour

// quota refill window, one hour
const windowSec = 3600

// Service defines the orchestrator contract
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo     repo.Repo
	binder   repokit.Binder[repo.Repo]
	db       repokit.TxRunner
	registry segdomain.RegistryPort
	params   tuning.Params
	log      logger.Logger
}

// New creates a new ingestion service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], registry segdomain.RegistryPort, params tuning.Params, log logger.Logger) *Svc {
	if db == nil {
		panic("ingest.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("ingest.Service requires a non nil Repo binder")
	}
	if registry == nil {
		panic("ingest.Service requires a segment registry")
	}
	return &Svc{
		Repo:     binder.Bind(db),
		binder:   binder,
		db:       db,
		registry: registry,
		params:   params,
		log:      log,
	}
}

func stale(observedAt, now time.Time) bool {
	return observedAt.Before(now.Add(-StaleWindow)) || observedAt.After(now)
}

// bucketFor picks the quota key, falling back to the trusted peer address
func bucketFor(in domain.SubmitInput) string {
	if in.Body.BucketID != "" {
		return in.Body.BucketID
	}
	return "ip:" + in.PeerIP
}

// Submit runs the full admission pipeline for one ride summary
func (s *Svc) Submit(ctx context.Context, in domain.SubmitInput) (domain.SubmitResult, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	bucket := bucketFor(in)
	capacity := s.params.RateLimitPerHour

	// shape gate, non transactional: an oversized list is a single rejection
	if len(in.Body.Segments) > s.params.MaxSegmentsPerRide {
		return s.rejectOversized(ctx, bucket, capacity, now)
	}

	// request granularity gate: a submission whose every timestamp is
	// outside the window is semantically void, refused before any writes
	staleCount := 0
	for _, o := range in.Body.Segments {
		if stale(o.ObservedAt, now) {
			staleCount++
		}
	}
	if staleCount == len(in.Body.Segments) {
		return domain.SubmitResult{}, perr.Unprocessablef("every segment is outside the accepted timestamp window")
	}

	var out domain.SubmitResult
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		rq := s.binder.Bind(q)

		// idempotency begin
		rec, err := rq.GetIdem(ctx, in.IdemKey.String())
		if err != nil {
			return perr.FromStore(err, "idempotency lookup")
		}
		if rec != nil {
			if bytes.Equal(rec.BodyHash, in.BodyHash[:]) {
				// true replay, no quota debit, no writes
				if err := json.Unmarshal([]byte(rec.Response), &out.Summary); err != nil {
					return perr.Wrap(err, perr.ErrorCodeDB, "cached response corrupt")
				}
				out.Replay = true
				out.RateLimit, err = s.rateState(ctx, rq, bucket, capacity, now)
				return err
			}
			return perr.Conflictf("idempotency key reused with a different body")
		}

		// quota debit, atomic check-and-spend
		if err := rq.EnsureBucket(ctx, bucket, capacity, now); err != nil {
			return perr.FromStore(err, "quota bucket init")
		}
		admitted, err := rq.DebitBucket(ctx, bucket, capacity, windowSec, now)
		if err != nil {
			return perr.FromStore(err, "quota debit")
		}
		out.RateLimit, err = s.rateState(ctx, rq, bucket, capacity, now)
		if err != nil {
			return err
		}
		if !admitted {
			return perr.RateLimitedf("hourly quota exhausted")
		}

		// per segment processing, submission order
		var sum domain.Summary
		reject := func(reason string, segID *int64, binID *int, value *float64) error {
			sum.RejectedByReason.Add(reason)
			return rq.AppendRejection(ctx, repo.RejectionRow{
				SegmentID:     segID,
				BinID:         binID,
				Reason:        reason,
				ObservedValue: value,
				BucketID:      bucket,
				CreatedAt:     now,
			})
		}

		for i := range in.Body.Segments {
			o := in.Body.Segments[i]
			if stale(o.ObservedAt, now) {
				if err := reject(domain.ReasonStaleTimestamp, nil, nil, &o.DurationSec); err != nil {
					return perr.FromStore(err, "rejection append")
				}
				continue
			}
			if o.MapMatchConf != nil && *o.MapMatchConf < s.params.MapMatchMinConf {
				if err := reject(domain.ReasonLowConfidence, nil, nil, o.MapMatchConf); err != nil {
					return perr.FromStore(err, "rejection append")
				}
				continue
			}
			if !learn.ValidDuration(o.DurationSec) {
				if err := reject(domain.ReasonInvalidSegment, nil, nil, &o.DurationSec); err != nil {
					return perr.FromStore(err, "rejection append")
				}
				continue
			}

			segID, err := s.registry.Lookup(ctx, segdomain.Key{
				RouteID:     in.Body.RouteID,
				DirectionID: in.Body.DirectionID,
				FromStopID:  o.FromStopID,
				ToStopID:    o.ToStopID,
			})
			if err != nil {
				if perr.IsCode(err, perr.ErrorCodeNotFound) {
					if err := reject(domain.ReasonInvalidSegment, nil, nil, &o.DurationSec); err != nil {
						return perr.FromStore(err, "rejection append")
					}
					continue
				}
				return err
			}

			binID := timebin.BinOf(o.ObservedAt, o.Holiday)
			cell, _, _, err := rq.GetCell(ctx, segID, binID)
			if err != nil {
				return perr.FromStore(err, "stats read")
			}
			next, res := learn.Apply(cell, o.DurationSec, o.ObservedAt, s.params.Learn())
			if res == learn.RejectedOutlier {
				if err := reject(domain.ReasonOutlier, &segID, &binID, &o.DurationSec); err != nil {
					return perr.FromStore(err, "rejection append")
				}
				continue
			}
			if err := rq.PutCell(ctx, segID, binID, next); err != nil {
				return perr.FromStore(err, "stats write")
			}
			if err := rq.AppendAudit(ctx, repo.AuditRow{
				SegmentID:   segID,
				BinID:       binID,
				DurationSec: o.DurationSec,
				DwellSec:    o.DwellSec,
				ObservedAt:  o.ObservedAt,
				CreatedAt:   now,
			}); err != nil {
				return perr.FromStore(err, "audit append")
			}
			sum.AcceptedSegments++
		}
		sum.RejectedSegments = sum.RejectedByReason.Total()
		out.Summary = sum

		// idempotency commit, the record lands atomically with the stats
		resp, err := json.Marshal(sum)
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnknown, "response encode")
		}
		if err := rq.PutIdem(ctx, repo.IdemRow{
			Key:        in.IdemKey.String(),
			BodyHash:   in.BodyHash[:],
			StatusCode: 200,
			Response:   string(resp),
			AcceptedAt: now,
		}); err != nil {
			return perr.FromStore(err, "idempotency commit")
		}
		return nil
	})
	if err != nil {
		return out, err
	}
	return out, nil
}

func (s *Svc) rateState(ctx context.Context, rq repo.Repo, bucket string, capacity int, now time.Time) (domain.RateState, error) {
	tokens, reset, err := rq.BucketState(ctx, bucket, capacity, windowSec, now)
	if err != nil {
		return domain.RateState{}, perr.FromStore(err, "quota read")
	}
	return domain.RateState{Limit: capacity, Remaining: tokens, Reset: reset}, nil
}

// rejectOversized reports the single too_many_segments rejection
// the request never opens the write transaction, the log row is best effort
func (s *Svc) rejectOversized(ctx context.Context, bucket string, capacity int, now time.Time) (domain.SubmitResult, error) {
	var out domain.SubmitResult
	out.Summary.RejectedSegments = 1
	out.Summary.RejectedByReason.Add(domain.ReasonTooManySegments)

	if err := s.Repo.AppendRejection(ctx, repo.RejectionRow{
		Reason:    domain.ReasonTooManySegments,
		BucketID:  bucket,
		CreatedAt: now,
	}); err != nil {
		s.log.Warn().Err(err).Msg("oversized rejection log failed")
	}

	state, err := s.rateState(ctx, s.Repo, bucket, capacity, now)
	if err != nil {
		return out, nil
	}
	out.RateLimit = state
	return out, nil
}
