package service

import (
	"time"

	"ridepulse/internal/platform/config"
	"ridepulse/internal/services/tuning"
)

// FromConfig reads the sweep tunables from the given (already prefixed)
// config, the idempotency window follows the shared learning params
func FromConfig(cfg config.Conf, params tuning.Params) Params {
	p := DefaultParams()
	p.Interval = cfg.MayDuration("SWEEP_INTERVAL", p.Interval)
	p.IdempotencyTTL = time.Duration(params.IdempotencyTTLHrs) * time.Hour
	p.BucketIdle = cfg.MayDuration("BUCKET_IDLE_TTL", p.BucketIdle)
	p.RejectionKeep = time.Duration(cfg.MayInt("REJECTION_RETENTION_DAYS", 30)) * 24 * time.Hour
	p.AuditKeep = time.Duration(cfg.MayInt("AUDIT_RETENTION_DAYS", 90)) * 24 * time.Hour
	return p
}
