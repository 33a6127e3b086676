// Package tuning loads the learning tunables once and passes them by value
// into every request scope, nothing reads the environment after startup
package tuning

import (
	"ridepulse/internal/core/eta"
	"ridepulse/internal/core/learn"
	"ridepulse/internal/platform/config"
)

// Params are the learning and admission tunables
type Params struct {
	N0                 int64   `json:"n0"`
	TimeBinMinutes     int     `json:"time_bin_minutes"`
	HalfLifeDays       float64 `json:"half_life_days"`
	EMAAlphaBase       float64 `json:"ema_alpha_base"`
	OutlierSigma       float64 `json:"outlier_sigma"`
	MapMatchMinConf    float64 `json:"mapmatch_min_conf"`
	MaxSegmentsPerRide int     `json:"max_segments_per_ride"`
	RateLimitPerHour   int     `json:"rate_limit_per_hour"`
	IdempotencyTTLHrs  int     `json:"idempotency_ttl_hours"`
}

// FromConfig reads LEARN_* keys from the given (already prefixed) config
func FromConfig(cfg config.Conf) Params {
	return Params{
		N0:                 int64(cfg.MayInt("N0", 20)),
		TimeBinMinutes:     15,
		HalfLifeDays:       cfg.MayFloat64("HALF_LIFE_DAYS", 30),
		EMAAlphaBase:       cfg.MayFloat64("EMA_ALPHA_BASE", 0.1),
		OutlierSigma:       cfg.MayFloat64("OUTLIER_SIGMA", 3.0),
		MapMatchMinConf:    cfg.MayFloat64("MAPMATCH_MIN_CONF", 0.7),
		MaxSegmentsPerRide: cfg.MayInt("MAX_SEGMENTS_PER_RIDE", 50),
		RateLimitPerHour:   cfg.MayInt("RATE_LIMIT_PER_HOUR", 500),
		IdempotencyTTLHrs:  cfg.MayInt("IDEMPOTENCY_TTL_HOURS", 24),
	}
}

// Learn projects the updater parameters
func (p Params) Learn() learn.Params {
	return learn.Params{
		OutlierSigma: p.OutlierSigma,
		AlphaBase:    p.EMAAlphaBase,
		HalfLifeDays: p.HalfLifeDays,
	}
}

// ETA projects the estimator parameters
func (p Params) ETA() eta.Params {
	return eta.Params{N0: p.N0}
}
