// Package eta blends learned segment statistics with the schedule baseline
package eta

import (
	"math"
	"time"

	"ridepulse/internal/core/learn"
	ptime "ridepulse/internal/platform/time"
)

// Confidence buckets derived from sample count
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ConfidenceOf maps a sample count to its band
func ConfidenceOf(n int64) Confidence {
	switch {
	case n >= 8:
		return ConfidenceHigh
	case n >= 3:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Params tunes the estimator
type Params struct {
	// N0 is the blend pivot, w = n/(n+N0), default 20
	N0 int64
}

// DefaultParams returns the production defaults
func DefaultParams() Params { return Params{N0: 20} }

// Estimate is the full query result for one (segment, bin) cell
type Estimate struct {
	ETASec      float64    `json:"eta_sec"`
	P50Sec      float64    `json:"p50_sec"`
	P90Sec      float64    `json:"p90_sec"`
	N           int64      `json:"n"`
	BlendWeight float64    `json:"blend_weight"`
	ScheduleSec float64    `json:"schedule_sec"`
	Confidence  Confidence `json:"confidence"`
	BinID       int        `json:"bin_id"`
	LastUpdated *time.Time `json:"last_updated"`
}

// p90 z-scores, wider under uncertainty
const (
	marginHigh      = 1.28
	marginUncertain = 1.5
)

// Blend computes the schedule blend weight n/(n+n0)
func Blend(n, n0 int64) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n) / float64(n+n0)
}

// EstimateCell blends the cell's learned mean with the schedule baseline
// and derives confidence aware percentiles
func EstimateCell(c learn.Cell, scheduleSec float64, binID int, p Params) Estimate {
	w := Blend(c.N, p.N0)
	eta := w*c.M1 + (1-w)*scheduleSec

	var sigma float64
	if c.N >= 2 {
		sigma = math.Sqrt(c.M2 / float64(c.N))
	}

	conf := ConfidenceOf(c.N)
	margin := marginHigh
	if conf != ConfidenceHigh {
		margin = marginUncertain
	}

	return Estimate{
		ETASec:      eta,
		P50Sec:      eta,
		P90Sec:      eta + margin*sigma,
		N:           c.N,
		BlendWeight: w,
		ScheduleSec: scheduleSec,
		Confidence:  conf,
		BinID:       binID,
		LastUpdated: ptime.Ptr(c.LastUpdate),
	}
}
