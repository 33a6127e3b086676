// Package learn applies single observations to per cell running statistics
// A cell is the learning state of one (segment, bin) pair, the running
// moments use Welford's update so m2 stays non negative up to rounding,
// the exponential estimator decays by observation time, not wall clock
package learn

import (
	"math"
	"time"
)

// MaxDurationSec is the upper bound for a plausible segment traversal
const MaxDurationSec = 7200

// Cell is the learning state of one (segment, bin) pair
type Cell struct {
	N          int64
	M1         float64
	M2         float64
	EMAMean    float64
	EMAVar     float64
	LastUpdate time.Time
}

// Sigma returns the population standard deviation, 0 when n = 0
func (c Cell) Sigma() float64 {
	if c.N <= 0 {
		return 0
	}
	v := c.M2 / float64(c.N)
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}

// Params tunes the updater
type Params struct {
	// OutlierSigma is the k in the |x - m1| > k*sigma gate, default 3.0
	OutlierSigma float64
	// AlphaBase is the EMA smoothing at dt equal to one half life, default 0.1
	AlphaBase float64
	// HalfLifeDays scales the decay clock, default 30
	HalfLifeDays float64
}

// DefaultParams returns the production defaults
func DefaultParams() Params {
	return Params{
		OutlierSigma: 3.0,
		AlphaBase:    0.1,
		HalfLifeDays: 30,
	}
}

// Result reports the outcome of one Apply call
type Result int

const (
	// Accepted means the cell state advanced
	Accepted Result = iota
	// RejectedOutlier means the observation failed the sigma gate, state unchanged
	RejectedOutlier
)

// Apply folds one observation x (duration seconds) observed at observedAt
// into the cell. The outlier gate only arms once n > 5 so early cells
// cannot starve themselves on a noisy start
func Apply(c Cell, x float64, observedAt time.Time, p Params) (Cell, Result) {
	if c.N > 5 {
		if sigma := c.Sigma(); math.Abs(x-c.M1) > p.OutlierSigma*sigma {
			return c, RejectedOutlier
		}
	}

	// Welford running moments
	n1 := c.N + 1
	d := x - c.M1
	m1 := c.M1 + d/float64(n1)
	d2 := x - m1
	m2 := c.M2 + d*d2

	// time decayed EMA, first observation seeds the estimator
	var emaMean, emaVar float64
	if c.N == 0 {
		emaMean = x
		emaVar = 0
	} else {
		dt := observedAt.Sub(c.LastUpdate).Seconds()
		if dt < 0 {
			dt = 0
		}
		alpha := effectiveAlpha(p.AlphaBase, dt, p.HalfLifeDays)
		emaMean = alpha*x + (1-alpha)*c.EMAMean
		dev := x - emaMean
		emaVar = alpha*dev*dev + (1-alpha)*c.EMAVar
	}

	return Cell{
		N:          n1,
		M1:         m1,
		M2:         m2,
		EMAMean:    emaMean,
		EMAVar:     emaVar,
		LastUpdate: observedAt.UTC(),
	}, Accepted
}

// effectiveAlpha stretches the base smoothing over the elapsed fraction of a half life
// alpha_eff = 1 - (1 - alpha_base)^(dt / (H*86400))
func effectiveAlpha(alphaBase, dtSec, halfLifeDays float64) float64 {
	if halfLifeDays <= 0 {
		return alphaBase
	}
	exp := dtSec / (halfLifeDays * 86400)
	return 1 - math.Pow(1-alphaBase, exp)
}

// ValidDuration reports whether x is a plausible segment duration
func ValidDuration(x float64) bool {
	return x > 0 && x <= MaxDurationSec
}
