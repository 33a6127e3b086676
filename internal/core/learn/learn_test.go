package learn_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"ridepulse/internal/core/learn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

func applyAll(t *testing.T, xs []float64) learn.Cell {
	t.Helper()
	var c learn.Cell
	p := learn.DefaultParams()
	for i, x := range xs {
		var res learn.Result
		c, res = learn.Apply(c, x, t0.Add(time.Duration(i)*time.Minute), p)
		require.Equal(t, learn.Accepted, res, "observation %d", i)
	}
	return c
}

// P2: final m1 is the arithmetic mean, m2/n the population variance
func TestWelfordEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	xs := make([]float64, 500)
	var sum float64
	for i := range xs {
		xs[i] = 100 + 400*rng.Float64()
		sum += xs[i]
	}
	mean := sum / float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}

	c := applyAll(t, xs)
	assert.InDelta(t, mean, c.M1, 1e-9)
	assert.InDelta(t, ss/float64(len(xs)), c.M2/float64(c.N), 1e-6)
}

// P1: m2 never goes negative over random accepted sequences
func TestVarianceNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var c learn.Cell
	p := learn.DefaultParams()
	p.OutlierSigma = math.Inf(1) // accept everything
	for i := 0; i < 10000; i++ {
		x := math.Abs(rng.NormFloat64()*50 + 300)
		c, _ = learn.Apply(c, x, t0.Add(time.Duration(i)*time.Second), p)
		require.GreaterOrEqual(t, c.M2, 0.0)
	}
	assert.EqualValues(t, 10000, c.N)
}

// P8: with n > 5 the gate is exact at the 3 sigma boundary
func TestOutlierSoundness(t *testing.T) {
	c := applyAll(t, []float64{300, 305, 295, 302, 298, 300, 301, 299, 300, 300})
	require.Greater(t, c.N, int64(5))
	sigma := c.Sigma()
	require.Greater(t, sigma, 0.0)
	p := learn.DefaultParams()

	within := c.M1 + 3*sigma - 1e-9
	_, res := learn.Apply(c, within, t0.Add(time.Hour), p)
	assert.Equal(t, learn.Accepted, res)

	beyond := c.M1 + 3*sigma + 1e-6
	next, res := learn.Apply(c, beyond, t0.Add(time.Hour), p)
	assert.Equal(t, learn.RejectedOutlier, res)
	assert.Equal(t, c, next, "rejection must not mutate the cell")
}

func TestNoOutlierGateBeforeSixObservations(t *testing.T) {
	// five observations in, a wild value is still accepted
	c := applyAll(t, []float64{300, 300, 300, 300, 300})
	require.EqualValues(t, 5, c.N)
	_, res := learn.Apply(c, 7000, t0.Add(time.Hour), learn.DefaultParams())
	assert.Equal(t, learn.Accepted, res)
}

func TestFirstObservationSeedsEMA(t *testing.T) {
	var c learn.Cell
	c, res := learn.Apply(c, 280, t0, learn.DefaultParams())
	require.Equal(t, learn.Accepted, res)
	assert.Equal(t, 280.0, c.EMAMean)
	assert.Equal(t, 0.0, c.EMAVar)
	assert.Equal(t, t0, c.LastUpdate)
}

func TestEMADecayScalesWithGap(t *testing.T) {
	p := learn.DefaultParams()
	var base learn.Cell
	base, _ = learn.Apply(base, 300, t0, p)

	// a second observation an hour later barely moves the EMA
	soon, _ := learn.Apply(base, 400, t0.Add(time.Hour), p)
	// the same observation a half-life later moves it by alpha_base
	late, _ := learn.Apply(base, 400, t0.Add(30*24*time.Hour), p)

	assert.Less(t, soon.EMAMean, late.EMAMean)
	assert.InDelta(t, 0.1*400+0.9*300, late.EMAMean, 1e-9)
}

func TestLastUpdateTracksObservedAt(t *testing.T) {
	// replaying older data must not move the decay clock forward
	p := learn.DefaultParams()
	var c learn.Cell
	c, _ = learn.Apply(c, 300, t0, p)
	obs := t0.Add(10 * time.Minute)
	c, _ = learn.Apply(c, 310, obs, p)
	assert.Equal(t, obs, c.LastUpdate)
}

func TestValidDuration(t *testing.T) {
	assert.False(t, learn.ValidDuration(0))
	assert.False(t, learn.ValidDuration(-5))
	assert.False(t, learn.ValidDuration(7200.5))
	assert.True(t, learn.ValidDuration(0.5))
	assert.True(t, learn.ValidDuration(7200))
}
