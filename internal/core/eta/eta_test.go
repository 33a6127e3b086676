package eta_test

import (
	"testing"
	"time"

	"ridepulse/internal/core/eta"
	"ridepulse/internal/core/learn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// P3 endpoints: w = 0 at n = 0, w = 0.5 at n = n0, w -> 1 as n grows
func TestBlendEndpoints(t *testing.T) {
	assert.Equal(t, 0.0, eta.Blend(0, 20))
	assert.Equal(t, 0.5, eta.Blend(20, 20))
	assert.Greater(t, eta.Blend(1000000, 20), 0.999)
}

// scenario 1: cold cell falls back to schedule
func TestColdCellPureSchedule(t *testing.T) {
	est := eta.EstimateCell(learn.Cell{}, 320.0, 58, eta.DefaultParams())
	assert.Equal(t, 320.0, est.ETASec)
	assert.Equal(t, 320.0, est.P50Sec)
	assert.Equal(t, 320.0, est.P90Sec)
	assert.EqualValues(t, 0, est.N)
	assert.Equal(t, 0.0, est.BlendWeight)
	assert.Equal(t, eta.ConfidenceLow, est.Confidence)
	assert.Nil(t, est.LastUpdated)
}

// scenario 2: twenty observations of 280 against schedule 320 blend to 300
func TestBlendAtPivot(t *testing.T) {
	var c learn.Cell
	p := learn.DefaultParams()
	at := time.Date(2026, 8, 3, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		var res learn.Result
		c, res = learn.Apply(c, 280.0, at.Add(time.Duration(i)*time.Minute), p)
		require.Equal(t, learn.Accepted, res)
	}

	est := eta.EstimateCell(c, 320.0, 32, eta.DefaultParams())
	assert.InDelta(t, 300.0, est.ETASec, 1e-9)
	assert.EqualValues(t, 20, est.N)
	assert.Equal(t, 0.5, est.BlendWeight)
	assert.Equal(t, eta.ConfidenceHigh, est.Confidence)
	// identical observations, sigma 0, p90 collapses onto the mean
	assert.InDelta(t, 300.0, est.P90Sec, 1e-6)
	require.NotNil(t, est.LastUpdated)
}

func TestConfidenceBands(t *testing.T) {
	assert.Equal(t, eta.ConfidenceLow, eta.ConfidenceOf(0))
	assert.Equal(t, eta.ConfidenceLow, eta.ConfidenceOf(2))
	assert.Equal(t, eta.ConfidenceMedium, eta.ConfidenceOf(3))
	assert.Equal(t, eta.ConfidenceMedium, eta.ConfidenceOf(7))
	assert.Equal(t, eta.ConfidenceHigh, eta.ConfidenceOf(8))
}

func TestP90MarginWidensUnderUncertainty(t *testing.T) {
	// same spread, different n, the low-n cell gets the wider 1.5 margin
	mk := func(n int64) learn.Cell {
		return learn.Cell{N: n, M1: 300, M2: 100 * float64(n)} // sigma 10
	}
	p := eta.Params{N0: 20}

	medium := eta.EstimateCell(mk(5), 300, 0, p)
	high := eta.EstimateCell(mk(50), 300, 0, p)

	assert.InDelta(t, medium.ETASec+1.5*10, medium.P90Sec, 1e-9)
	assert.InDelta(t, high.ETASec+1.28*10, high.P90Sec, 1e-9)
}

func TestSigmaZeroBelowTwoSamples(t *testing.T) {
	c := learn.Cell{N: 1, M1: 300, M2: 50}
	est := eta.EstimateCell(c, 320, 0, eta.DefaultParams())
	assert.Equal(t, est.ETASec, est.P90Sec)
}
