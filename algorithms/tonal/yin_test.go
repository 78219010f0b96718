package tonal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
	"github.com/RyanBlaney/sonido-pitch/internal/testutil"
)

func TestDifferenceFunction(t *testing.T) {
	window := []float64{1, 0, -1, 0, 1, 0, -1, 0}
	// half = 4, limit = 4
	diff := differenceFunction(window, 4, 4)

	require.Len(t, diff, 4)
	assert.Equal(t, 1.0, diff[0], "d(0) sentinel")
	assert.Equal(t, 4.0, diff[1]) // (1-0)^2 + (0+1)^2 + (-1-0)^2 + (0-1)^2
	assert.Equal(t, 8.0, diff[2])
	assert.Equal(t, 4.0, diff[3])
}

func TestCumulativeMeanNormalizedDifference(t *testing.T) {
	cmnd := cumulativeMeanNormalizedDifference([]float64{1, 2, 4, 2})

	assert.Equal(t, 1.0, cmnd[0])
	assert.InDelta(t, 1.0, cmnd[1], 1e-12)     // 2*1/2
	assert.InDelta(t, 8.0/6.0, cmnd[2], 1e-12) // 4*2/6
	assert.InDelta(t, 6.0/8.0, cmnd[3], 1e-12) // 2*3/8
}

func TestCumulativeMeanNormalizedDifference_ZeroRunningSum(t *testing.T) {
	cmnd := cumulativeMeanNormalizedDifference([]float64{1, 0, 0, 4})

	assert.Equal(t, []float64{1, 1, 1, 3}, cmnd)
}

func TestSearchDip(t *testing.T) {
	tests := []struct {
		name      string
		cmnd      []float64
		minLag    int
		threshold float64
		want      int
	}{
		{
			name:      "descends to bottom of first dip",
			cmnd:      []float64{1, 0.5, 0.09, 0.05, 0.02, 0.04, 0.01},
			minLag:    1,
			threshold: 0.1,
			want:      4,
		},
		{
			name:      "ignores dips below min lag",
			cmnd:      []float64{1, 0.01, 0.5, 0.3, 0.08, 0.2},
			minLag:    2,
			threshold: 0.1,
			want:      4,
		},
		{
			name:      "falls back to global minimum",
			cmnd:      []float64{1, 0.9, 0.5, 0.3, 0.4, 0.35, 0.8},
			minLag:    1,
			threshold: 0.1,
			want:      3,
		},
		{
			name:      "fallback keeps first of equal minima",
			cmnd:      []float64{1, 0.6, 0.4, 0.7, 0.4},
			minLag:    1,
			threshold: 0.1,
			want:      2,
		},
		{
			name:      "nothing below one",
			cmnd:      []float64{1, 1, 1.2, 1},
			minLag:    1,
			threshold: 0.1,
			want:      -1,
		},
		{
			name:      "empty range",
			cmnd:      []float64{1, 0.01, 0.02},
			minLag:    3,
			threshold: 0.1,
			want:      -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, searchDip(tt.cmnd, tt.minLag, tt.threshold))
		})
	}
}

func TestYin_InterpolationGuardOnCollinearCurve(t *testing.T) {
	// d'(tau-1) == 2*d'(tau) - d'(tau+1): the parabola degenerates to a line
	cmnd := []float64{1, 0.9, 0.03, 0.05, 0.07, 0.5}
	minLag := 3

	tau := searchDip(cmnd, minLag, 0.1)
	require.Equal(t, 3, tau)

	betterTau := common.RefineIndex(cmnd, tau)
	assert.Equal(t, float64(tau), betterTau)

	pitch := DefaultSampleRate / betterTau
	assert.False(t, math.IsNaN(pitch) || math.IsInf(pitch, 0))
	assert.Equal(t, DefaultSampleRate/3, pitch)
}

func TestYin_RefinementStaysNearIntegerLag(t *testing.T) {
	estimator, err := NewYinEstimator(DefaultPitchDetectionParams())
	require.NoError(t, err)

	// 440 Hz has a period of 109.09 samples at 48 kHz
	window := testutil.Sine(440, 0.5, DefaultSampleRate, 2048)
	result, err := estimator.Estimate(window)
	require.NoError(t, err)

	period := DefaultSampleRate / result.PitchHz
	assert.InDelta(t, 109.09, period, 0.5)
}

func TestYin_ThresholdSensitivity(t *testing.T) {
	// a noisy tone passes a loose threshold through its first dip, a strict
	// threshold only through the global-minimum fallback; both stay bounded
	tone := testutil.Sine(196, 0.5, DefaultSampleRate, 2048)
	noise := testutil.Noise(0.2, 2048, 9)
	for i := range tone {
		tone[i] += noise[i]
	}

	for _, threshold := range []float64{0.05, 0.1, 0.2, 0.5} {
		result, err := ProcessYIN(tone, len(tone), threshold)
		require.NoError(t, err)
		require.True(t, result.IsDetected(), "threshold %g", threshold)
		testutil.AssertUnitInterval(t, result.Confidence)
	}
}

func TestBestPeak_PrefersHighestPeakOverFirst(t *testing.T) {
	corr := []float64{10, 0, 3, 0, 7, 0, 5, 0}

	lag, value := bestPeak(corr, 1)
	assert.Equal(t, 4, lag)
	assert.Equal(t, 7.0, value)
}

func TestBestPeak(t *testing.T) {
	tests := []struct {
		name    string
		corr    []float64
		minLag  int
		wantLag int
	}{
		{"no peaks in flat curve", []float64{4, 4, 4, 4, 4}, 1, -1},
		{"negative peaks never win", []float64{4, -3, -1, -3, -2}, 1, -1},
		{"plateau is not a strict maximum", []float64{4, 1, 2, 2, 1}, 1, -1},
		{"rounding ripple is not a strict maximum", []float64{4, 1, 1 + 1e-14, 1, 1 - 1e-14, 1}, 1, -1},
		{"last lag cannot be a peak", []float64{4, 1, 2, 3}, 1, -1},
		{"peak below min lag ignored", []float64{4, 3, 1, 2, 1}, 2, 3},
		{"min lag itself may peak", []float64{4, 1, 3, 2, 1}, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lag, _ := bestPeak(tt.corr, tt.minLag)
			assert.Equal(t, tt.wantLag, lag)
		})
	}
}
