// Package testutil provides synthetic signals and assertions shared by the pitch tests.
package testutil

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

// SampleRate is the reference rate used by most tests
const SampleRate = 48000.0

// Sine returns n samples of amplitude*sin(2*pi*freq*t) starting at phase 0
func Sine(freq, amplitude, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

// Harmonics returns a tone whose k-th partial (k = 1..len(amps)) has amplitude amps[k-1]
func Harmonics(freq, sampleRate float64, n int, amps ...float64) []float64 {
	out := make([]float64, n)
	for k, a := range amps {
		partial := Sine(freq*float64(k+1), a, sampleRate, n)
		for i := range out {
			out[i] += partial[i]
		}
	}
	return out
}

// Noise returns deterministic uniform noise in [-amplitude, amplitude]
func Noise(amplitude float64, n int, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * (2*rng.Float64() - 1)
	}
	return out
}

// PeriodsWindow is the smallest window holding periods full periods of freq
func PeriodsWindow(freq, sampleRate float64, periods int) int {
	return int(math.Ceil(float64(periods) * sampleRate / freq))
}

// AssertWithinPercent checks |actual-expected| <= pct% of expected
func AssertWithinPercent(t *testing.T, expected, actual, pct float64, msgAndArgs ...any) bool {
	t.Helper()
	return assert.InDelta(t, expected, actual, math.Abs(expected)*pct/100, msgAndArgs...)
}

// AssertUnitInterval checks 0 <= v <= 1 and v is finite
func AssertUnitInterval(t *testing.T, v float64, msgAndArgs ...any) bool {
	t.Helper()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return assert.Fail(t, "value is not finite", msgAndArgs...)
	}
	return assert.GreaterOrEqual(t, v, 0.0, msgAndArgs...) && assert.LessOrEqual(t, v, 1.0, msgAndArgs...)
}
