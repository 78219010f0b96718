package filters

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
)

// DCRemoval implements a DC blocking filter (one-pole high-pass) that removes
// the 0 Hz component and slow drift before pitch analysis.
//
// References:
//   - Julius O. Smith III, "Introduction to Digital Filters with Audio Applications"
//     https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
//
// Difference equation: y[n] = x[n] - x[n-1] + R * y[n-1]
//
// The filter is stateful: feeding a signal in consecutive chunks gives the
// same output as feeding it in one piece.
type DCRemoval struct {
	poleLocation float64 // R parameter (0 < R < 1)

	x1 float64 // x[n-1]
	y1 float64 // y[n-1]
}

// NewDCRemoval creates a DC blocker with the given -3dB cutoff.
// The pole location is R = 1 - 2*pi*fc/fs, valid for fc << fs/2.
func NewDCRemoval(sampleRate, cutoffHz float64) (*DCRemoval, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %g", common.ErrInvalidInput, sampleRate)
	}
	if !(cutoffHz > 0) {
		return nil, fmt.Errorf("%w: dc cutoff must be positive, got %g", common.ErrInvalidInput, cutoffHz)
	}

	r := 1.0 - 2.0*math.Pi*cutoffHz/sampleRate
	if r <= 0 {
		return nil, fmt.Errorf("%w: dc cutoff %g Hz too high for %g Hz", common.ErrInvalidInput, cutoffHz, sampleRate)
	}

	return &DCRemoval{poleLocation: r}, nil
}

// PoleLocation returns R
func (dc *DCRemoval) PoleLocation() float64 {
	return dc.poleLocation
}

// CutoffFrequency inverts the design formula: fc = (1-R)*fs/(2*pi)
func (dc *DCRemoval) CutoffFrequency(sampleRate float64) float64 {
	return (1.0 - dc.poleLocation) * sampleRate / (2.0 * math.Pi)
}

// Process filters one sample
func (dc *DCRemoval) Process(input float64) float64 {
	output := input - dc.x1 + dc.poleLocation*dc.y1
	dc.x1 = input
	dc.y1 = output
	return output
}

// ProcessBuffer filters input into a new slice, carrying state across calls
func (dc *DCRemoval) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = dc.Process(sample)
	}
	return output
}

// Reset clears the filter state.
// Call this when processing discontinuous audio segments.
func (dc *DCRemoval) Reset() {
	dc.x1 = 0.0
	dc.y1 = 0.0
}

// Magnitude returns |H(e^jw)| = |1 - e^-jw| / |1 - R*e^-jw| at frequency
func (dc *DCRemoval) Magnitude(frequency, sampleRate float64) float64 {
	z := cmplx.Exp(complex(0, -2.0*math.Pi*frequency/sampleRate))
	return cmplx.Abs((1 - z) / (1 - complex(dc.poleLocation, 0)*z))
}
