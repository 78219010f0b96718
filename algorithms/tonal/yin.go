package tonal

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
	"github.com/RyanBlaney/sonido-pitch/algorithms/spectral"
)

// YinEstimator implements the YIN fundamental frequency estimator
//
// References:
// - de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental frequency estimator for speech and music"
//
// The difference function is evaluated over the first half of the window
// for every lag in [1, min(MaxLag, size/2)), normalized cumulatively, and
// searched from MinLag for the first dip below the threshold. The chosen
// lag is refined with parabolic interpolation.
type YinEstimator struct {
	params PitchDetectionParams
}

// NewYinEstimator validates params (including the YIN threshold) and creates the estimator
func NewYinEstimator(params PitchDetectionParams) (*YinEstimator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := common.ValidateOpenUnit("yin threshold", params.YinThreshold); err != nil {
		return nil, err
	}

	return &YinEstimator{params: params}, nil
}

// Method identifies the estimator
func (y *YinEstimator) Method() PitchDetectionMethod {
	return AutocorrelationYin
}

// Params returns the configuration in use
func (y *YinEstimator) Params() PitchDetectionParams {
	return y.params
}

// Estimate detects the pitch of window. An aperiodic or too-short window
// yields the zero PitchResult, not an error.
func (y *YinEstimator) Estimate(window []float64) (PitchResult, error) {
	window, err := common.Window(window, len(window))
	if err != nil {
		return PitchResult{}, fmt.Errorf("yin: %w", err)
	}

	return y.estimate(window), nil
}

func (y *YinEstimator) estimate(window []float64) PitchResult {
	half := len(window) / 2
	limit := min(y.params.MaxLag, half)
	if limit <= y.params.MinLag() {
		return PitchResult{}
	}

	cmnd := cumulativeMeanNormalizedDifference(differenceFunction(window, half, limit))

	tau := searchDip(cmnd, y.params.MinLag(), y.params.YinThreshold)
	if tau <= 0 || tau >= half {
		return PitchResult{}
	}

	betterTau := common.RefineIndex(cmnd, tau)

	return PitchResult{
		PitchHz:    y.params.SampleRate / betterTau,
		Confidence: common.Clamp01(1.0 - cmnd[tau]),
		Clarity:    spectral.Clarity(window),
	}
}

// differenceFunction computes d(tau) = sum_{i<half} (x[i] - x[i+tau])^2
// for tau in [1, limit). d(0) is the sentinel 1 and is never selected.
func differenceFunction(window []float64, half, limit int) []float64 {
	diff := make([]float64, limit)
	diff[0] = 1.0

	head := window[:half]
	delta := make([]float64, half)
	for tau := 1; tau < limit; tau++ {
		floats.SubTo(delta, head, window[tau:tau+half])
		diff[tau] = floats.Dot(delta, delta)
	}

	return diff
}

// cumulativeMeanNormalizedDifference computes d'(tau) = d(tau) * tau / sum_{j=1..tau} d(j).
// While the running sum is zero (silence so far) d'(tau) is 1, a non-candidate.
func cumulativeMeanNormalizedDifference(diff []float64) []float64 {
	cmnd := make([]float64, len(diff))
	cmnd[0] = 1.0

	runningSum := 0.0
	for tau := 1; tau < len(diff); tau++ {
		runningSum += diff[tau]
		if runningSum > 0 {
			cmnd[tau] = diff[tau] * float64(tau) / runningSum
		} else {
			cmnd[tau] = 1.0
		}
	}

	return cmnd
}

// searchDip scans from minLag for the first value below threshold and then
// descends to the bottom of that dip. Without any sub-threshold dip it falls
// back to the global minimum, which must still be below 1. Returns -1 when
// nothing qualifies.
func searchDip(cmnd []float64, minLag int, threshold float64) int {
	if minLag < 1 || minLag >= len(cmnd) {
		return -1
	}

	for tau := minLag; tau < len(cmnd); tau++ {
		if cmnd[tau] < threshold {
			for tau+1 < len(cmnd) && cmnd[tau+1] < cmnd[tau] {
				tau++
			}
			return tau
		}
	}

	tau := minLag + floats.MinIdx(cmnd[minLag:])
	if cmnd[tau] < 1.0 {
		return tau
	}
	return -1
}
