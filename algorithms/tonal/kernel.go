package tonal

import (
	"fmt"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
)

// Host-facing entry points. The caller owns buffer; only its first size
// samples are read, and only for the duration of the call. Each call
// returns an independent PitchResult value.

// ProcessYIN runs the YIN estimator with the reference configuration and the given threshold
func ProcessYIN(buffer []float64, size int, threshold float64) (PitchResult, error) {
	params := DefaultPitchDetectionParams()
	params.YinThreshold = threshold
	return ProcessYINWithParams(buffer, size, params)
}

// ProcessYINWithParams runs the YIN estimator with explicit parameters
func ProcessYINWithParams(buffer []float64, size int, params PitchDetectionParams) (PitchResult, error) {
	window, err := common.Window(buffer, size)
	if err != nil {
		return PitchResult{}, fmt.Errorf("process yin: %w", err)
	}

	estimator, err := NewYinEstimator(params)
	if err != nil {
		return PitchResult{}, fmt.Errorf("process yin: %w", err)
	}

	return estimator.estimate(window), nil
}

// ProcessAutocorrelation runs the autocorrelation estimator with the reference configuration
func ProcessAutocorrelation(buffer []float64, size int) (PitchResult, error) {
	return ProcessAutocorrelationWithParams(buffer, size, DefaultPitchDetectionParams())
}

// ProcessAutocorrelationWithParams runs the autocorrelation estimator with explicit parameters
func ProcessAutocorrelationWithParams(buffer []float64, size int, params PitchDetectionParams) (PitchResult, error) {
	window, err := common.Window(buffer, size)
	if err != nil {
		return PitchResult{}, fmt.Errorf("process autocorrelation: %w", err)
	}

	estimator, err := NewAutocorrelationEstimator(params)
	if err != nil {
		return PitchResult{}, fmt.Errorf("process autocorrelation: %w", err)
	}

	return estimator.estimate(window), nil
}

// GetRMS returns the loudness of the first size samples of buffer
func GetRMS(buffer []float64, size int) (float64, error) {
	window, err := common.Window(buffer, size)
	if err != nil {
		return 0.0, fmt.Errorf("rms: %w", err)
	}

	return common.RMS(window)
}
