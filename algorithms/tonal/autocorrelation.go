package tonal

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
	"github.com/RyanBlaney/sonido-pitch/algorithms/spectral"
	"github.com/RyanBlaney/sonido-pitch/algorithms/stats"
)

// AutocorrelationEstimator picks the period from the autocorrelation function
//
// References:
// - Rabiner, L.R. (1977). "On the use of autocorrelation analysis for pitch detection"
//
// Every strict local maximum from MinLag upward is a candidate and the one
// with the highest correlation wins, not the first one found. On harmonically
// rich tones a stronger peak at twice the period can therefore win (octave
// error); the behaviour is kept on purpose.
type AutocorrelationEstimator struct {
	params   PitchDetectionParams
	autocorr *stats.AutoCorrelation
}

// NewAutocorrelationEstimator validates params and creates the estimator.
// The YIN threshold is ignored.
func NewAutocorrelationEstimator(params PitchDetectionParams) (*AutocorrelationEstimator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return &AutocorrelationEstimator{
		params:   params,
		autocorr: stats.NewAutoCorrelationWithMethod(params.MaxLag, params.AutocorrMethod),
	}, nil
}

// Method identifies the estimator
func (a *AutocorrelationEstimator) Method() PitchDetectionMethod {
	return AutocorrelationACF
}

// Params returns the configuration in use
func (a *AutocorrelationEstimator) Params() PitchDetectionParams {
	return a.params
}

// Estimate detects the pitch of window. Without any positive correlation
// peak the zero PitchResult is returned.
func (a *AutocorrelationEstimator) Estimate(window []float64) (PitchResult, error) {
	window, err := common.Window(window, len(window))
	if err != nil {
		return PitchResult{}, fmt.Errorf("autocorrelation: %w", err)
	}

	return a.estimate(window), nil
}

func (a *AutocorrelationEstimator) estimate(window []float64) PitchResult {
	corr := a.autocorr.Compute(window)

	bestLag, bestCorr := bestPeak(corr, a.params.MinLag())
	if bestLag <= 0 || bestLag >= len(window)/2 {
		return PitchResult{}
	}

	return PitchResult{
		PitchHz:    a.params.SampleRate / float64(bestLag),
		Confidence: common.Clamp01(min(bestCorr/corr[0], 1.0)),
		Clarity:    spectral.Clarity(window),
	}
}

// peakTolerance is how far, relative to corr(0), a lag must rise above both
// neighbours to count as a strict maximum. Rounding noise on a flat curve
// stays below it.
const peakTolerance = 1e-9

// bestPeak returns the strict local maximum of corr with the highest value
// above zero, scanning lags from minLag. Returns -1 when there is none.
func bestPeak(corr []float64, minLag int) (int, float64) {
	bestLag := -1
	bestCorr := 0.0
	if len(corr) == 0 {
		return bestLag, bestCorr
	}

	tol := math.Abs(corr[0]) * peakTolerance
	for lag := max(minLag, 1); lag+1 < len(corr); lag++ {
		c := corr[lag]
		if c > bestCorr && c > corr[lag-1]+tol && c > corr[lag+1]+tol {
			bestCorr = c
			bestLag = lag
		}
	}

	return bestLag, bestCorr
}
