package analysis

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
	"github.com/RyanBlaney/sonido-pitch/algorithms/tonal"
)

// Note accuracy scoring
const (
	centsWeight      = 0.4
	confidenceWeight = 0.3
	stabilityWeight  = 0.2
	holdWeight       = 0.1

	// points lost per cent of mean absolute deviation
	centsPenalty = 4.0
	// points lost per cent of standard deviation
	spreadPenalty = 10.0

	// FullScoreHold is the hold time that earns the whole hold component
	FullScoreHold = 1500 * time.Millisecond
)

// NoteAccuracy scores how well the voiced events hold targetHz, from 0 to
// 100. The score blends four components, each on a 0-100 scale:
//
//   - precision (40%): 100 minus 4 points per cent of mean absolute deviation
//   - confidence (30%): mean estimator confidence
//   - stability (20%): 100 minus 10 points per cent of standard deviation
//   - hold (10%): hold as a share of FullScoreHold
//
// Unvoiced events are ignored. The score is 0 without voiced events or for a
// target that is not a positive finite frequency.
func NoteAccuracy(events []PitchEvent, targetHz float64, hold time.Duration) float64 {
	if !(targetHz > 0) || math.IsInf(targetHz, 0) {
		return 0
	}

	var cents, deviations, confidences []float64
	for _, e := range events {
		if !e.IsDetected() {
			continue
		}
		c := tonal.FrequencyToCents(e.PitchHz, targetHz)
		cents = append(cents, c)
		deviations = append(deviations, math.Abs(c))
		confidences = append(confidences, e.Confidence)
	}
	if len(cents) == 0 {
		return 0
	}

	precision := max(0, 100-centsPenalty*stat.Mean(deviations, nil))
	confidence := 100 * stat.Mean(confidences, nil)
	stability := max(0, 100-spreadPenalty*stat.PopStdDev(cents, nil))
	holdScore := 100 * common.Clamp01(hold.Seconds()/FullScoreHold.Seconds())

	score := centsWeight*precision +
		confidenceWeight*confidence +
		stabilityWeight*stability +
		holdWeight*holdScore

	return common.Clamp(score, 0, 100)
}
