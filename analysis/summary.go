package analysis

import (
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/sonido-pitch/algorithms/tonal"
)

// Summary aggregates a tracking run over its voiced frames
type Summary struct {
	Frames         int     `json:"frames"`
	VoicedFrames   int     `json:"voiced_frames"`
	MeanPitchHz    float64 `json:"mean_pitch_hz"`
	MedianPitchHz  float64 `json:"median_pitch_hz"`
	MeanConfidence float64 `json:"mean_confidence"`
	MeanClarity    float64 `json:"mean_clarity"`
	MeanRMS        float64 `json:"mean_rms"` // Over all frames
	MedianNote     string  `json:"median_note,omitempty"`
}

// Summarize computes run statistics. Pitch statistics are zero when no
// frame carried a pitch.
func Summarize(events []PitchEvent) Summary {
	summary := Summary{Frames: len(events)}
	if len(events) == 0 {
		return summary
	}

	rms := make([]float64, 0, len(events))
	var pitches, confidences, clarities []float64
	for _, e := range events {
		rms = append(rms, e.RMS)
		if !e.IsDetected() {
			continue
		}
		pitches = append(pitches, e.PitchHz)
		confidences = append(confidences, e.Confidence)
		clarities = append(clarities, e.Clarity)
	}

	summary.MeanRMS = stat.Mean(rms, nil)
	summary.VoicedFrames = len(pitches)
	if len(pitches) == 0 {
		return summary
	}

	summary.MeanPitchHz = stat.Mean(pitches, nil)
	summary.MeanConfidence = stat.Mean(confidences, nil)
	summary.MeanClarity = stat.Mean(clarities, nil)

	slices.Sort(pitches)
	summary.MedianPitchHz = stat.Quantile(0.5, stat.Empirical, pitches, nil)
	if note, ok := tonal.NearestNote(summary.MedianPitchHz); ok {
		summary.MedianNote = note.Name
	}

	return summary
}
