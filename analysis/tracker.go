package analysis

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
	"github.com/RyanBlaney/sonido-pitch/algorithms/filters"
	"github.com/RyanBlaney/sonido-pitch/algorithms/tonal"
	"github.com/RyanBlaney/sonido-pitch/logging"
)

// TrackerConfig holds configuration for frame-by-frame pitch tracking
type TrackerConfig struct {
	FrameSize int                        `json:"frame_size"`
	HopSize   int                        `json:"hop_size"`
	Method    tonal.PitchDetectionMethod `json:"method"`
	Params    tonal.PitchDetectionParams `json:"params"`

	// Frames quieter than this RMS are not analysed
	RMSThreshold float64 `json:"rms_threshold"`

	// Pitches reported with lower confidence are discarded
	MinConfidence float64 `json:"min_confidence"`

	// Cutoff of the DC blocker applied before framing; 0 disables it
	DCCutoffHz float64 `json:"dc_cutoff_hz"`

	// Number of frames evaluated concurrently; <= 1 runs sequentially
	Workers int `json:"workers"`
}

// DefaultTrackerConfig returns default tracking configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		FrameSize:     2048,
		HopSize:       512,
		Method:        tonal.AutocorrelationYin,
		Params:        tonal.DefaultPitchDetectionParams(),
		RMSThreshold:  0.01,
		MinConfidence: 0.0,
		DCCutoffHz:    0.0,
		Workers:       1,
	}
}

// Validate checks framing, gating and estimator parameters
func (c *TrackerConfig) Validate() error {
	if c.FrameSize <= 0 {
		return fmt.Errorf("%w: frame size must be positive, got %d", common.ErrInvalidInput, c.FrameSize)
	}
	if c.HopSize <= 0 {
		return fmt.Errorf("%w: hop size must be positive, got %d", common.ErrInvalidInput, c.HopSize)
	}
	if c.RMSThreshold < 0 {
		return fmt.Errorf("%w: rms threshold must not be negative, got %g", common.ErrInvalidInput, c.RMSThreshold)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("%w: min confidence must be in [0, 1], got %g", common.ErrInvalidInput, c.MinConfidence)
	}
	if c.DCCutoffHz < 0 {
		return fmt.Errorf("%w: dc cutoff must not be negative, got %g", common.ErrInvalidInput, c.DCCutoffHz)
	}
	if c.DCCutoffHz > 0 {
		if _, err := filters.NewDCRemoval(c.Params.SampleRate, c.DCCutoffHz); err != nil {
			return err
		}
	}
	return nil
}

// PitchEvent is the tracker's report for one frame
type PitchEvent struct {
	FrameIndex int           `json:"frame_index"`
	Timestamp  time.Duration `json:"timestamp"` // Start of the frame
	tonal.PitchResult
	RMS   float64 `json:"rms"`
	Note  string  `json:"note,omitempty"`
	Cents float64 `json:"cents,omitempty"`
}

// Tracker slices a signal into frames and runs one estimator per frame.
// Frames are independent: no state is carried from one frame to the next.
type Tracker struct {
	config    *TrackerConfig
	estimator tonal.PitchEstimator
	logger    logging.Logger
}

// NewTracker creates a tracker; nil config selects DefaultTrackerConfig
func NewTracker(config *TrackerConfig) (*Tracker, error) {
	if config == nil {
		config = DefaultTrackerConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	estimator, err := tonal.NewPitchEstimator(config.Method, config.Params)
	if err != nil {
		return nil, err
	}

	logger := logging.WithFields(logging.Fields{
		"component": "pitch_tracker",
		"method":    config.Method.String(),
	})

	if config.FrameSize < config.Params.MinWindowSize() {
		logger.Warn("Frame size leaves an empty lag range; no pitch will be detected", logging.Fields{
			"frame_size":      config.FrameSize,
			"min_window_size": config.Params.MinWindowSize(),
		})
	}

	return &Tracker{
		config:    config,
		estimator: estimator,
		logger:    logger,
	}, nil
}

// Config returns the tracker configuration
func (t *Tracker) Config() *TrackerConfig {
	return t.config
}

// FrameCount returns how many full frames fit in n samples
func (t *Tracker) FrameCount(n int) int {
	if n < t.config.FrameSize {
		return 0
	}
	return (n-t.config.FrameSize)/t.config.HopSize + 1
}

// Track analyses every full frame of signal, in order. A trailing partial
// frame is ignored.
func (t *Tracker) Track(ctx context.Context, signal []float64) ([]PitchEvent, error) {
	if signal == nil {
		return nil, fmt.Errorf("%w: signal is nil", common.ErrInvalidInput)
	}

	numFrames := t.FrameCount(len(signal))
	fields := logging.Fields{
		"samples":    len(signal),
		"frames":     numFrames,
		"frame_size": t.config.FrameSize,
		"hop_size":   t.config.HopSize,
		"workers":    t.config.Workers,
	}

	if dc := t.newDCRemoval(); dc != nil {
		signal = dc.ProcessBuffer(signal)
		fields["dc_cutoff_hz"] = dc.CutoffFrequency(t.config.Params.SampleRate)
	}

	logger := t.logger.WithContext(ctx)
	logger.Debug("Tracking pitch", fields)

	events := make([]PitchEvent, numFrames)
	start := time.Now()

	if t.config.Workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(t.config.Workers)
		for i := range numFrames {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				event, err := t.AnalyzeFrame(i, t.frame(signal, i))
				if err != nil {
					return err
				}
				events[i] = event
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	} else {
		for i := range numFrames {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			event, err := t.AnalyzeFrame(i, t.frame(signal, i))
			if err != nil {
				return nil, err
			}
			events[i] = event
		}
	}

	logger.Debug("Pitch tracking completed", logging.Fields{
		"frames":  numFrames,
		"elapsed": time.Since(start).String(),
	})

	return events, nil
}

// newDCRemoval returns a fresh DC blocker, or nil when it is disabled
func (t *Tracker) newDCRemoval() *filters.DCRemoval {
	if t.config.DCCutoffHz <= 0 {
		return nil
	}
	// validated in NewTracker
	dc, _ := filters.NewDCRemoval(t.config.Params.SampleRate, t.config.DCCutoffHz)
	return dc
}

func (t *Tracker) frame(signal []float64, index int) []float64 {
	start := index * t.config.HopSize
	return signal[start : start+t.config.FrameSize]
}

// AnalyzeFrame gates, estimates and annotates a single frame
func (t *Tracker) AnalyzeFrame(index int, frame []float64) (PitchEvent, error) {
	rms, err := common.RMS(frame)
	if err != nil {
		return PitchEvent{}, fmt.Errorf("frame %d: %w", index, err)
	}

	event := PitchEvent{
		FrameIndex: index,
		Timestamp:  t.frameTime(index),
		RMS:        rms,
	}

	if rms < t.config.RMSThreshold {
		return event, nil
	}

	result, err := t.estimator.Estimate(frame)
	if err != nil {
		return PitchEvent{}, fmt.Errorf("frame %d: %w", index, err)
	}
	if !result.IsDetected() || result.Confidence < t.config.MinConfidence {
		return event, nil
	}

	event.PitchResult = result
	if note, ok := tonal.NearestNote(result.PitchHz); ok {
		event.Note = note.Name
		event.Cents = note.Cents
	}

	return event, nil
}

func (t *Tracker) frameTime(index int) time.Duration {
	seconds := float64(index*t.config.HopSize) / t.config.Params.SampleRate
	return time.Duration(seconds * float64(time.Second))
}
