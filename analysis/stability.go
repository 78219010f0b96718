package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
	"github.com/RyanBlaney/sonido-pitch/algorithms/tonal"
	"github.com/RyanBlaney/sonido-pitch/logging"
)

// TunerStatus is the state a StabilityTracker reports after each event
type TunerStatus int

const (
	// No event seen since creation or reset
	StatusIdle TunerStatus = iota

	// Signal is missing, too quiet, too uncertain or out of tune
	StatusDetecting

	// In tune and holding
	StatusStable

	// Held in tune long enough; the next in-tune event starts a new hold
	StatusNoteComplete
)

func (s TunerStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusDetecting:
		return "detecting"
	case StatusStable:
		return "stable"
	case StatusNoteComplete:
		return "note_complete"
	default:
		return fmt.Sprintf("TunerStatus(%d)", int(s))
	}
}

func (s TunerStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StabilityConfig decides when a pitch counts as held in tune
type StabilityConfig struct {
	// Largest accepted deviation, exclusive
	ToleranceCents float64 `json:"tolerance_cents"`

	// Confidence must exceed this
	MinConfidence float64 `json:"min_confidence"`

	// Events quieter than this RMS break the hold
	RMSThreshold float64 `json:"rms_threshold"`

	// A note completes after MinHold plus TransitionBuffer in tune
	MinHold          time.Duration `json:"min_hold"`
	TransitionBuffer time.Duration `json:"transition_buffer"`
}

// DefaultStabilityConfig returns a quarter-tone tolerance and a 450ms hold
func DefaultStabilityConfig() *StabilityConfig {
	return &StabilityConfig{
		ToleranceCents:   25,
		MinConfidence:    0.6,
		RMSThreshold:     0.01,
		MinHold:          150 * time.Millisecond,
		TransitionBuffer: 300 * time.Millisecond,
	}
}

// Validate checks tolerance, gates and hold times
func (c *StabilityConfig) Validate() error {
	if !(c.ToleranceCents > 0) {
		return fmt.Errorf("%w: tolerance must be positive, got %g cents", common.ErrInvalidInput, c.ToleranceCents)
	}
	if c.MinConfidence < 0 || c.MinConfidence >= 1 {
		return fmt.Errorf("%w: min confidence must be in [0, 1), got %g", common.ErrInvalidInput, c.MinConfidence)
	}
	if c.RMSThreshold < 0 {
		return fmt.Errorf("%w: rms threshold must not be negative, got %g", common.ErrInvalidInput, c.RMSThreshold)
	}
	if c.MinHold < 0 || c.TransitionBuffer < 0 {
		return fmt.Errorf("%w: hold times must not be negative", common.ErrInvalidInput)
	}
	return nil
}

// CompleteAfter is the in-tune hold that completes a note
func (c *StabilityConfig) CompleteAfter() time.Duration {
	return c.MinHold + c.TransitionBuffer
}

// StabilityTracker follows a stream of PitchEvents, in timestamp order, and
// reports whether the player is holding a note in tune. The hold is measured
// between event timestamps. Not safe for concurrent use.
type StabilityTracker struct {
	config   *StabilityConfig
	targetHz float64
	logger   logging.Logger

	status       TunerStatus
	holding      bool
	holdStart    time.Duration
	hold         time.Duration
	longestHold  time.Duration
	stableFrames int
	notes        int
}

// NewStabilityTracker creates a tracker for targetHz. A zero target tunes
// against the nearest equal-tempered note of each event. nil config selects
// DefaultStabilityConfig.
func NewStabilityTracker(config *StabilityConfig, targetHz float64) (*StabilityTracker, error) {
	if config == nil {
		config = DefaultStabilityConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if targetHz < 0 || math.IsNaN(targetHz) || math.IsInf(targetHz, 0) {
		return nil, fmt.Errorf("%w: target must be a finite frequency, got %g", common.ErrInvalidInput, targetHz)
	}

	return &StabilityTracker{
		config:   config,
		targetHz: targetHz,
		logger: logging.WithFields(logging.Fields{
			"component": "stability_tracker",
			"target_hz": targetHz,
		}),
	}, nil
}

// Update consumes one event and returns the new status
func (s *StabilityTracker) Update(event PitchEvent) TunerStatus {
	if !s.inTune(event) {
		s.release()
		s.status = StatusDetecting
		return s.status
	}

	if !s.holding {
		s.holding = true
		s.holdStart = event.Timestamp
	}
	s.stableFrames++
	s.hold = event.Timestamp - s.holdStart
	s.longestHold = max(s.longestHold, s.hold)

	if s.hold >= s.config.CompleteAfter() {
		s.notes++
		s.logger.Debug("Note complete", logging.Fields{
			"frame":  event.FrameIndex,
			"hold":   s.hold.String(),
			"frames": s.stableFrames,
		})
		s.release()
		s.status = StatusNoteComplete
		return s.status
	}

	s.status = StatusStable
	return s.status
}

// Cents is the event's deviation from the tracker's target
func (s *StabilityTracker) Cents(event PitchEvent) float64 {
	if s.targetHz > 0 {
		return tonal.FrequencyToCents(event.PitchHz, s.targetHz)
	}
	return event.Cents
}

func (s *StabilityTracker) inTune(event PitchEvent) bool {
	return event.IsDetected() &&
		event.RMS >= s.config.RMSThreshold &&
		event.Confidence > s.config.MinConfidence &&
		math.Abs(s.Cents(event)) < s.config.ToleranceCents
}

func (s *StabilityTracker) release() {
	s.holding = false
	s.hold = 0
	s.stableFrames = 0
}

// Status returns the status reported by the last Update
func (s *StabilityTracker) Status() TunerStatus {
	return s.status
}

// StableFrames returns how many consecutive in-tune events the current hold spans
func (s *StabilityTracker) StableFrames() int {
	return s.stableFrames
}

// Hold returns the length of the current hold
func (s *StabilityTracker) Hold() time.Duration {
	return s.hold
}

// LongestHold returns the longest hold seen since the last reset
func (s *StabilityTracker) LongestHold() time.Duration {
	return s.longestHold
}

// NotesCompleted returns how many notes completed since the last reset
func (s *StabilityTracker) NotesCompleted() int {
	return s.notes
}

// Reset returns the tracker to StatusIdle
func (s *StabilityTracker) Reset() {
	s.release()
	s.status = StatusIdle
	s.longestHold = 0
	s.notes = 0
}
