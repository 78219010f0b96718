package tonal

import (
	"fmt"
	"math"
	"strings"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
	"github.com/RyanBlaney/sonido-pitch/algorithms/stats"
)

// PitchDetectionMethod represents different pitch detection algorithms
type PitchDetectionMethod int

const (
	// Cumulative mean-normalized difference (YIN)
	AutocorrelationYin PitchDetectionMethod = iota
	// Highest local autocorrelation peak
	AutocorrelationACF
)

// Reference configuration of the kernel
const (
	DefaultSampleRate   = 48000.0
	DefaultMaxLag       = 2048
	DefaultMaxFrequency = 1000.0
	DefaultYinThreshold = 0.1
)

func (m PitchDetectionMethod) String() string {
	switch m {
	case AutocorrelationYin:
		return "yin"
	case AutocorrelationACF:
		return "autocorrelation"
	default:
		return fmt.Sprintf("PitchDetectionMethod(%d)", int(m))
	}
}

// ParsePitchDetectionMethod accepts "yin" and "autocorrelation" (or "acf")
func ParsePitchDetectionMethod(s string) (PitchDetectionMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yin":
		return AutocorrelationYin, nil
	case "autocorrelation", "autocorr", "acf":
		return AutocorrelationACF, nil
	default:
		return AutocorrelationYin, fmt.Errorf("%w: unsupported pitch detection method %q", common.ErrInvalidInput, s)
	}
}

func (m PitchDetectionMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *PitchDetectionMethod) UnmarshalText(text []byte) error {
	parsed, err := ParsePitchDetectionMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// PitchResult is the per-frame output of every estimator.
// The zero value means "no pitch detected"; check IsDetected before using
// PitchHz. Results are plain values and never shared between calls.
type PitchResult struct {
	PitchHz    float64 `json:"pitch_hz"`   // Fundamental frequency (Hz), >= 0
	Confidence float64 `json:"confidence"` // Estimator certainty (0-1)
	Clarity    float64 `json:"clarity"`    // Zero-crossing tonal clarity (0-1)
}

// IsDetected reports whether the result carries a pitch
func (r PitchResult) IsDetected() bool {
	return r.PitchHz > 0
}

// PitchDetectionParams contains parameters for pitch detection
type PitchDetectionParams struct {
	SampleRate float64 `json:"sample_rate"` // Hz
	MaxLag     int     `json:"max_lag"`     // Exclusive bound on analysed lags

	// Highest detectable frequency; sets the floor of the lag search
	MaxFrequency float64 `json:"max_frequency"`

	// YIN threshold (0-1); smaller demands a cleaner periodic signal
	YinThreshold float64 `json:"yin_threshold"`

	// How the autocorrelation estimator evaluates its correlation function
	AutocorrMethod stats.CorrelationMethod `json:"autocorr_method"`
}

// DefaultPitchDetectionParams returns the reference kernel configuration:
// 48 kHz, lags up to 2048 samples (~23.4 Hz), at most 1000 Hz, YIN threshold 0.1
func DefaultPitchDetectionParams() PitchDetectionParams {
	return PitchDetectionParams{
		SampleRate:     DefaultSampleRate,
		MaxLag:         DefaultMaxLag,
		MaxFrequency:   DefaultMaxFrequency,
		YinThreshold:   DefaultYinThreshold,
		AutocorrMethod: stats.TimeDomain,
	}
}

// MinLag is the smallest candidate period in samples
func (p PitchDetectionParams) MinLag() int {
	return int(p.SampleRate / p.MaxFrequency)
}

// MinFrequency is the lowest detectable frequency, SampleRate / MaxLag
func (p PitchDetectionParams) MinFrequency() float64 {
	return p.SampleRate / float64(p.MaxLag)
}

// MinWindowSize is the smallest window whose lag range is non-empty
func (p PitchDetectionParams) MinWindowSize() int {
	return 2 * (p.MinLag() + 1)
}

// Validate checks the parameters shared by all estimators.
// The YIN threshold is checked only by the YIN estimator.
func (p PitchDetectionParams) Validate() error {
	if !(p.SampleRate > 0) || math.IsInf(p.SampleRate, 0) {
		return fmt.Errorf("%w: sample rate must be positive, got %g", common.ErrInvalidInput, p.SampleRate)
	}
	if p.MaxLag < 2 {
		return fmt.Errorf("%w: max lag must be at least 2, got %d", common.ErrInvalidInput, p.MaxLag)
	}
	if !(p.MaxFrequency > 0) || math.IsInf(p.MaxFrequency, 0) {
		return fmt.Errorf("%w: max frequency must be positive, got %g", common.ErrInvalidInput, p.MaxFrequency)
	}
	if p.MinLag() < 1 {
		return fmt.Errorf("%w: max frequency (%g Hz) exceeds sample rate (%g Hz)", common.ErrInvalidInput, p.MaxFrequency, p.SampleRate)
	}
	if p.AutocorrMethod != stats.TimeDomain && p.AutocorrMethod != stats.FrequencyDomain {
		return fmt.Errorf("%w: unknown autocorrelation method %d", common.ErrInvalidInput, int(p.AutocorrMethod))
	}
	return nil
}

// PitchEstimator is the capability shared by all pitch detection variants.
// Estimate never keeps a reference to window and is safe for concurrent use.
type PitchEstimator interface {
	Estimate(window []float64) (PitchResult, error)
	Method() PitchDetectionMethod
}

// NewPitchEstimator creates the estimator for method
func NewPitchEstimator(method PitchDetectionMethod, params PitchDetectionParams) (PitchEstimator, error) {
	switch method {
	case AutocorrelationYin:
		return NewYinEstimator(params)
	case AutocorrelationACF:
		return NewAutocorrelationEstimator(params)
	default:
		return nil, fmt.Errorf("%w: unsupported pitch detection method: %d", common.ErrInvalidInput, method)
	}
}
