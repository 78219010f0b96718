package stats

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
)

// CorrelationMethod represents different computational approaches
type CorrelationMethod int

const (
	// Direct time-domain calculation, O(n * maxLag)
	TimeDomain CorrelationMethod = iota

	// FFT-based frequency domain, O(n log n)
	FrequencyDomain
)

// roundoffFloor is the FFT result grid, relative to lag-0 energy. Values are
// rounded to multiples of it, so sums that are equal in exact arithmetic come
// back equal and near-zero sums come back as exact zeros.
const roundoffFloor = 1e-12

func (m CorrelationMethod) String() string {
	switch m {
	case TimeDomain:
		return "time"
	case FrequencyDomain:
		return "fft"
	default:
		return fmt.Sprintf("CorrelationMethod(%d)", int(m))
	}
}

// ParseCorrelationMethod maps "time"/"direct" and "fft"/"frequency" to a method
func ParseCorrelationMethod(s string) (CorrelationMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "time", "direct":
		return TimeDomain, nil
	case "fft", "frequency":
		return FrequencyDomain, nil
	default:
		return TimeDomain, fmt.Errorf("%w: unknown correlation method %q", common.ErrInvalidInput, s)
	}
}

func (m CorrelationMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *CorrelationMethod) UnmarshalText(text []byte) error {
	parsed, err := ParseCorrelationMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// AutoCorrelation computes the half-window autocorrelation used for period
// estimation:
//
//	corr(lag) = sum_{i=0}^{n/2-1} x[i] * x[i+lag],  0 <= lag < min(maxLag, n/2)
//
// The first half of the window is compared with every shifted copy, so the
// number of summed products is the same for every lag. corr(0) is the energy
// of the first half.
type AutoCorrelation struct {
	maxLag int
	method CorrelationMethod
}

// NewAutoCorrelation creates a time-domain auto-correlation calculator
func NewAutoCorrelation(maxLag int) *AutoCorrelation {
	return &AutoCorrelation{
		maxLag: maxLag,
		method: TimeDomain,
	}
}

// NewAutoCorrelationWithMethod creates an auto-correlation calculator using the given method
func NewAutoCorrelationWithMethod(maxLag int, method CorrelationMethod) *AutoCorrelation {
	return &AutoCorrelation{
		maxLag: maxLag,
		method: method,
	}
}

// Compute returns corr(lag) for lag in [0, min(maxLag, len(signal)/2)).
// The result is empty when that range is empty.
func (ac *AutoCorrelation) Compute(signal []float64) []float64 {
	half := len(signal) / 2
	limit := min(ac.maxLag, half)
	if limit <= 0 {
		return []float64{}
	}

	switch ac.method {
	case FrequencyDomain:
		return computeFFT(signal, half, limit)
	default:
		return computeDirect(signal, half, limit)
	}
}

func computeDirect(signal []float64, half, limit int) []float64 {
	corr := make([]float64, limit)
	head := signal[:half]

	for lag := range limit {
		corr[lag] = floats.Dot(head, signal[lag:lag+half])
	}

	return corr
}

// computeFFT evaluates the same sums as a cross-correlation of the first
// half against the whole window. Indices never exceed len(signal)-1, so a
// transform length of len(signal) or more cannot wrap.
func computeFFT(signal []float64, half, limit int) []float64 {
	n := common.NextPowerOfTwo(len(signal))

	head := make([]float64, n)
	copy(head, signal[:half])
	full := make([]float64, n)
	copy(full, signal)

	headSpec := fft.FFTReal(head)
	fullSpec := fft.FFTReal(full)
	for i := range headSpec {
		headSpec[i] = cmplx.Conj(headSpec[i]) * fullSpec[i]
	}
	raw := fft.IFFT(headSpec)

	corr := make([]float64, limit)
	for lag := range limit {
		corr[lag] = real(raw[lag])
	}

	step := math.Abs(corr[0]) * roundoffFloor
	if step == 0 {
		return corr
	}
	for lag, v := range corr {
		corr[lag] = math.Round(v/step) * step
	}

	return corr
}
