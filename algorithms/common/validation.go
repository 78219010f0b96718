package common

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput marks a call the kernel refuses to compute: a missing
// buffer, a non-positive size, or a parameter outside its domain.
// Failing to find a pitch is never reported through this error.
var ErrInvalidInput = errors.New("invalid input")

// Window validates a caller-owned buffer and the number of samples to read
// from it, returning the first size samples. Non-finite samples are rejected.
func Window(buffer []float64, size int) ([]float64, error) {
	if buffer == nil {
		return nil, fmt.Errorf("%w: buffer is nil", ErrInvalidInput)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidInput, size)
	}
	if size > len(buffer) {
		return nil, fmt.Errorf("%w: size (%d) exceeds buffer length (%d)", ErrInvalidInput, size, len(buffer))
	}

	window := buffer[:size]
	for i, v := range window {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: sample %d is not finite", ErrInvalidInput, i)
		}
	}

	return window, nil
}

// ValidateOpenUnit checks that value lies strictly inside (0, 1)
func ValidateOpenUnit(name string, value float64) error {
	if !(value > 0 && value < 1) {
		return fmt.Errorf("%w: %s must be in (0, 1), got %g", ErrInvalidInput, name, value)
	}
	return nil
}
