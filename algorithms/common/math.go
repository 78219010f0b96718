package common

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic numeric helpers shared by the estimators, backed by gonum

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// SumSquares returns the energy of the signal (sum of squared samples)
func SumSquares(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Dot(data, data)
}

// RMS calculates root mean square.
// An empty window has no defined loudness and is rejected.
func RMS(data []float64) (float64, error) {
	if len(data) == 0 {
		return 0.0, fmt.Errorf("%w: rms of empty window", ErrInvalidInput)
	}

	return math.Sqrt(SumSquares(data) / float64(len(data))), nil
}

// Clamp restricts value to [min, max]
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Clamp01 restricts value to [0, 1]. NaN collapses to 0.
func Clamp01(value float64) float64 {
	if math.IsNaN(value) {
		return 0.0
	}
	return Clamp(value, 0.0, 1.0)
}

// IsPowerOfTwo checks if n is a power of two
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPowerOfTwo returns the smallest power of two >= n
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
