package common

import "math"

// MinParabolaDenominator is the smallest denominator magnitude accepted by
// ParabolicOffset. Flatter curves are left unrefined.
const MinParabolaDenominator = 1e-4

// ParabolicOffset fits a parabola through (-1, s0), (0, s1), (1, s2) and
// returns the abscissa of its vertex relative to the middle sample.
//
// The second return value is false when the fit is unusable: the
// denominator 2*(2*s1 - s2 - s0) is smaller than MinParabolaDenominator in
// magnitude, or the vertex lands outside [-1, 1]. Callers keep the integer
// position in that case.
func ParabolicOffset(s0, s1, s2 float64) (float64, bool) {
	denom := 2.0 * (2.0*s1 - s2 - s0)
	if math.IsNaN(denom) || math.Abs(denom) < MinParabolaDenominator {
		return 0.0, false
	}

	offset := (s2 - s0) / denom
	if math.IsNaN(offset) || math.Abs(offset) > 1.0 {
		return 0.0, false
	}

	return offset, true
}

// RefineIndex applies ParabolicOffset around data[idx]. Only indices strictly
// inside data are refined; edges and rejected fits return float64(idx).
func RefineIndex(data []float64, idx int) float64 {
	if idx <= 0 || idx >= len(data)-1 {
		return float64(idx)
	}

	offset, ok := ParabolicOffset(data[idx-1], data[idx], data[idx+1])
	if !ok {
		return float64(idx)
	}

	return float64(idx) + offset
}
