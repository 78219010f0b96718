package spectral

// clarityScale maps a zero-crossing rate onto the clarity scale:
// a rate of 0.1 or more (a crossing every ten samples) reads as noise.
const clarityScale = 10.0

// ZeroCrossings counts adjacent sample pairs whose sign differs.
// Zero counts as positive.
func ZeroCrossings(frame []float64) int {
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0 && frame[i] < 0) || (frame[i-1] < 0 && frame[i] >= 0) {
			crossings++
		}
	}
	return crossings
}

// ZeroCrossingRate returns crossings per sample over the whole frame
// (crossings / len(frame)), in [0, 1).
func ZeroCrossingRate(frame []float64) float64 {
	if len(frame) < 2 {
		return 0.0
	}
	return float64(ZeroCrossings(frame)) / float64(len(frame))
}

// Clarity is a cheap tonal-versus-noisy heuristic:
// max(0, 1 - 10 * zero crossing rate).
// It is unrelated to periodicity; a low-pitched pure tone scores near 1 and
// white noise scores 0.
func Clarity(frame []float64) float64 {
	clarity := 1.0 - clarityScale*ZeroCrossingRate(frame)
	if clarity < 0 {
		return 0.0
	}
	return clarity
}
