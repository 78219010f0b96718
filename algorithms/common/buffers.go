package common

import (
	"fmt"
	"slices"
)

// SlidingWindow cuts a stream delivered in arbitrary chunks into frames of
// windowSize samples whose starts are hopSize apart. Frame k covers samples
// [k*hop, k*hop+windowSize) of the concatenated stream, exactly as if the
// whole signal had been sliced at once. Not safe for concurrent use.
type SlidingWindow struct {
	buffer     []float64
	windowSize int
	hopSize    int
	filled     int // valid samples at the start of buffer
	skip       int // samples to drop before the next frame (hop > window)
	frames     int
}

// NewSlidingWindow creates a new sliding window
func NewSlidingWindow(windowSize, hopSize int) (*SlidingWindow, error) {
	if windowSize <= 0 || hopSize <= 0 {
		return nil, fmt.Errorf("%w: window (%d) and hop (%d) must be positive", ErrInvalidInput, windowSize, hopSize)
	}

	return &SlidingWindow{
		buffer:     make([]float64, windowSize),
		windowSize: windowSize,
		hopSize:    hopSize,
	}, nil
}

// AddSamples appends samples and returns every frame they complete, oldest
// first. Each frame is a fresh slice owned by the caller.
func (sw *SlidingWindow) AddSamples(samples []float64) [][]float64 {
	var frames [][]float64

	for len(samples) > 0 {
		if sw.skip > 0 {
			n := min(sw.skip, len(samples))
			sw.skip -= n
			samples = samples[n:]
			continue
		}

		n := copy(sw.buffer[sw.filled:], samples)
		sw.filled += n
		samples = samples[n:]
		if sw.filled < sw.windowSize {
			continue
		}

		frames = append(frames, slices.Clone(sw.buffer))
		sw.frames++

		if sw.hopSize < sw.windowSize {
			// overlap: keep the tail for the next frame
			copy(sw.buffer, sw.buffer[sw.hopSize:])
			sw.filled = sw.windowSize - sw.hopSize
		} else {
			sw.filled = 0
			sw.skip = sw.hopSize - sw.windowSize
		}
	}

	return frames
}

// Frames returns how many frames have been emitted since the last reset
func (sw *SlidingWindow) Frames() int {
	return sw.frames
}

// Pending returns how many buffered samples are waiting for the next frame
func (sw *SlidingWindow) Pending() int {
	return sw.filled
}

// Reset clears the sliding window
func (sw *SlidingWindow) Reset() {
	sw.filled = 0
	sw.skip = 0
	sw.frames = 0
	clear(sw.buffer)
}

// WindowSize returns the frame length
func (sw *SlidingWindow) WindowSize() int {
	return sw.windowSize
}

// HopSize returns the distance between frame starts
func (sw *SlidingWindow) HopSize() int {
	return sw.hopSize
}
