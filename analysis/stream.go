package analysis

import (
	"fmt"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
	"github.com/RyanBlaney/sonido-pitch/algorithms/filters"
	"github.com/RyanBlaney/sonido-pitch/logging"
)

// Stream tracks pitch over audio that arrives in chunks of any size, such as
// the buffers of a capture callback. The events it emits are identical to
// those Track returns for the concatenated signal. Frames are evaluated
// sequentially on the writer's goroutine; a Stream is not safe for
// concurrent use.
type Stream struct {
	tracker *Tracker
	window  *common.SlidingWindow
	dc      *filters.DCRemoval
	logger  logging.Logger
}

// NewStream starts an empty stream using the tracker's configuration
func (t *Tracker) NewStream() (*Stream, error) {
	window, err := common.NewSlidingWindow(t.config.FrameSize, t.config.HopSize)
	if err != nil {
		return nil, err
	}

	return &Stream{
		tracker: t,
		window:  window,
		dc:      t.newDCRemoval(),
		logger:  t.logger.WithFields(logging.Fields{"mode": "stream"}),
	}, nil
}

// Write feeds a chunk and returns the events of every frame it completes.
// A chunk holding a non-finite sample is rejected whole and leaves the stream
// untouched. A frame that fails analysis aborts the write; the samples of the
// chunk are consumed either way.
func (s *Stream) Write(chunk []float64) ([]PitchEvent, error) {
	if len(chunk) == 0 {
		return nil, nil
	}
	if _, err := common.Window(chunk, len(chunk)); err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}

	if s.dc != nil {
		chunk = s.dc.ProcessBuffer(chunk)
	}

	first := s.window.Frames()
	frames := s.window.AddSamples(chunk)
	if len(frames) == 0 {
		return nil, nil
	}

	events := make([]PitchEvent, 0, len(frames))
	for i, frame := range frames {
		event, err := s.tracker.AnalyzeFrame(first+i, frame)
		if err != nil {
			return events, fmt.Errorf("stream: %w", err)
		}
		events = append(events, event)
	}

	s.logger.Debug("Stream frames analysed", logging.Fields{
		"first_frame": first,
		"frames":      len(frames),
		"pending":     s.window.Pending(),
	})

	return events, nil
}

// Frames returns how many frames the stream has analysed
func (s *Stream) Frames() int {
	return s.window.Frames()
}

// Reset discards buffered audio and filter state and restarts frame numbering
func (s *Stream) Reset() {
	s.window.Reset()
	if s.dc != nil {
		s.dc.Reset()
	}
}
