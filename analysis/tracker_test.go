package analysis

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
	"github.com/RyanBlaney/sonido-pitch/algorithms/tonal"
	"github.com/RyanBlaney/sonido-pitch/internal/testutil"
	"github.com/RyanBlaney/sonido-pitch/logging"
)

func TestMain(m *testing.M) {
	logging.SetGlobalLogger(nil)
	m.Run()
}

func TestTracker_SteadyTone(t *testing.T) {
	for _, method := range []tonal.PitchDetectionMethod{tonal.AutocorrelationYin, tonal.AutocorrelationACF} {
		t.Run(method.String(), func(t *testing.T) {
			config := DefaultTrackerConfig()
			config.Method = method
			// three periods: half a frame stays below twice the period
			config.FrameSize = 654
			tracker, err := NewTracker(config)
			require.NoError(t, err)

			signal := testutil.Sine(220, 0.5, testutil.SampleRate, 48000)
			events, err := tracker.Track(context.Background(), signal)
			require.NoError(t, err)
			require.Len(t, events, tracker.FrameCount(len(signal)))

			for _, e := range events {
				require.True(t, e.IsDetected(), "frame %d", e.FrameIndex)
				testutil.AssertWithinPercent(t, 220, e.PitchHz, 1, "frame %d", e.FrameIndex)
				assert.Equal(t, "A3", e.Note)
				assert.InDelta(t, 0.5/1.4142, e.RMS, 0.01)
				testutil.AssertUnitInterval(t, e.Confidence)
				testutil.AssertUnitInterval(t, e.Clarity)
			}
		})
	}
}

func TestTracker_FrameCount(t *testing.T) {
	tracker, err := NewTracker(nil)
	require.NoError(t, err)

	assert.Equal(t, 0, tracker.FrameCount(0))
	assert.Equal(t, 0, tracker.FrameCount(2047))
	assert.Equal(t, 1, tracker.FrameCount(2048))
	assert.Equal(t, 1, tracker.FrameCount(2559))
	assert.Equal(t, 2, tracker.FrameCount(2560))
	assert.Equal(t, 90, tracker.FrameCount(48000))
}

func TestTracker_Timestamps(t *testing.T) {
	tracker, err := NewTracker(nil)
	require.NoError(t, err)

	events, err := tracker.Track(context.Background(), make([]float64, 4096))
	require.NoError(t, err)
	require.Len(t, events, 5)

	for i, e := range events {
		assert.Equal(t, i, e.FrameIndex)
		want := time.Duration(float64(i*512) / testutil.SampleRate * float64(time.Second))
		assert.InDelta(t, float64(want), float64(e.Timestamp), float64(time.Microsecond))
	}
}

func TestTracker_SilenceIsGated(t *testing.T) {
	tracker, err := NewTracker(nil)
	require.NoError(t, err)

	signal := append(make([]float64, 8192), testutil.Sine(330, 0.5, testutil.SampleRate, 8192)...)
	events, err := tracker.Track(context.Background(), signal)
	require.NoError(t, err)

	// frames lying entirely in the silent half
	for _, e := range events[:tracker.FrameCount(8192)] {
		assert.False(t, e.IsDetected(), "frame %d", e.FrameIndex)
		assert.Equal(t, 0.0, e.RMS)
		assert.Empty(t, e.Note)
	}
	// frames lying entirely in the tone
	last := events[len(events)-1]
	require.True(t, last.IsDetected())
	testutil.AssertWithinPercent(t, 330, last.PitchHz, 1)
}

func TestTracker_MinConfidenceDropsWeakPitches(t *testing.T) {
	config := DefaultTrackerConfig()
	config.MinConfidence = 0.9
	tracker, err := NewTracker(config)
	require.NoError(t, err)

	events, err := tracker.Track(context.Background(), testutil.Noise(0.5, 8192, 21))
	require.NoError(t, err)
	require.NotEmpty(t, events)

	for _, e := range events {
		assert.False(t, e.IsDetected(), "frame %d", e.FrameIndex)
		assert.Greater(t, e.RMS, 0.0, "RMS is reported even when the pitch is dropped")
	}
}

func TestTracker_ParallelMatchesSequential(t *testing.T) {
	signal := testutil.Harmonics(146.83, testutil.SampleRate, 24000, 0.5, 0.25, 0.1)
	noise := testutil.Noise(0.05, len(signal), 5)
	for i := range signal {
		signal[i] += noise[i]
	}

	sequential, err := NewTracker(nil)
	require.NoError(t, err)
	want, err := sequential.Track(context.Background(), signal)
	require.NoError(t, err)

	config := DefaultTrackerConfig()
	config.Workers = 4
	parallel, err := NewTracker(config)
	require.NoError(t, err)
	got, err := parallel.Track(context.Background(), signal)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestTracker_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	signal := testutil.Sine(220, 0.5, testutil.SampleRate, 48000)
	for _, workers := range []int{1, 4} {
		config := DefaultTrackerConfig()
		config.Workers = workers
		tracker, err := NewTracker(config)
		require.NoError(t, err)

		events, err := tracker.Track(ctx, signal)
		assert.ErrorIs(t, err, context.Canceled, "workers %d", workers)
		assert.Nil(t, events)
	}
}

func TestTracker_InvalidInput(t *testing.T) {
	tracker, err := NewTracker(nil)
	require.NoError(t, err)

	_, err = tracker.Track(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	events, err := tracker.Track(context.Background(), []float64{0.1, 0.2})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestTracker_NonFiniteFrameFails(t *testing.T) {
	tracker, err := NewTracker(nil)
	require.NoError(t, err)

	signal := testutil.Sine(220, 0.5, testutil.SampleRate, 4096)
	signal[100] = math.NaN()

	_, err = tracker.Track(context.Background(), signal)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestTrackerConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*TrackerConfig)
	}{
		{"zero frame size", func(c *TrackerConfig) { c.FrameSize = 0 }},
		{"negative hop", func(c *TrackerConfig) { c.HopSize = -1 }},
		{"negative rms threshold", func(c *TrackerConfig) { c.RMSThreshold = -0.1 }},
		{"min confidence above one", func(c *TrackerConfig) { c.MinConfidence = 1.5 }},
		{"bad params", func(c *TrackerConfig) { c.Params.MaxLag = 0 }},
		{"bad yin threshold", func(c *TrackerConfig) { c.Params.YinThreshold = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultTrackerConfig()
			tt.modify(config)
			_, err := NewTracker(config)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}
}

func TestTrackerConfig_JSON(t *testing.T) {
	config := DefaultTrackerConfig()
	require.NoError(t, json.Unmarshal([]byte(`{
		"frame_size": 4096,
		"method": "autocorrelation",
		"params": {"sample_rate": 44100, "autocorr_method": "fft"},
		"workers": 8
	}`), config))

	assert.Equal(t, 4096, config.FrameSize)
	assert.Equal(t, 512, config.HopSize)
	assert.Equal(t, tonal.AutocorrelationACF, config.Method)
	assert.Equal(t, 44100.0, config.Params.SampleRate)
	assert.Equal(t, tonal.DefaultMaxLag, config.Params.MaxLag)
	assert.Equal(t, 8, config.Workers)
	assert.NoError(t, config.Validate())
}

func TestPitchEvent_JSONFlattensResult(t *testing.T) {
	event := PitchEvent{
		FrameIndex:  3,
		PitchResult: tonal.PitchResult{PitchHz: 440, Confidence: 0.9, Clarity: 0.8},
		Note:        "A4",
	}

	out, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, 440.0, decoded["pitch_hz"])
	assert.Equal(t, "A4", decoded["note"])
	assert.NotContains(t, decoded, "cents")
}
