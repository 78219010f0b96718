package transcode

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWAV encodes interleaved integer samples as a PCM WAV file
func writeWAV(t *testing.T, sampleRate, bitDepth, channels int, data []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())

	return path
}

func TestDecodeWAVFile_Mono16(t *testing.T) {
	data := []int{0, 16384, -16384, 32767, -32768}
	for len(data) < 4800 {
		data = append(data, 0)
	}
	path := writeWAV(t, 48000, 16, 1, data)

	audioData, err := DecodeWAVFile(path)
	require.NoError(t, err)

	assert.Equal(t, 48000, audioData.SampleRate)
	assert.Equal(t, 1, audioData.Channels)
	assert.Equal(t, 16, audioData.BitDepth)
	assert.Equal(t, path, audioData.Source)
	assert.Equal(t, 100*time.Millisecond, audioData.Duration)

	require.Len(t, audioData.PCM, 4800)
	assert.Equal(t, 0.0, audioData.PCM[0])
	assert.InDelta(t, 0.5, audioData.PCM[1], 1e-12)
	assert.InDelta(t, -0.5, audioData.PCM[2], 1e-12)
	assert.InDelta(t, 32767.0/32768.0, audioData.PCM[3], 1e-12)
	assert.Equal(t, -1.0, audioData.PCM[4])
}

func TestDecodeWAVFile_StereoIsAveraged(t *testing.T) {
	// L/R interleaved
	data := []int{
		16384, -16384,
		16384, 16384,
		-8192, 0,
	}
	path := writeWAV(t, 44100, 16, 2, data)

	audioData, err := DecodeWAVFile(path)
	require.NoError(t, err)

	assert.Equal(t, 2, audioData.Channels)
	assert.Equal(t, 44100, audioData.SampleRate)
	require.Len(t, audioData.PCM, 3)
	assert.InDeltaSlice(t, []float64{0, 0.5, -0.125}, audioData.PCM, 1e-12)
}

func TestDecodeWAVFile_Missing(t *testing.T) {
	_, err := DecodeWAVFile(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestDecodeWAV_RejectsNonWAV(t *testing.T) {
	_, err := DecodeWAV(bytes.NewReader([]byte("definitely not a riff file")))
	assert.Error(t, err)
}

func TestDownmix(t *testing.T) {
	t.Run("unsigned 8-bit", func(t *testing.T) {
		buf := &audio.IntBuffer{
			Format: &audio.Format{NumChannels: 1, SampleRate: 8000},
			Data:   []int{128, 255, 0, 192},
		}
		out, err := downmix(buf, 8)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0, 127.0 / 128.0, -1, 0.5}, out, 1e-12)
	})

	t.Run("24-bit", func(t *testing.T) {
		buf := &audio.IntBuffer{
			Format: &audio.Format{NumChannels: 1, SampleRate: 48000},
			Data:   []int{1 << 22, -(1 << 23)},
		}
		out, err := downmix(buf, 24)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.5, -1}, out, 1e-12)
	})

	t.Run("trailing partial frame dropped", func(t *testing.T) {
		buf := &audio.IntBuffer{
			Format: &audio.Format{NumChannels: 2, SampleRate: 48000},
			Data:   []int{100, 100, 50},
		}
		out, err := downmix(buf, 16)
		require.NoError(t, err)
		assert.Len(t, out, 1)
	})

	t.Run("unsupported depth", func(t *testing.T) {
		buf := &audio.IntBuffer{Format: &audio.Format{NumChannels: 1, SampleRate: 48000}}
		_, err := downmix(buf, 4)
		assert.Error(t, err)
		_, err = downmix(buf, 64)
		assert.Error(t, err)
	})
}
