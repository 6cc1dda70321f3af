package wavfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/noriah/fbspectrum/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWav(t *testing.T, rate, channels int, data []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())

	return path
}

func startSession(t *testing.T, path string, frames int) *Session {
	t.Helper()

	dev, err := Backend{}.LookupDevice(path)
	require.NoError(t, err)

	s, err := Backend{}.Start(input.SessionConfig{
		Device:     dev,
		FrameSize:  2,
		SampleSize: frames,
		SampleRate: 44100,
	})
	require.NoError(t, err)

	return s.(*Session)
}

func TestPlayOnce(t *testing.T) {
	data := make([]int, 800)
	for i := range data {
		data[i] = 16384
	}

	s := startSession(t, writeWav(t, 8000, 1, data), 100)
	s.Loop = false

	ring := input.NewRing(1024)
	require.NoError(t, s.Start(context.Background(), ring))

	assert.Equal(t, 8000.0, ring.Rate())
	assert.Equal(t, 1, ring.Channels())
	assert.Equal(t, uint64(800), ring.Written())
	assert.False(t, ring.Running())

	got := make([]float64, 4)
	ring.Snapshot(1, got)
	assert.Equal(t, []float64{16384, 16384, 16384, 16384}, got)
}

func TestStereo(t *testing.T) {
	data := make([]int, 400)
	for i := range data {
		if i%2 == 0 {
			data[i] = 1000
		} else {
			data[i] = -1000
		}
	}

	s := startSession(t, writeWav(t, 16000, 2, data), 50)
	s.Loop = false

	ring := input.NewRing(256)
	require.NoError(t, s.Start(context.Background(), ring))

	assert.Equal(t, 2, ring.Channels())
	assert.Equal(t, uint64(200), ring.Written())

	left := make([]float64, 1)
	right := make([]float64, 1)
	ring.Snapshot(0, left)
	ring.Snapshot(1, right)

	assert.Equal(t, 1000.0, left[0])
	assert.Equal(t, -1000.0, right[0])
}

func TestLoopUntilCanceled(t *testing.T) {
	s := startSession(t, writeWav(t, 8000, 1, make([]int, 160)), 80)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	ring := input.NewRing(1024)
	err := s.Start(ctx, ring)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, ring.Written(), uint64(160))
}

func TestTerminate(t *testing.T) {
	s := startSession(t, writeWav(t, 8000, 1, make([]int, 160)), 80)

	ring := input.NewRing(1024)
	ring.Terminate()

	require.NoError(t, s.Start(context.Background(), ring))
	assert.Zero(t, ring.Written())
}

func TestInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not riff data"), 0o644))

	s := startSession(t, path, 80)
	assert.Error(t, s.Start(context.Background(), input.NewRing(16)))
}

func TestLookup(t *testing.T) {
	_, err := Backend{}.LookupDevice(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)

	_, err = Backend{}.DefaultDevice()
	assert.Error(t, err)

	_, err = Backend{}.Start(input.SessionConfig{Device: File("x.wav")})
	assert.Error(t, err)

	assert.True(t, input.HasBackend("wavfile"))
}
