package ffmpeg

import (
	"testing"

	"github.com/noriah/fbspectrum/input"
	"github.com/noriah/fbspectrum/input/parec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseALSADevice(t *testing.T) {
	tests := []struct {
		in   string
		want ALSADevice
	}{
		{"00-00", "hw:0,0"},
		{"01-03", "hw:1,3"},
		{"10-00", "hw:10,0"},
		{"02", "hw:2"},
	}

	for _, tt := range tests {
		got, err := ParseALSADevice(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseALSADevice("1-2-3")
	assert.Error(t, err)
}

func TestArgv(t *testing.T) {
	cfg := input.SessionConfig{
		Device:     ALSADevice("hw:1,0"),
		FrameSize:  2,
		SampleSize: 1024,
		SampleRate: 44100,
	}

	s, err := ALSA{}.Start(cfg)
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, []string{
		"ffmpeg", "-hide_banner", "-loglevel", "panic",
		"-f", "alsa", "-i", "hw:1,0",
		"-ar", "44100",
		"-ac", "2",
		"-f", "f64le",
		"-",
	}, Argv(ALSADevice("hw:1,0"), cfg))
}

func TestStartRejectsDevice(t *testing.T) {
	cfg := input.SessionConfig{
		Device:     parec.PulseDevice("default"),
		FrameSize:  2,
		SampleSize: 1024,
		SampleRate: 44100,
	}

	_, err := ALSA{}.Start(cfg)
	assert.Error(t, err)

	_, err = Pulse{}.Start(cfg)
	assert.NoError(t, err)

	cfg.Device = ALSADevice("default")
	_, err = Pulse{}.Start(cfg)
	assert.Error(t, err)

	// a bad config must not leak a typed nil session
	cfg.FrameSize = 0
	s, err := ALSA{}.Start(cfg)
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestRegistered(t *testing.T) {
	assert.True(t, input.HasBackend("ffmpeg-alsa"))
	assert.True(t, input.HasBackend("ffmpeg-pulse"))
}
