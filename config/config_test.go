package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/noriah/fbspectrum/graphic"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#FF8000")
	require.NoError(t, err)
	assert.Equal(t, graphic.Color{R: 255, G: 128, B: 0, A: 255}, c)

	c, err = ParseColor("#0a0B0c")
	require.NoError(t, err)
	assert.Equal(t, graphic.Color{R: 10, G: 11, B: 12, A: 255}, c)

	for _, bad := range []string{"", "#FFF", "FF8000", "#FF800", "#FF80000", "#GG8000", "#FF8000 ", "#ff8000ff"} {
		_, err := ParseColor(bad)
		assert.True(t, errors.Is(err, ErrBadColor), "%q", bad)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"bars", ModeBars},
		{"fft", ModeBars},
		{"PCM", ModeWaveform},
		{"waveform", ModeWaveform},
		{"ppm", ModeDial},
		{" dial ", ModeDial},
	}

	for _, tt := range tests {
		m, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, m, tt.in)
	}

	_, err := ParseMode("spiral")
	assert.True(t, errors.Is(err, ErrBadMode))

	assert.Equal(t, "dial", ModeDial.String())
	assert.Equal(t, "unknown", Mode(9).String())
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Sanitize())

	assert.Equal(t, ModeBars, cfg.Mode)
	assert.Equal(t, uint8(255), cfg.Palette.Text.A)
}

const sample = `
vis = "pcm"
noise_floor = -45.0
text_font = "/usr/share/fonts/text.ttf"

[colors]
plot_left = "#FF8000"
axis2 = "#102030"

[audio]
backend = "stdin"
channels = 1
fft_size = 4096
window = "Blackman"

[spectrum]
bars = 64
monstercat = 3.5

[meter]
floor = -50.0
`

func TestDecode(t *testing.T) {
	cfg, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, ModeWaveform, cfg.Mode)
	assert.Equal(t, -45.0, cfg.NoiseFloor)
	assert.Equal(t, "/usr/share/fonts/text.ttf", cfg.TextFont)
	assert.Empty(t, cfg.AudioFont)

	assert.Equal(t, graphic.Color{R: 255, G: 128, A: 255}, cfg.Palette.PlotLeft)
	assert.Equal(t, graphic.Color{R: 0x10, G: 0x20, B: 0x30, A: 255}, cfg.Palette.Axis2)

	// untouched keys keep their defaults
	def := Default()
	assert.Equal(t, def.Colors.Text, cfg.Colors.Text)
	assert.Equal(t, def.Audio.SampleRate, cfg.Audio.SampleRate)
	assert.Equal(t, def.Spectrum.UpperCutoff, cfg.Spectrum.UpperCutoff)

	assert.Equal(t, "stdin", cfg.Audio.Backend)
	assert.Equal(t, 1, cfg.Audio.Channels)
	assert.Equal(t, 4096, cfg.Audio.FFTSize)
	assert.Equal(t, 64, cfg.Spectrum.Bars)
	assert.Equal(t, 3.5, cfg.Spectrum.Monstercat)
	assert.Equal(t, -50.0, cfg.Meter.Floor)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `vis = `},
		{"bad colour", "[colors]\ntext = \"#12345\""},
		{"bad mode", `vis = "spiral"`},
		{"bad window", "[audio]\nwindow = \"gauss\""},
		{"three channels", "[audio]\nchannels = 3"},
		{"fft size not power of two", "[audio]\nfft_size = 1000"},
		{"fft size tiny", "[audio]\nfft_size = 32"},
		{"too many bars", "[audio]\nfft_size = 64\n[spectrum]\nbars = 33"},
		{"no bars", "[spectrum]\nbars = 0"},
		{"monstercat", "[spectrum]\nmonstercat = 0.5"},
		{"cutoffs", "[spectrum]\nlower_cutoff = 500.0\nupper_cutoff = 100.0"},
		{"noise floor", "noise_floor = 10.0"},
		{"meter floor", "[meter]\nfloor = 0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

func writeConfig(t *testing.T, path, src string, mtime time.Time) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	writeConfig(t, path, `vis = "bars"`, base)

	w := NewWatcher(path)
	assert.Equal(t, path, w.Path())

	now := base.Add(time.Hour)

	// unchanged file
	cfg, err := w.Poll(now)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	writeConfig(t, path, `vis = "dial"`, base.Add(time.Minute))

	// too soon after the last check
	cfg, err = w.Poll(now.Add(500 * time.Millisecond))
	require.NoError(t, err)
	assert.Nil(t, cfg)

	cfg, err = w.Poll(now.Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, ModeDial, cfg.Mode)

	// loaded once only
	cfg, err = w.Poll(now.Add(3 * time.Second))
	require.NoError(t, err)
	assert.Nil(t, cfg)

	// a broken file is fatal
	writeConfig(t, path, "[colors]\ntext = \"red\"", base.Add(2*time.Minute))

	_, err = w.Poll(now.Add(5 * time.Second))
	assert.True(t, errors.Is(err, ErrBadColor))
}
