// Package config loads the visualizer settings from a TOML file.
package config

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/noriah/fbspectrum/dsp/window"
	"github.com/noriah/fbspectrum/graphic"
	"github.com/pkg/errors"
)

var (
	// ErrBadColor is returned for colours not of the form #RRGGBB.
	ErrBadColor = errors.New("bad colour")
	// ErrBadMode is returned for an unknown visualization mode.
	ErrBadMode = errors.New("bad visualization mode")
)

// Mode is the visualization drawn while audio is running.
type Mode int

const (
	ModeBars Mode = iota
	ModeWaveform
	ModeDial
)

func (m Mode) String() string {
	switch m {
	case ModeBars:
		return "bars"
	case ModeWaveform:
		return "waveform"
	case ModeDial:
		return "dial"
	}

	return "unknown"
}

// ParseMode maps a mode name onto a Mode. The short names of the classic
// configuration files are accepted too.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bars", "fft":
		return ModeBars, nil
	case "waveform", "pcm":
		return ModeWaveform, nil
	case "dial", "ppm":
		return ModeDial, nil
	}

	return 0, errors.Wrapf(ErrBadMode, "%q", s)
}

// Colors holds the palette as written in the file.
type Colors struct {
	PlotLeft  string `toml:"plot_left"`
	PlotRight string `toml:"plot_right"`
	Axis      string `toml:"axis"`
	Axis2     string `toml:"axis2"`
	Text      string `toml:"text"`
	Audio     string `toml:"audio"`
}

// Palette is the parsed form of Colors.
type Palette struct {
	PlotLeft  graphic.Color
	PlotRight graphic.Color
	Axis      graphic.Color
	Axis2     graphic.Color
	Text      graphic.Color
	Audio     graphic.Color
}

type Audio struct {
	// Backend is the backend name from list-backends
	Backend string `toml:"backend"`
	// Device is the device name from list-devices
	Device string `toml:"device"`
	// SampleRate is the rate requested from the backend
	SampleRate float64 `toml:"sample_rate"`
	// Channels is the number of channels captured, 1 or 2
	Channels int `toml:"channels"`
	// FFTSize is the transform length, which is also the ring capacity
	FFTSize int `toml:"fft_size"`
	// Window is the window function name
	Window string `toml:"window"`
}

type Spectrum struct {
	Bars        int     `toml:"bars"`
	Monstercat  float64 `toml:"monstercat"`
	LowerCutoff float64 `toml:"lower_cutoff"`
	UpperCutoff float64 `toml:"upper_cutoff"`
}

type Meter struct {
	Floor float64 `toml:"floor"`
}

// Config is the whole settings file.
type Config struct {
	Vis        string  `toml:"vis"`
	NoiseFloor float64 `toml:"noise_floor"`
	TextFont   string  `toml:"text_font"`
	AudioFont  string  `toml:"audio_font"`

	Colors   Colors   `toml:"colors"`
	Audio    Audio    `toml:"audio"`
	Spectrum Spectrum `toml:"spectrum"`
	Meter    Meter    `toml:"meter"`

	// Filled by Sanitize.
	Mode    Mode    `toml:"-"`
	Palette Palette `toml:"-"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Vis:        "bars",
		NoiseFloor: -60,
		Colors: Colors{
			PlotLeft:  "#E0A030",
			PlotRight: "#30A0E0",
			Axis:      "#909090",
			Axis2:     "#D04040",
			Text:      "#F0F0F0",
			Audio:     "#C0C0C0",
		},
		Audio: Audio{
			SampleRate: 44100,
			Channels:   2,
			FFTSize:    8192,
			Window:     "hann",
		},
		Spectrum: Spectrum{
			Bars:        30,
			Monstercat:  5,
			LowerCutoff: 20,
			UpperCutoff: 20000,
		},
		Meter: Meter{
			Floor: -60,
		},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/spectrum/config.toml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, "spectrum", "config.toml")
}

// Decode reads a config from r over the defaults and sanitizes it.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()

	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}

	if err := cfg.Sanitize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Load reads the config file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config")
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}

	return cfg, nil
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ParseColor parses a colour of the literal form #RRGGBB. The result is
// opaque.
func ParseColor(s string) (graphic.Color, error) {
	if !hexColor.MatchString(s) {
		return graphic.Color{}, errors.Wrapf(ErrBadColor, "%q", s)
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return graphic.Color{}, errors.Wrapf(ErrBadColor, "%q: %v", s, err)
	}

	r, g, b := c.RGB255()

	return graphic.Color{R: r, G: g, B: b, A: 255}, nil
}

func (c Colors) parse() (Palette, error) {
	var p Palette

	for _, f := range []struct {
		name string
		src  string
		dst  *graphic.Color
	}{
		{"plot_left", c.PlotLeft, &p.PlotLeft},
		{"plot_right", c.PlotRight, &p.PlotRight},
		{"axis", c.Axis, &p.Axis},
		{"axis2", c.Axis2, &p.Axis2},
		{"text", c.Text, &p.Text},
		{"audio", c.Audio, &p.Audio},
	} {
		v, err := ParseColor(f.src)
		if err != nil {
			return Palette{}, errors.Wrapf(err, "colors.%s", f.name)
		}
		*f.dst = v
	}

	return p, nil
}

func powerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Sanitize validates the settings and fills Mode and Palette.
func (cfg *Config) Sanitize() error {
	mode, err := ParseMode(cfg.Vis)
	if err != nil {
		return err
	}

	cfg.Mode = mode

	if cfg.Palette, err = cfg.Colors.parse(); err != nil {
		return err
	}

	if _, err := window.Lookup(cfg.Audio.Window); err != nil {
		return err
	}

	switch {
	case cfg.Audio.Channels > 2:
		return errors.New("too many channels (2 max)")

	case cfg.Audio.Channels < 1:
		return errors.New("too few channels (1 min)")
	}

	switch {
	case !powerOfTwo(cfg.Audio.FFTSize):
		return errors.Errorf("fft size %d is not a power of two", cfg.Audio.FFTSize)

	case cfg.Audio.FFTSize < 64:
		return errors.New("fft size too small (64+ required)")
	}

	if cfg.Audio.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}

	switch {
	case cfg.Spectrum.Bars < 1:
		return errors.New("too few bars (1 min)")

	case cfg.Spectrum.Bars > cfg.Audio.FFTSize/2:
		return errors.Errorf("too many bars (%d max)", cfg.Audio.FFTSize/2)
	}

	if cfg.Spectrum.Monstercat < 1 {
		return errors.New("monstercat factor below 1")
	}

	switch {
	case cfg.Spectrum.LowerCutoff <= 0:
		return errors.New("lower cutoff must be positive")

	case cfg.Spectrum.UpperCutoff <= cfg.Spectrum.LowerCutoff:
		return errors.New("upper cutoff not above lower cutoff")
	}

	if cfg.NoiseFloor >= 0 {
		return errors.New("noise floor must be negative")
	}

	if cfg.Meter.Floor >= 0 {
		return errors.New("meter floor must be negative")
	}

	return nil
}
