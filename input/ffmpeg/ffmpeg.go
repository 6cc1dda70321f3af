// Package ffmpeg captures audio by running ffmpeg against a system input.
package ffmpeg

import (
	"fmt"

	"github.com/noriah/fbspectrum/input"
	"github.com/noriah/fbspectrum/input/common/execread"
	"github.com/noriah/fbspectrum/input/parec"
	"github.com/pkg/errors"
)

func init() {
	input.RegisterBackend("ffmpeg-pulse", Pulse{})
}

// Pulse records pulse sources through ffmpeg. Devices are listed by parec.
type Pulse struct {
	parec.Backend
}

func (p Pulse) Start(cfg input.SessionConfig) (input.Session, error) {
	return start[parec.PulseDevice](cfg)
}

type FFmpegBackend interface {
	InputArgs() []string
}

// Argv returns the ffmpeg command line decoding b as little-endian f64.
func Argv(b FFmpegBackend, cfg input.SessionConfig) []string {
	args := []string{"ffmpeg", "-hide_banner", "-loglevel", "panic"}
	args = append(args, b.InputArgs()...)
	args = append(args,
		"-ar", fmt.Sprintf("%.0f", cfg.SampleRate),
		"-ac", fmt.Sprintf("%d", cfg.FrameSize),
		"-f", "f64le",
		"-",
	)

	return args
}

// start opens a session on cfg.Device, which must be a T.
func start[T FFmpegBackend](cfg input.SessionConfig) (input.Session, error) {
	dv, ok := cfg.Device.(T)
	if !ok {
		return nil, errors.Errorf("invalid device type %T", cfg.Device)
	}

	s, err := NewSession(dv, cfg)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func NewSession(b FFmpegBackend, cfg input.SessionConfig) (*execread.Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return execread.NewSession(Argv(b, cfg), false, cfg), nil
}
