package input

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrTerminated is returned when capture stopped because termination was
// requested, either by the user or by a failing session.
var ErrTerminated = errors.New("audio capture terminated")

// Device is an input device.
type Device interface {
	// String returns the device name.
	String() string
}

// SessionConfig is the configuration of a capture session.
type SessionConfig struct {
	Device     Device
	FrameSize  int     // number of channels per frame
	SampleSize int     // number of frames per read
	SampleRate float64 // requested sample rate

	// Log receives backend diagnostics. The zero value discards them.
	Log zerolog.Logger
}

// Session is a capture session.
type Session interface {
	// Start blocks, writing audio into ring until ctx is done, the stream
	// ends or ring is terminated. It publishes the stream format on ring
	// once the first audio arrives.
	Start(ctx context.Context, ring *Ring) error
}

// Validate checks cfg for values no backend can work with.
func (cfg SessionConfig) Validate() error {
	switch {
	case cfg.FrameSize < 1 || cfg.FrameSize > MaxChannels:
		return errors.Errorf("channel count %d not supported, mono/stereo only", cfg.FrameSize)
	case cfg.SampleSize < 1:
		return errors.Errorf("invalid read size %d", cfg.SampleSize)
	case cfg.SampleRate <= 0:
		return errors.Errorf("invalid sample rate %.1f", cfg.SampleRate)
	}

	return nil
}
