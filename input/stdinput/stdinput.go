// Package stdinput reads interleaved little-endian float32 audio from stdin.
package stdinput

import (
	"context"
	"io"
	"os"

	"github.com/noriah/fbspectrum/input"
	"github.com/noriah/fbspectrum/input/common/execread"
)

func init() {
	input.RegisterBackend("stdin", StdinBackend{})
}

type StdinBackend struct{}

func (b StdinBackend) Init() error {
	return nil
}

func (b StdinBackend) Close() error {
	return nil
}

func (b StdinBackend) Devices() ([]input.Device, error) {
	return []input.Device{StdInputDevice{}}, nil
}

func (b StdinBackend) DefaultDevice() (input.Device, error) {
	return StdInputDevice{}, nil
}

func (b StdinBackend) Start(config input.SessionConfig) (input.Session, error) {
	return NewStdinSession(config), nil
}

type StdInputDevice struct{}

func (d StdInputDevice) String() string {
	return "stdin"
}

type Session struct {
	cfg input.SessionConfig
	src io.Reader
	// maligned.
	f32mode bool
}

func NewStdinSession(cfg input.SessionConfig) *Session {
	return &Session{
		cfg:     cfg,
		src:     os.Stdin,
		f32mode: true,
	}
}

// NewReaderSession reads from r instead of stdin.
func NewReaderSession(r io.Reader, cfg input.SessionConfig) *Session {
	s := NewStdinSession(cfg)
	s.src = r
	return s
}

// Start streams from the source until it ends. The rate is taken from the
// session config since raw samples carry no header.
func (s *Session) Start(ctx context.Context, ring *input.Ring) error {
	return execread.Stream(ctx, s.src, ring, s.cfg, s.f32mode)
}
