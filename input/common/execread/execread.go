// Package execread provides a shared struct that wraps around cmd.
package execread

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"os/exec"
	"time"

	"github.com/noriah/fbspectrum/input"
	"github.com/pkg/errors"
)

// Session is a session that reads floating-point audio values from a Cmd.
type Session struct {
	// OnStart is called when the session starts. Nil by default.
	OnStart func(ctx context.Context, cmd *exec.Cmd) error

	// prevents cmd.Stderr from pointing to os.Stderr. false by default.
	DisconnectedStderr bool

	argv []string
	cfg  input.SessionConfig

	// maligned.
	f32mode bool
}

// NewSession creates a new execread session. It never returns an error.
func NewSession(argv []string, f32mode bool, cfg input.SessionConfig) *Session {
	if len(argv) < 1 {
		panic("argv has no arg0")
	}

	return &Session{
		argv:    argv,
		cfg:     cfg,
		f32mode: f32mode,
	}
}

// Argv returns the command line the session runs.
func (s *Session) Argv() []string {
	return s.argv
}

func (s *Session) Start(ctx context.Context, ring *input.Ring) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)

	if !s.DisconnectedStderr {
		cmd.Stderr = os.Stderr
	}

	o, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to get stdout pipe")
	}
	defer o.Close()

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start "+s.argv[0])
	}

	if s.OnStart != nil {
		if err := s.OnStart(ctx, cmd); err != nil {
			return err
		}
	}

	return Stream(ctx, o, ring, s.cfg, s.f32mode)
}

type deadliner interface {
	SetReadDeadline(time.Time) error
}

// Stream decodes interleaved little-endian floats from r into ring until r
// ends, ctx is done or the ring is terminated. Values are expected in the
// -1..1 range and are scaled to 16 bit magnitudes.
//
// When r supports read deadlines, a read that takes much longer than one
// buffer of audio marks the ring as not running.
func Stream(ctx context.Context, r io.Reader, ring *input.Ring, cfg input.SessionConfig, f32mode bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	samples := cfg.SampleSize * cfg.FrameSize

	reader := floatReader{
		order: binary.LittleEndian,
		f64:   !f32mode,
	}

	bufsz := samples
	if !f32mode {
		bufsz *= 2
	}

	raw := make([]byte, bufsz*4)
	decoded := make([]float64, samples)

	// We stretch this as a workaround because sampleDuration is less than the
	// actual time that ReadFull blocks for some reason, probably because the
	// process decides to discard audio when it overflows.
	sampleDuration := time.Duration(
		float64(cfg.SampleSize) / cfg.SampleRate * float64(time.Second))
	// We also keep track of whether the deadline was hit once so we can
	// shorten the timeout. This smooths out the jitter.
	var readExpired bool

	dl, _ := r.(deadliner)

	defer ring.SetRunning(false)

	published := false

	for {
		if ring.Terminated() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if dl != nil {
			// Set us a read deadline. If the deadline is reached, the stream
			// is considered stopped until data shows up again.
			timeout := sampleDuration
			if !readExpired {
				timeout *= 6
			}

			if err := dl.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				// not every file can time out; fall back to blocking reads
				dl = nil
			}
		}

		_, err := io.ReadFull(r, raw)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
				return nil
			case errors.Is(err, os.ErrDeadlineExceeded):
				readExpired = true
				ring.SetRunning(false)
				continue
			default:
				return errors.Wrap(err, "failed to read audio")
			}
		}

		readExpired = false

		reader.reset(raw)
		for n := range decoded {
			decoded[n] = reader.next() * input.FullScale
		}

		ring.Write(decoded, cfg.FrameSize)

		if !published {
			ring.SetFormat(cfg.SampleRate, cfg.FrameSize)
			published = true
		}

		ring.SetRunning(true)
	}
}

type floatReader struct {
	order binary.ByteOrder
	buf   []byte
	f64   bool
}

func (f *floatReader) reset(b []byte) {
	f.buf = b
}

func (f *floatReader) next() float64 {
	if f.f64 {
		b := f.buf[:8]
		f.buf = f.buf[8:]
		return math.Float64frombits(f.order.Uint64(b))
	}

	b := f.buf[:4]
	f.buf = f.buf[4:]
	return float64(math.Float32frombits(f.order.Uint32(b)))
}
