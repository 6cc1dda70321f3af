// Package pipewire records PipeWire sinks and streams through pw-cat.
package pipewire

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noriah/fbspectrum/input"
	"github.com/noriah/fbspectrum/input/common/execread"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// autoTarget lets the session manager pick the source.
	autoTarget = "auto"

	portLookupTries    = 20
	portLookupInterval = 100 * time.Millisecond
)

func init() {
	input.RegisterBackend("pipewire", Backend{})
}

type Backend struct{}

func (p Backend) Init() error {
	return nil
}

func (p Backend) Close() error {
	return nil
}

func (p Backend) Devices() ([]input.Device, error) {
	d, err := readDump(context.Background())
	if err != nil {
		return nil, err
	}

	return d.sinks(), nil
}

func (p Backend) DefaultDevice() (input.Device, error) {
	return AudioDevice{autoTarget}, nil
}

func (p Backend) Start(cfg input.SessionConfig) (input.Session, error) {
	return NewSession(cfg)
}

// AudioDevice is a PipeWire node name.
type AudioDevice struct {
	name string
}

func (d AudioDevice) String() string {
	return d.name
}

// streamProps tag our recording node so it can be found in pw-dump.
type streamProps struct {
	ApplicationName string `json:"application.name"`
	StreamID        string `json:"fbspectrum.id"`
}

// Session records one PipeWire node into the ring.
type Session struct {
	session  *execread.Session
	tags     streamProps
	target   string
	channels int
	log      zerolog.Logger
}

// NewSession creates a new PipeWire session.
func NewSession(cfg input.SessionConfig) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dv, ok := cfg.Device.(AudioDevice)
	if !ok {
		return nil, errors.Errorf("invalid device type %T", cfg.Device)
	}

	tags := streamProps{
		ApplicationName: "fbspectrum",
		StreamID:        generateID(),
	}

	tagJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal stream tags")
	}

	raw, err := needRawArg()
	if err != nil {
		return nil, errors.Wrap(err, "failed to probe pw-cat")
	}

	return &Session{
		session:  execread.NewSession(recordArgs(dv, cfg, tagJSON, raw), true, cfg),
		tags:     tags,
		target:   dv.name,
		channels: cfg.FrameSize,
		log:      cfg.Log.With().Str("backend", "pipewire").Logger(),
	}, nil
}

// recordArgs builds the pw-cat command line writing raw floats to stdout.
func recordArgs(dv AudioDevice, cfg input.SessionConfig, tags []byte, raw bool) []string {
	// Named targets are linked by the relinker; "0" keeps the session
	// manager from linking anything itself.
	target := "0"
	if dv.name == autoTarget {
		target = autoTarget
	}

	args := []string{
		"pw-cat",
		"--record",
		"--format", "f32",
		"--rate", fmt.Sprintf("%.0f", cfg.SampleRate),
		"--latency", fmt.Sprint(cfg.SampleSize),
		"--channels", fmt.Sprint(cfg.FrameSize),
		"--target", target,
		"--quality", "0",
		"--media-category", "Capture",
		"--media-role", "DSP",
		"--properties", string(tags),
	}

	// pw-cat 1.4.0 only writes to stdout with --raw, see
	// https://gitlab.freedesktop.org/pipewire/pipewire/-/issues/4629
	if raw {
		args = append(args, "--raw")
	}

	return append(args, "-")
}

// Argv returns the pw-cat command line.
func (s *Session) Argv() []string {
	return s.session.Argv()
}

// Start records into ring until ctx is done or either pw-cat or the relinker
// fails. It implements input.Session.
func (s *Session) Start(ctx context.Context, ring *input.Ring) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	setErr := func(err error) {
		select {
		case errCh <- err:
		default:
		}
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		setErr(s.session.Start(ctx, ring))
	}()

	if s.target != autoTarget {
		wg.Add(1)
		go func() {
			defer wg.Done()
			setErr(s.relink(ctx, ring))
		}()
	}

	return <-errCh
}

// relink connects every output port of the target node to our input ports.
// WirePlumber does not honour target.object for recording streams, so links
// are made by hand:
//
//   - https://gitlab.freedesktop.org/pipewire/pipewire/-/issues/2731
//   - https://gitlab.freedesktop.org/pipewire/wireplumber/-/issues/358
func (s *Session) relink(ctx context.Context, ring *input.Ring) error {
	ours, err := s.findPorts(ctx)
	if err != nil {
		return err
	}

	s.log.Debug().
		Str("target", s.target).
		Int("channels", s.channels).
		Int("ports", len(ours)).
		Msg("relinking")

	events := make(chan linkEvent)
	monErr := make(chan error, 1)

	go func() { monErr <- monitorOutputs(ctx, s.log, events) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-monErr:
			return err

		case ev := <-events:
			if ring.Terminated() {
				return nil
			}

			if !ev.added || ev.port.Node != s.target {
				continue
			}

			in, ok := ev.port.match(ours)
			if !ok {
				s.log.Warn().
					Str("port", ev.port.Name).
					Int64("id", int64(ev.port.ID)).
					Msg("device port has no matching input")
				continue
			}

			if err := link(ctx, ev.port.ID, in.ID); err != nil {
				s.log.Warn().Err(err).
					Str("port", ev.port.Name).
					Str("input", in.Name).
					Msg("failed to link ports")
			}
		}
	}
}

// findPorts waits for our node to show up in pw-dump. The link monitor may
// report ports before the node exists, so it cannot be used for this.
func (s *Session) findPorts(ctx context.Context) (map[string]objectID, error) {
	var lastErr error

	for i := 0; i < portLookupTries; i++ {
		d, err := readDump(ctx)
		if err == nil {
			ports, err := d.streamPorts(s.tags)
			if err == nil {
				return ports, nil
			}

			lastErr = err
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(portLookupInterval):
		}
	}

	return nil, errors.Wrap(lastErr, "failed to find our input ports")
}

var sessionCounter atomic.Uint64

// generateID returns an ID unique to this process and session.
func generateID() string {
	var epoch [8]byte
	binary.LittleEndian.PutUint64(epoch[:], uint64(time.Now().Unix()))

	return fmt.Sprintf("%d@%s#%d",
		os.Getpid(),
		base64.RawURLEncoding.EncodeToString(epoch[:]),
		sessionCounter.Add(1))
}

// needRawArg reports whether pw-cat lists the --raw option.
func needRawArg() (bool, error) {
	out, err := exec.Command("pw-cat", "--help").Output()
	if err != nil {
		return false, err
	}

	return strings.Contains(string(out), "--raw"), nil
}
