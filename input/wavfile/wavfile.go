// Package wavfile plays a WAV file into the visualizer in real time.
package wavfile

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/noriah/fbspectrum/input"
	"github.com/pkg/errors"
)

func init() {
	input.RegisterBackend("wavfile", Backend{})
}

type Backend struct{}

func (b Backend) Init() error {
	return nil
}

func (b Backend) Close() error {
	return nil
}

// Devices lists the WAV files in the working directory.
func (b Backend) Devices() ([]input.Device, error) {
	matches, err := filepath.Glob("*.wav")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list wav files")
	}

	devices := make([]input.Device, len(matches))
	for i, m := range matches {
		devices[i] = File(m)
	}

	return devices, nil
}

func (b Backend) DefaultDevice() (input.Device, error) {
	return nil, errors.New("wavfile has no default device; pass a file path")
}

// LookupDevice accepts any readable file path.
func (b Backend) LookupDevice(name string) (input.Device, error) {
	if _, err := os.Stat(name); err != nil {
		return nil, errors.Wrap(err, "wav file")
	}

	return File(name), nil
}

func (b Backend) Start(cfg input.SessionConfig) (input.Session, error) {
	dv, ok := cfg.Device.(File)
	if !ok {
		return nil, errors.Errorf("invalid device type %T", cfg.Device)
	}

	if cfg.SampleSize < 1 {
		return nil, errors.Errorf("invalid read size %d", cfg.SampleSize)
	}

	return &Session{path: string(dv), cfg: cfg, Loop: true}, nil
}

// File is the path to a WAV file.
type File string

func (f File) String() string {
	return string(f)
}

// Session paces the PCM data of a WAV file into a ring at the file's own
// sample rate.
type Session struct {
	// Loop restarts the file when it ends.
	Loop bool

	path string
	cfg  input.SessionConfig
}

type decoder struct {
	*wav.Decoder
	format   *audio.Format
	bitDepth int
}

func openDecoder(f *os.File) (*decoder, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "failed to rewind")
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.Errorf("%s is not a valid wav file", f.Name())
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, errors.Wrap(err, "failed to find pcm data")
	}

	format := dec.Format()
	if format == nil || format.NumChannels < 1 || format.SampleRate < 1 {
		return nil, errors.Errorf("%s has no usable format", f.Name())
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, errors.Errorf("unsupported bit depth %d", bitDepth)
	}

	return &decoder{Decoder: dec, format: format, bitDepth: bitDepth}, nil
}

func (s *Session) Start(ctx context.Context, ring *input.Ring) error {
	f, err := os.Open(s.path)
	if err != nil {
		return errors.Wrap(err, "failed to open wav file")
	}
	defer f.Close()

	dec, err := openDecoder(f)
	if err != nil {
		return err
	}

	channels := dec.format.NumChannels
	rate := dec.format.SampleRate
	frames := s.cfg.SampleSize

	buf := &audio.IntBuffer{
		Format:         dec.format,
		Data:           make([]int, frames*channels),
		SourceBitDepth: dec.bitDepth,
	}

	samples := make([]float64, len(buf.Data))

	scale := float64(input.FullScale) / float64(int(1)<<(dec.bitDepth-1))
	offset := 0
	if dec.bitDepth == 8 {
		// 8 bit wav samples are unsigned
		offset = 128
	}

	ring.SetFormat(float64(rate), min(channels, input.MaxChannels))

	ticker := time.NewTicker(time.Duration(float64(frames) / float64(rate) * float64(time.Second)))
	defer ticker.Stop()

	defer ring.SetRunning(false)

	readAny := false

	for {
		if ring.Terminated() {
			return nil
		}

		n, err := dec.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return errors.Wrap(err, "failed to decode wav data")
		}

		if n == 0 {
			if !s.Loop || !readAny {
				return nil
			}

			if dec, err = openDecoder(f); err != nil {
				return err
			}

			readAny = false
			continue
		}

		readAny = true

		n -= n % channels
		for i, v := range buf.Data[:n] {
			samples[i] = float64(v-offset) * scale
		}

		ring.Write(samples[:n], channels)
		ring.SetRunning(true)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
