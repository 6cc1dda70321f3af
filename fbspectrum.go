// Package fbspectrum draws live audio as spectrum bars, a waveform or a pair
// of peak programme meters on a framebuffer.
package fbspectrum

import (
	"context"
	"time"

	"github.com/noriah/fbspectrum/config"
	"github.com/noriah/fbspectrum/dsp"
	"github.com/noriah/fbspectrum/dsp/window"
	"github.com/noriah/fbspectrum/framebuffer"
	"github.com/noriah/fbspectrum/graphic"
	"github.com/noriah/fbspectrum/graphic/glyph"
	"github.com/noriah/fbspectrum/input"
	"github.com/noriah/fbspectrum/metrics"
	"github.com/noriah/fbspectrum/processor"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// HandshakeInterval is how often the frame loop checks whether capture
	// has published a sample rate.
	HandshakeInterval = 100 * time.Millisecond
	// HandshakeTries is how many checks are made before giving up.
	HandshakeTries = 200
	// IdleInterval is the pause between clock frames while no audio flows.
	IdleInterval = 300 * time.Millisecond
	// JoinTimeout bounds the wait for the capture goroutine on shutdown.
	JoinTimeout = 2 * time.Second

	// ReadSize is the number of frames a capture backend reads at once.
	ReadSize = 1024
)

// ErrHandshakeTimeout is returned when capture never reports a sample rate.
var ErrHandshakeTimeout = errors.New("could not get the sample rate from the audio backend")

// Fonts rasterizes text and owns the loaded font files.
type Fonts interface {
	graphic.Rasterizer
	Close() error
}

// FontLoader loads the text and meter fonts. Empty paths select a built-in
// font.
type FontLoader func(textFont, meterFont string) (Fonts, error)

type Config struct {
	// Settings is the loaded configuration file
	Settings *config.Config
	// ConfigPath is watched for changes when set
	ConfigPath string
	// The name of the backend from the input package
	Backend string
	// The name of the device to pull data from
	Device string
	// Display is the opened output device. Run does not close it.
	Display framebuffer.Device
	// Fonts loads fonts, glyph.Load by default
	Fonts FontLoader
	// Use threaded processor
	UseThreaded bool
	// Log is the root logger
	Log zerolog.Logger
	// Now returns the wall clock, time.Now by default
	Now func() time.Time

	// HandshakeInterval and HandshakeTries override the package defaults
	// when non-zero.
	HandshakeInterval time.Duration
	HandshakeTries    int
}

func (cfg *Config) Validate() error {
	switch {
	case cfg.Settings == nil:
		return errors.New("no settings")

	case cfg.Display == nil:
		return errors.New("no display")

	case cfg.Backend == "":
		return errors.New("no backend")
	}

	if cfg.Fonts == nil {
		log := cfg.Log.With().Str("component", "glyph").Logger()
		cfg.Fonts = func(text, meter string) (Fonts, error) {
			return glyph.Load(text, meter, log)
		}
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.HandshakeInterval <= 0 {
		cfg.HandshakeInterval = HandshakeInterval
	}

	if cfg.HandshakeTries <= 0 {
		cfg.HandshakeTries = HandshakeTries
	}

	return nil
}

// Run captures audio and draws it on the display until ctx is done, the
// display asks to quit or capture fails.
func Run(cfg *Config, ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	log := cfg.Log.With().Str("component", "frame").Logger()
	settings := cfg.Settings

	// INPUT SETUP

	backend, err := input.InitBackend(cfg.Backend)
	if err != nil {
		return err
	}
	defer backend.Close()

	sessConfig := input.SessionConfig{
		FrameSize:  settings.Audio.Channels,
		SampleSize: min(ReadSize, settings.Audio.FFTSize),
		SampleRate: settings.Audio.SampleRate,
		Log:        cfg.Log.With().Str("component", "input").Logger(),
	}

	if sessConfig.Device, err = input.GetDevice(backend, cfg.Device); err != nil {
		return err
	}

	session, err := backend.Start(sessConfig)
	if err != nil {
		return errors.Wrap(err, "failed to start the input backend")
	}

	ring := input.NewRing(settings.Audio.FFTSize)

	captureCtx, cancelCapture := context.WithCancel(ctx)
	defer cancelCapture()

	captureDone := make(chan struct{})

	go func() {
		defer close(captureDone)

		err := session.Start(captureCtx, ring)
		if err != nil && !errors.Is(err, context.Canceled) && !ring.Terminated() {
			ring.Fail(err)
		}
	}()

	// Capture is stopped and joined before anything is released.
	var release []func()

	defer func() {
		ring.Terminate()
		cancelCapture()

		select {
		case <-captureDone:
		case <-time.After(JoinTimeout):
			log.Warn().Msg("audio capture did not stop in time")
		}

		for i := len(release) - 1; i >= 0; i-- {
			release[i]()
		}
	}()

	log.Debug().Str("backend", cfg.Backend).Str("device", sessConfig.Device.String()).Msg("waiting for audio format")

	if err := handshake(ctx, ring, cfg.HandshakeInterval, cfg.HandshakeTries); err != nil {
		return err
	}

	log.Info().
		Float64("rate", ring.Rate()).
		Int("channels", ring.Channels()).
		Msg("got audio format")

	// PROCESSOR SETUP

	windower, err := window.Lookup(settings.Audio.Window)
	if err != nil {
		return err
	}

	procConfig := processor.Config{
		SampleSize:   settings.Audio.FFTSize,
		ChannelCount: input.MaxChannels,
		BarCount:     settings.Spectrum.Bars,
		Source:       ring,
		Windower:     windower,
		Analyzer: dsp.NewAnalyzer(dsp.AnalyzerConfig{
			SampleRate: ring.Rate(),
			SampleSize: settings.Audio.FFTSize,
			LowCut:     settings.Spectrum.LowerCutoff,
			HighCut:    settings.Spectrum.UpperCutoff,
		}),
		Monstercat: settings.Spectrum.Monstercat,
	}

	var vis processor.Processor

	if cfg.UseThreaded {
		vis = processor.NewThreaded(procConfig)
	} else {
		vis = processor.New(procConfig)
	}

	release = append(release, vis.Close)

	ctx = cfg.Display.Start(ctx)

	ctx = vis.Start(ctx)
	release = append(release, vis.Stop)

	fonts, err := cfg.Fonts(settings.TextFont, settings.AudioFont)
	if err != nil {
		return errors.Wrap(err, "failed to load fonts")
	}

	fr := newFrame(cfg.Display.Info(), settings, ring, vis, fonts)
	release = append(release, fr.release)

	var watcher *config.Watcher
	if cfg.ConfigPath != "" {
		watcher = config.NewWatcher(cfg.ConfigPath)
	}

	return loop(ctx, cfg, fr, watcher, log)
}

// handshake waits until capture publishes a sample rate.
func handshake(ctx context.Context, ring *input.Ring, interval time.Duration, tries int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 0; ring.Rate() == 0; n++ {
		if ring.Terminated() {
			return captureError(ring)
		}

		if n >= tries {
			return ErrHandshakeTimeout
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return nil
}

// captureError turns a terminated ring into an error.
func captureError(ring *input.Ring) error {
	if err := ring.Err(); err != nil {
		return errors.Wrapf(input.ErrTerminated, "%v", err)
	}

	return input.ErrTerminated
}

func loop(ctx context.Context, cfg *Config, fr *frame, watcher *config.Watcher, log zerolog.Logger) error {
	display := cfg.Display

	last := cfg.Now()
	lastReport := last

	for {
		if fr.ring.Terminated() {
			err := captureError(fr.ring)
			log.Error().Err(err).Msg("audio capture exited unexpectedly")
			return err
		}

		if ctx.Err() != nil {
			return nil
		}

		now := cfg.Now()
		dt := now.Sub(last).Seconds()
		last = now

		if watcher != nil {
			next, err := watcher.Poll(now)
			if err != nil {
				return errors.Wrap(err, "failed to reload config")
			}

			if next != nil {
				if err := fr.reload(next, cfg.Fonts); err != nil {
					return err
				}

				metrics.Reload()
				log.Debug().Str("path", watcher.Path()).Str("mode", next.Mode.String()).Msg("config reloaded")
			}
		}

		if err := display.WaitVSync(); err != nil {
			return errors.Wrap(err, "failed to wait for vsync")
		}

		if err := display.Blit(fr.final); err != nil {
			return errors.Wrap(err, "failed to blit")
		}

		running := fr.ring.Running()
		metrics.Running(running)

		if !running {
			fr.idle(now)

			select {
			case <-ctx.Done():
			case <-time.After(IdleInterval):
			}

			continue
		}

		start := time.Now()

		switch fr.settings.Mode {
		case config.ModeBars:
			fr.bars(now, dt)
		case config.ModeWaveform:
			fr.waveform()
		default:
			fr.dial(dt)
		}

		metrics.Frame(fr.settings.Mode.String(), time.Since(start))

		if dt > 0 {
			fr.fps = fr.fps*0.995 + 0.005/dt
			metrics.FPS(fr.fps)
		}

		if now.Sub(lastReport) >= 10*time.Second {
			lastReport = now
			log.Debug().Float64("fps", fr.fps).Float64("peak", fr.peak.Value()).Msg("frame stats")
		}
	}
}
