package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noriah/fbspectrum"
	"github.com/noriah/fbspectrum/config"
	"github.com/noriah/fbspectrum/dsp/window"
	"github.com/noriah/fbspectrum/fft"
	"github.com/noriah/fbspectrum/framebuffer"
	"github.com/noriah/fbspectrum/input"
	"github.com/noriah/fbspectrum/metrics"

	_ "github.com/noriah/fbspectrum/framebuffer/all"
	_ "github.com/noriah/fbspectrum/input/all"

	"github.com/integrii/flaggy"
	"github.com/rs/zerolog"
)

// AppName is the app name
const AppName = "fbspectrum"

// AppDesc is the app description
const AppDesc = "Audio spectrum, waveform and PPM meters on the linux framebuffer"

// AppSite is the app website
const AppSite = "https://github.com/noriah/fbspectrum"

var version = "unknown"

var log zerolog.Logger

type flags struct {
	configPath  string
	backend     string
	device      string
	display     string
	fbPath      string
	width       int
	height      int
	useThreaded bool
	metricsAddr string
	debug       bool
}

func main() {
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	f := flags{
		configPath: config.DefaultPath(),
		display:    framebuffer.DefaultDevice(),
		fbPath:     framebuffer.DefaultPath,
	}

	if doFlags(&f) {
		return
	}

	settings := loadSettings(f.configPath)

	backend := f.backend
	if backend == "" {
		backend = settings.Audio.Backend
	}
	if backend == "" {
		backend = input.DefaultBackend()
	}

	device := f.device
	if device == "" {
		device = settings.Audio.Device
	}

	display, err := framebuffer.OpenDevice(f.display, framebuffer.Config{
		Path:   f.fbPath,
		Width:  f.width,
		Height: f.height,
		Rate:   framebuffer.DefaultRate,
		Log:    log.With().Str("component", "display").Logger(),
	})
	chk(err, "failed to open display")
	defer display.Close()

	// Root Context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if f.metricsAddr != "" {
		mlog := log.With().Str("component", "metrics").Logger()

		go func() {
			if err := metrics.Serve(ctx, f.metricsAddr, mlog); err != nil {
				mlog.Error().Err(err).Msg("metrics disabled")
			}
		}()
	}

	info := display.Info()
	log.Info().
		Str("display", f.display).
		Int("width", info.Width).
		Int("height", info.Height).
		Str("backend", backend).
		Str("mode", settings.Mode.String()).
		Bool("fftw", fft.FFTW).
		Msg("starting")

	cfg := fbspectrum.Config{
		Settings:    settings,
		Backend:     backend,
		Device:      device,
		Display:     display,
		UseThreaded: f.useThreaded,
		Log:         log,
	}

	if _, err := os.Stat(f.configPath); err == nil {
		cfg.ConfigPath = f.configPath
	}

	if err := fbspectrum.Run(&cfg, ctx); err != nil {
		display.Close()
		chk(err, "failed to run fbspectrum")
	}
}

// loadSettings reads the config file, falling back to the defaults when the
// file does not exist.
func loadSettings(path string) *config.Config {
	if _, err := os.Stat(path); path == "" || os.IsNotExist(err) {
		settings := config.Default()
		chk(settings.Sanitize(), "invalid default config")

		log.Debug().Str("path", path).Msg("no config file, using defaults")

		return &settings
	}

	settings, err := config.Load(path)
	chk(err, "failed to load config")

	return settings
}

func doFlags(f *flags) bool {

	parser := flaggy.NewParser(AppName)
	parser.Description = AppDesc
	parser.AdditionalHelpPrepend = AppSite
	parser.Version = version

	listBackendsCmd := flaggy.Subcommand{
		Name:                 "list-backends",
		ShortName:            "lb",
		Description:          "list all supported backends",
		AdditionalHelpAppend: "\nuse the full name after the '-'",
	}

	parser.AttachSubcommand(&listBackendsCmd, 1)

	listDevicesCmd := flaggy.Subcommand{
		Name:                 "list-devices",
		ShortName:            "ld",
		Description:          "list all devices for a backend",
		AdditionalHelpAppend: "\nuse the full name after the '-'",
	}

	parser.AttachSubcommand(&listDevicesCmd, 1)

	listDisplaysCmd := flaggy.Subcommand{
		Name:        "list-displays",
		ShortName:   "lf",
		Description: "list all display drivers",
	}

	parser.AttachSubcommand(&listDisplaysCmd, 1)

	listWindowsCmd := flaggy.Subcommand{
		Name:        "list-windows",
		ShortName:   "lw",
		Description: "list all window functions",
	}

	parser.AttachSubcommand(&listWindowsCmd, 1)

	parser.String(&f.configPath, "p", "config", "config file path")
	parser.String(&f.backend, "b", "backend", "backend name")
	parser.String(&f.device, "d", "device", "device name")
	parser.String(&f.display, "fb", "framebuffer", "display driver (fbdev, term, memory)")
	parser.String(&f.fbPath, "", "fbpath", "framebuffer device node")
	parser.Int(&f.width, "", "width", "width of displays without a native size")
	parser.Int(&f.height, "", "height", "height of displays without a native size")
	parser.Bool(&f.useThreaded, "t", "threaded", "use the threaded processor")
	parser.String(&f.metricsAddr, "", "metrics", "serve prometheus metrics on this address")
	parser.Bool(&f.debug, "", "debug", "log debug messages")

	chk(parser.Parse(), "failed to parse arguments")

	if f.debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	switch {
	case listBackendsCmd.Used:
		for _, backend := range input.Backends {
			fmt.Printf("- %s\n", backend.Name)
		}

		return true

	case listDisplaysCmd.Used:
		def := framebuffer.DefaultDevice()

		for _, name := range framebuffer.GetAllDeviceNames() {
			star := ' '
			if name == def {
				star = '*'
			}

			fmt.Printf("- %s %c\n", name, star)
		}

		return true

	case listWindowsCmd.Used:
		for _, name := range window.Names() {
			fmt.Printf("- %s\n", name)
		}

		return true

	case listDevicesCmd.Used:
		name := f.backend
		if name == "" {
			name = input.DefaultBackend()
		}

		backend, err := input.InitBackend(name)
		chk(err, "failed to init backend")

		devices, err := backend.Devices()
		chk(err, "failed to get devices")

		// We don't really need the default device to be indicated.
		defaultDevice, _ := backend.DefaultDevice()

		fmt.Printf("all devices for %q backend. '*' marks default\n", name)

		for idx := range devices {
			star := ' '
			if defaultDevice != nil && devices[idx].String() == defaultDevice.String() {
				star = '*'
			}

			fmt.Printf("- %v %c\n", devices[idx], star)
		}

		return true
	}

	return false
}

func chk(err error, wrap string) {
	if err != nil {
		log.Fatal().Err(err).Msg(wrap)
	}
}
