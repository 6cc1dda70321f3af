// Package framebuffer presents rendered pixel buffers on an output device.
package framebuffer

import (
	"context"
	"os"
	"runtime"

	"github.com/noriah/fbspectrum/graphic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// DefaultPath is the framebuffer device node opened by default.
	DefaultPath = "/dev/fb0"
	// DefaultWidth is the width of devices that have no native resolution.
	DefaultWidth = 800
	// DefaultHeight is the height of devices that have no native resolution.
	DefaultHeight = 480
	// DefaultRate is the refresh rate emulated when vsync is unavailable.
	DefaultRate = 60.0
)

// Info describes the geometry and pixel layout of a device.
type Info struct {
	Width  int
	Height int
	Format graphic.PixelFormat
}

// NewBuffer allocates a buffer matching the device.
func (i Info) NewBuffer() *graphic.Buffer {
	return graphic.NewBuffer(i.Width, i.Height, i.Format)
}

// Config is passed to a device when it is opened.
type Config struct {
	Path   string  // device node, if the device has one
	Width  int     // requested width for devices without a native size
	Height int     // requested height for devices without a native size
	Rate   float64 // emulated refresh rate, 0 for devices that never wait
	Log    zerolog.Logger
}

func (cfg Config) withDefaults() Config {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}

	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}

	return cfg
}

// Device is a display the frame loop presents to.
type Device interface {
	Info() Info
	// Start runs any background work of the device. The returned context is
	// canceled when the device asks the program to quit.
	Start(ctx context.Context) context.Context
	// WaitVSync blocks until the next vertical blank.
	WaitVSync() error
	// Blit presents b. Buffers are y-up, devices flip rows as needed.
	Blit(b *graphic.Buffer) error
	Close() error
}

// Opener opens a device.
type Opener func(Config) (Device, error)

type NamedDevice struct {
	Name string
	Open Opener
}

var Devices []NamedDevice

// RegisterDevice registers a device globally. This function is not
// thread-safe, and most packages should call it on init().
func RegisterDevice(name string, open Opener) {
	Devices = append(Devices, NamedDevice{
		Name: name,
		Open: open,
	})
}

// GetAllDeviceNames returns the names of all registered devices.
func GetAllDeviceNames() []string {
	out := make([]string, len(Devices))
	for i, dev := range Devices {
		out[i] = dev.Name
	}
	return out
}

// FindDevice returns the opener registered under name, or nil.
func FindDevice(name string) Opener {
	for _, dev := range Devices {
		if dev.Name == name {
			return dev.Open
		}
	}
	return nil
}

// DefaultDevice picks the linux framebuffer when one is present, and the
// terminal otherwise.
func DefaultDevice() string {
	if runtime.GOOS == "linux" && FindDevice("fbdev") != nil {
		if _, err := os.Stat(DefaultPath); err == nil {
			return "fbdev"
		}
	}

	if FindDevice("term") != nil {
		return "term"
	}

	return ""
}

// OpenDevice opens the device registered under name.
func OpenDevice(name string, cfg Config) (Device, error) {
	open := FindDevice(name)
	if open == nil {
		return nil, errors.Errorf("display not found: %q; check list-displays", name)
	}

	dev, err := open(cfg.withDefaults())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s display", name)
	}

	return dev, nil
}
