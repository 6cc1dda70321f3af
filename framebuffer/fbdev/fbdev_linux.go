//go:build linux

package fbdev

import (
	"context"
	"os"
	"time"
	"unsafe"

	"github.com/noriah/fbspectrum/framebuffer"
	"github.com/noriah/fbspectrum/graphic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// Device is a memory mapped linux framebuffer.
type Device struct {
	f      *os.File
	mem    []byte
	info   framebuffer.Info
	layout layout

	vsync  bool
	rate   float64
	ticker *time.Ticker

	log zerolog.Logger
}

func ioctl(fd, req uintptr, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg)); errno != 0 {
		return errno
	}

	return nil
}

// Open maps the framebuffer at cfg.Path.
func Open(cfg framebuffer.Config) (framebuffer.Device, error) {
	path := cfg.Path
	if path == "" {
		path = framebuffer.DefaultPath
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open framebuffer")
	}

	var vinfo varScreenInfo
	if err := ioctl(f.Fd(), getVScreenInfo, unsafe.Pointer(&vinfo)); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to read variable screen info")
	}

	var finfo fixScreenInfo
	if err := ioctl(f.Fd(), getFScreenInfo, unsafe.Pointer(&finfo)); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to read fixed screen info")
	}

	l, err := newLayout(vinfo, finfo)
	if err != nil {
		f.Close()
		return nil, err
	}

	length := int(finfo.SmemLen)
	if length < l.size() {
		f.Close()
		return nil, errors.Errorf("framebuffer memory of %d bytes is too small", length)
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to map framebuffer")
	}

	rate := cfg.Rate
	if rate <= 0 {
		rate = framebuffer.DefaultRate
	}

	d := &Device{
		f:   f,
		mem: mem,
		info: framebuffer.Info{
			Width:  l.width,
			Height: l.height,
			Format: formatOf(vinfo),
		},
		layout: l,
		vsync:  true,
		rate:   rate,
		log:    cfg.Log.With().Str("component", "fbdev").Logger(),
	}

	d.log.Info().
		Str("path", path).
		Int("width", l.width).
		Int("height", l.height).
		Uint32("bpp", vinfo.BitsPerPixel).
		Msg("framebuffer mapped")

	return d, nil
}

func (d *Device) Info() framebuffer.Info { return d.info }

func (d *Device) Start(ctx context.Context) context.Context { return ctx }

// WaitVSync waits for the vertical blank. Drivers without FBIO_WAITFORVSYNC
// fall back to a ticker at the configured rate.
func (d *Device) WaitVSync() error {
	if d.vsync {
		var arg uint32
		err := ioctl(d.f.Fd(), waitForVSync, unsafe.Pointer(&arg))
		if err == nil {
			return nil
		}

		d.log.Warn().Err(err).Float64("rate", d.rate).Msg("vsync unsupported, using a timer")

		d.vsync = false
		d.ticker = time.NewTicker(time.Duration(float64(time.Second) / d.rate))
	}

	<-d.ticker.C

	return nil
}

func (d *Device) Blit(b *graphic.Buffer) error {
	if d.mem == nil {
		return errors.New("framebuffer is closed")
	}

	d.layout.blit(d.mem, b)

	return nil
}

func (d *Device) Close() error {
	if d.ticker != nil {
		d.ticker.Stop()
	}

	var first error

	if d.mem != nil {
		first = unix.Munmap(d.mem)
		d.mem = nil
	}

	if err := d.f.Close(); err != nil && first == nil {
		first = err
	}

	return first
}
