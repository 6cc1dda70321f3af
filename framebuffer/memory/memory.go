// Package memory is an in-memory display. It keeps the last presented frame
// and is used for headless runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/noriah/fbspectrum/framebuffer"
	"github.com/noriah/fbspectrum/graphic"
)

func init() {
	framebuffer.RegisterDevice("memory", func(cfg framebuffer.Config) (framebuffer.Device, error) {
		return New(cfg), nil
	})
}

// Device records presented frames.
type Device struct {
	info   framebuffer.Info
	ticker *time.Ticker

	mu     sync.Mutex
	frame  []graphic.Pixel
	frames int
	closed bool
}

// New returns a memory display of the configured size. A zero Rate makes
// WaitVSync return immediately.
func New(cfg framebuffer.Config) *Device {
	if cfg.Width <= 0 {
		cfg.Width = framebuffer.DefaultWidth
	}

	if cfg.Height <= 0 {
		cfg.Height = framebuffer.DefaultHeight
	}

	d := &Device{
		info: framebuffer.Info{
			Width:  cfg.Width,
			Height: cfg.Height,
			Format: graphic.FormatXRGB8888,
		},
		frame: make([]graphic.Pixel, cfg.Width*cfg.Height),
	}

	if cfg.Rate > 0 {
		d.ticker = time.NewTicker(time.Duration(float64(time.Second) / cfg.Rate))
	}

	return d
}

func (d *Device) Info() framebuffer.Info { return d.info }

func (d *Device) Start(ctx context.Context) context.Context { return ctx }

func (d *Device) WaitVSync() error {
	if d.ticker != nil {
		<-d.ticker.C
	}

	return nil
}

// Blit stores b with its rows flipped, top row first.
func (d *Device) Blit(b *graphic.Buffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	w, h := d.info.Width, d.info.Height
	pix := b.Pixels()

	for row := 0; row < min(h, b.Height()); row++ {
		src := (b.Height() - 1 - row) * b.Width()
		n := min(w, b.Width())
		copy(d.frame[row*w:row*w+n], pix[src:src+n])
	}

	d.frames++

	return nil
}

// Frames returns how many frames were presented.
func (d *Device) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.frames
}

// At returns the colour presented at screen position (x, y), y counted from
// the top.
func (d *Device) At(x, y int) graphic.Color {
	d.mu.Lock()
	defer d.mu.Unlock()

	if uint(x) >= uint(d.info.Width) || uint(y) >= uint(d.info.Height) {
		return graphic.Color{}
	}

	return d.info.Format.Unpack(d.frame[y*d.info.Width+x])
}

// Lit counts the non-zero pixels of the last frame.
func (d *Device) Lit() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, p := range d.frame {
		if p != 0 {
			n++
		}
	}

	return n
}

// Closed reports whether Close was called.
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.closed
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ticker != nil {
		d.ticker.Stop()
	}

	d.closed = true

	return nil
}
