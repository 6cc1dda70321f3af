// Package term previews the visualizer in a 256 colour terminal.
//
// Every terminal cell shows one sampled pixel of the frame, so it is coarse,
// but it runs anywhere termbox does.
package term

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/noriah/fbspectrum/framebuffer"
	"github.com/noriah/fbspectrum/graphic"
	"github.com/nsf/termbox-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func init() {
	framebuffer.RegisterDevice("term", Open)
}

// Device draws frames into termbox cells.
type Device struct {
	info    framebuffer.Info
	ticker  *time.Ticker
	restore func()
	done    chan struct{}
	log     zerolog.Logger
}

// normalizeTerminal looks for incompatibilities in the terminal configuration
// with the underlying rendering libraries (Termbox) and makes some adjustments
// to avoid problems.
//
// Returns a function that allows you to restore the terminal configuration to its original state.
func normalizeTerminal() (func(), error) {
	prevTERMINFO, had := os.LookupEnv("TERMINFO")

	if strings.HasPrefix(os.Getenv("TERM"), "tmux") {
		// Some combinations of TERMINFO with TERM in some Tmux value
		// will cause Termbox to fail.
		if err := os.Unsetenv("TERMINFO"); err != nil {
			return nil, err
		}
	}

	restore := func() {
		if had {
			os.Setenv("TERMINFO", prevTERMINFO)
		}
	}

	return restore, nil
}

// Open takes over the terminal.
func Open(cfg framebuffer.Config) (framebuffer.Device, error) {
	restore, err := normalizeTerminal()
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare terminal")
	}

	if err := termbox.Init(); err != nil {
		restore()
		return nil, errors.Wrap(err, "failed to init termbox")
	}

	termbox.SetOutputMode(termbox.Output256)
	termbox.SetInputMode(termbox.InputEsc)
	termbox.HideCursor()

	rate := cfg.Rate
	if rate <= 0 {
		rate = framebuffer.DefaultRate
	}

	return &Device{
		info: framebuffer.Info{
			Width:  cfg.Width,
			Height: cfg.Height,
			Format: graphic.FormatXRGB8888,
		},
		ticker:  time.NewTicker(time.Duration(float64(time.Second) / rate)),
		restore: restore,
		log:     cfg.Log.With().Str("component", "term").Logger(),
	}, nil
}

func (d *Device) Info() framebuffer.Info { return d.info }

// Start polls terminal events. The returned context ends when the user
// presses q, Esc or Ctrl-C.
func (d *Device) Start(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	d.done = make(chan struct{})

	go d.eventPoller(ctx, cancel)

	return ctx
}

func (d *Device) eventPoller(ctx context.Context, fn context.CancelFunc) {
	defer close(d.done)
	defer fn()

	for {
		// first check if we need to exit
		select {
		case <-ctx.Done():
			return
		default:
		}

		ev := termbox.PollEvent()

		switch ev.Type {
		case termbox.EventKey:
			switch {
			case ev.Key == termbox.KeyEsc, ev.Key == termbox.KeyCtrlC, ev.Ch == 'q':
				return
			}

		case termbox.EventResize:
			termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)

		case termbox.EventInterrupt:
			return

		case termbox.EventError:
			d.log.Error().Err(ev.Err).Msg("terminal event error")
			return
		}
	}
}

func (d *Device) WaitVSync() error {
	<-d.ticker.C
	return nil
}

// colorIndex maps c onto the 6x6x6 colour cube of a 256 colour terminal.
func colorIndex(c graphic.Color) int {
	cube := func(v uint8) int { return int(v) * 6 / 256 }
	return 16 + 36*cube(c.R) + 6*cube(c.G) + cube(c.B)
}

// cellColor returns the pixel shown in cell (cx, cy) of a cols x rows
// terminal. Cells are counted from the top, buffers from the bottom.
func cellColor(b *graphic.Buffer, cx, cy, cols, rows int) graphic.Color {
	x := cx * b.Width() / cols
	y := b.Height() - 1 - cy*b.Height()/rows

	return b.At(x, y)
}

func (d *Device) Blit(b *graphic.Buffer) error {
	cols, rows := termbox.Size()
	if cols <= 0 || rows <= 0 {
		return nil
	}

	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < cols; cx++ {
			c := cellColor(b, cx, cy, cols, rows)

			bg := termbox.ColorDefault
			if c.R|c.G|c.B != 0 {
				// Output256 attributes are offset by one from the palette index.
				bg = termbox.Attribute(colorIndex(c) + 1)
			}

			termbox.SetCell(cx, cy, ' ', termbox.ColorDefault, bg)
		}
	}

	return errors.Wrap(termbox.Flush(), "failed to flush terminal")
}

func (d *Device) Close() error {
	d.ticker.Stop()

	if d.done != nil {
		select {
		case <-d.done:
		default:
			go termbox.Interrupt()

			select {
			case <-d.done:
			case <-time.After(100 * time.Millisecond):
			}
		}
	}

	termbox.Close()
	d.restore()

	return nil
}
