package fbspectrum

import (
	"fmt"
	"math"
	"time"

	"github.com/noriah/fbspectrum/config"
	"github.com/noriah/fbspectrum/dsp"
	"github.com/noriah/fbspectrum/framebuffer"
	"github.com/noriah/fbspectrum/graphic"
	"github.com/noriah/fbspectrum/input"
	"github.com/noriah/fbspectrum/metrics"
	"github.com/noriah/fbspectrum/processor"
	"github.com/pkg/errors"
)

const (
	// ClockAlpha is the weight the last frame keeps each time the idle clock
	// is blended over it.
	ClockAlpha = 0.98

	// DialMin and DialMax are the ends of the meter dial scale in dB.
	DialMin = -50.0
	DialMax = 5.0
	// DialSweepStart and DialSweepEnd are the dial angles of DialMin and
	// DialMax, in degrees counterclockwise from the positive x axis.
	DialSweepStart = 150.0
	DialSweepEnd   = 30.0
	// DialRadius is the largest needle radius.
	DialRadius = 180

	// MeterScale is the bar meter stroke length per dB.
	MeterScale = 15
)

// frame holds everything the frame loop draws with.
type frame struct {
	final *graphic.Buffer
	clock *graphic.Buffer

	settings *config.Config
	fonts    Fonts

	ring  *input.Ring
	proc  processor.Processor
	meter *dsp.Meter
	peak  *dsp.Peak

	// latest samples of each channel, oldest first
	samples [input.MaxChannels][]float64
	windows [][]float64

	fps float64
}

func newFrame(info framebuffer.Info, settings *config.Config, ring *input.Ring, proc processor.Processor, fonts Fonts) *frame {
	fr := &frame{
		final:    info.NewBuffer(),
		clock:    info.NewBuffer(),
		settings: settings,
		fonts:    fonts,
		ring:     ring,
		proc:     proc,
		meter:    dsp.NewMeter(input.MaxChannels, settings.Meter.Floor),
		peak:     dsp.NewPeak(),
		windows:  make([][]float64, input.MaxChannels),
		fps:      30,
	}

	size := ring.Capacity()
	winLen := min(dsp.WindowLength(ring.Rate()), size)

	for ch := range fr.samples {
		fr.samples[ch] = make([]float64, size)
		fr.windows[ch] = fr.samples[ch][size-winLen:]
	}

	return fr
}

// release frees the pixel buffers and fonts.
func (fr *frame) release() {
	fr.final.Release()
	fr.clock.Release()

	if fr.fonts != nil {
		fr.fonts.Close()
		fr.fonts = nil
	}
}

// reload applies a new configuration. Fonts are always read again, since a
// font file may have been replaced in place. Audio and spectrum settings need
// a restart.
func (fr *frame) reload(next *config.Config, load FontLoader) error {
	prev := fr.settings

	fonts, err := load(next.TextFont, next.AudioFont)
	if err != nil {
		return errors.Wrap(err, "failed to reload fonts")
	}

	fr.fonts.Close()
	fr.fonts = fonts

	next.Audio = prev.Audio
	next.Spectrum = prev.Spectrum

	if next.Meter != prev.Meter {
		fr.meter = dsp.NewMeter(input.MaxChannels, next.Meter.Floor)
	}

	fr.settings = next

	return nil
}

func (fr *frame) text(face graphic.Face, s string, size float64, center bool, x, y int, c graphic.Color) {
	fr.final.Text(fr.fonts, face, s, size, center, x, y, c)
}

// snapshot copies the latest audio into the sample buffers.
func (fr *frame) snapshot() {
	for ch := range fr.samples {
		fr.ring.Snapshot(ch, fr.samples[ch])
	}
}

// updateMeter integrates the trailing window of each channel.
func (fr *frame) updateMeter(dt float64) {
	fr.meter.Update(fr.windows, dt)
	metrics.Meter(fr.meter.Value(0), fr.meter.Value(1), fr.meter.Clip())
}

// axes returns the left and right channel axes. The right axes sit one
// pixel over so the channels interleave.
func (fr *frame) axes() (graphic.Axes, graphic.Axes) {
	left := graphic.Axes{
		ScreenW: fr.final.Width() - 1,
		ScreenH: fr.final.Height(),
		XMin:    math.Log10(fr.settings.Spectrum.LowerCutoff),
		XMax:    math.Log10(fr.settings.Spectrum.UpperCutoff),
	}

	right := left
	right.ScreenX = 1

	return left, right
}

// idle blends the clock into the last presented frame.
func (fr *frame) idle(now time.Time) {
	c := fr.settings.Palette.Text

	fr.clock.Clear()
	fr.clock.Text(fr.fonts, graphic.FaceText, now.Format("15:04"), 64, true, 0, 200, c)
	fr.clock.Text(fr.fonts, graphic.FaceText, now.Format("Mon, 02 January 2006"), 14, true, 0, 80, c)

	fr.final.Blend(fr.clock, ClockAlpha)
}

func (fr *frame) bars(now time.Time, dt float64) {
	pal := fr.settings.Palette

	bins := fr.proc.Process()

	left, right := fr.axes()

	fr.peak.Observe(bins[0], bins[1])
	left.YMin, left.YMax = fr.peak.Domain(fr.settings.NoiseFloor)
	right.YMin, right.YMax = left.YMin, left.YMax

	metrics.Peak(fr.peak.Value())

	style := graphic.DefaultBarStyle
	style.Grid = pal.Axis

	fr.final.Clear()
	fr.final.PlotBars(left, bins[0], style, pal.PlotLeft)
	fr.final.PlotBars(right, bins[1], style, pal.PlotRight)
	fr.final.PlotAxes(left, pal.Axis, pal.Axis2)

	fr.snapshot()
	fr.updateMeter(dt)

	w := left.ScreenW
	readings := []struct {
		label string
		row   int
		value float64
		c     graphic.Color
	}{
		{"L", 80, fr.meter.Value(0), pal.PlotLeft},
		{"R", 40, fr.meter.Value(1), pal.PlotRight},
	}

	for _, r := range readings {
		length := abs(w-160-int(math.Abs(r.value)*MeterScale)) + 60

		fr.text(graphic.FaceMeter, r.label, 8, false, 20, r.row, pal.Audio)
		fr.final.Line(60, r.row+5, length, r.row+5, r.c)
		fr.text(graphic.FaceMeter, fmt.Sprintf("%+03.1f", r.value), 8, false, w-60, r.row, pal.Audio)
	}

	fr.text(graphic.FaceMeter, now.Format("Mon,  Jan  02  03:04 PM"), 9, false, 60, 10, pal.Audio)
	fr.text(graphic.FaceMeter, rateText(fr.ring.Rate()), 9, false, w-90, 10, pal.Audio)
}

func (fr *frame) waveform() {
	pal := fr.settings.Palette

	fr.snapshot()

	left, right := fr.axes()

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, buf := range fr.samples {
		for _, v := range buf {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	if !(hi > lo) {
		lo, hi = lo-1, hi+1
	}

	left.YMin, left.YMax = lo, hi
	right.YMin, right.YMax = lo, hi

	fr.final.Clear()
	fr.final.PlotLine(left, fr.samples[0], pal.PlotLeft)
	fr.final.PlotLine(right, fr.samples[1], pal.PlotRight)
}

// dialAngle maps a meter reading onto the dial sweep.
func dialAngle(db float64) float64 {
	db = math.Max(DialMin, math.Min(DialMax, db))
	return DialSweepStart + (DialSweepEnd-DialSweepStart)*(db-DialMin)/(DialMax-DialMin)
}

func (fr *frame) dial(dt float64) {
	pal := fr.settings.Palette

	fr.snapshot()
	fr.updateMeter(dt)

	w, h := fr.final.Width(), fr.final.Height()
	r := min(DialRadius, w/4-30)
	y0 := h / 2

	excess := pal.Axis2
	thick := 5
	if fr.meter.Value(0) >= 0 || fr.meter.Value(1) >= 0 || fr.meter.Clip() {
		excess.R = 255
		thick = 6
	}

	fr.final.Clear()
	fr.text(graphic.FaceMeter, "DIN PPM", 10, false, w/2-40, h-80, pal.Audio)

	for ch, x0 := range []int{w / 4, w - w/4} {
		for db := DialMin; db < 0; db += 5 {
			fr.final.Ray(x0, y0, r+3, r+10, dialAngle(db), 3, pal.Axis)
		}

		for db := DialMin; db < 0; db += 10 {
			fr.final.Ray(x0, y0, r+3, r+22, dialAngle(db), 3, pal.Axis)
		}

		x, y := graphic.PolarToCartesian(x0, y0, r+30, dialAngle(DialMin))
		fr.text(graphic.FaceMeter, "-50", 8, false, x-20, y-20, pal.Audio)
		x, y = graphic.PolarToCartesian(x0, y0, r+30, dialAngle(0))
		fr.text(graphic.FaceMeter, "0", 8, false, x+3, y+8, pal.Audio)
		x, y = graphic.PolarToCartesian(x0, y0, r+30, dialAngle(DialMax))
		fr.text(graphic.FaceMeter, "+5", 8, false, x-10, y, pal.Axis2)

		for db := 0.0; db <= DialMax; db += 5 {
			fr.final.Ray(x0, y0, r+10, r+22, dialAngle(db), 3, pal.Axis2)
		}

		fr.final.Arc(x0, y0, r, dialAngle(DialMin), dialAngle(DialMax), 2, pal.Axis)
		fr.final.Arc(x0, y0, r+10, dialAngle(0), dialAngle(DialMax), thick, excess)

		needle := pal.PlotLeft
		if ch == 1 {
			needle = pal.PlotRight
		}

		fr.final.Ray(x0, y0, max(0, r-160), r+20, dialAngle(fr.meter.Value(ch)), 5, needle)
	}

	fr.text(graphic.FaceMeter, fmt.Sprintf("%+03.0fdB", fr.meter.Value(0)), 8, false, 10, y0, pal.Audio)
	fr.text(graphic.FaceMeter, fmt.Sprintf("%+03.0fdB", fr.meter.Value(1)), 8, false, w-60, y0, pal.Audio)
	fr.text(graphic.FaceMeter, "dB", 16, true, 0, y0, pal.Audio)

	fr.text(graphic.FaceMeter, rateText(fr.ring.Rate()), 10, false, w/2-40, 80, pal.Audio)
}

func rateText(rate float64) string {
	return fmt.Sprintf("%4.1fkHz", rate/1000)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
