package graphic

import "math"

const (
	// TickSize is the length of an axis tick in pixels.
	TickSize = 10
	// DecadeTickRow is the screen row decade ticks are drawn from.
	DecadeTickRow = 110
)

// Axes maps a data domain onto a screen rectangle.
type Axes struct {
	ScreenX int
	ScreenY int
	ScreenW int
	ScreenH int

	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

// MapX maps a data x coordinate to a screen column.
func (ax Axes) MapX(v float64) float64 {
	return float64(ax.ScreenX) + float64(ax.ScreenW)*(v-ax.XMin)/(ax.XMax-ax.XMin)
}

// MapY maps a data y coordinate to a screen row.
func (ax Axes) MapY(v float64) float64 {
	return float64(ax.ScreenY) + float64(ax.ScreenH)*(v-ax.YMin)/(ax.YMax-ax.YMin)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// XTick draws a vertical tick at data coordinate x, rising from ScreenY.
func (b *Buffer) XTick(ax Axes, x float64, c Color) {
	sx := ax.MapX(x)
	if !finite(sx) {
		return
	}

	b.Line(int(sx), ax.ScreenY, int(sx), ax.ScreenY+TickSize, c)
}

// YTick draws a horizontal tick at data coordinate y, starting at ScreenX.
func (b *Buffer) YTick(ax Axes, y float64, c Color) {
	sy := ax.MapY(y)
	if !finite(sy) {
		return
	}

	b.Line(ax.ScreenX, int(sy), ax.ScreenX+TickSize, int(sy), c)
}

// PlotAxes draws logarithmic frequency ticks for the decades 10 to 90000.
// The top decade is drawn with c2.
func (b *Buffer) PlotAxes(ax Axes, c1, c2 Color) {
	ticks := ax
	ticks.ScreenY = DecadeTickRow

	for n := 1; n < 10; n++ {
		b.XTick(ticks, math.Log10(float64(n*10)), c1)
		b.XTick(ticks, math.Log10(float64(n*100)), c1)
		b.XTick(ticks, math.Log10(float64(n*1000)), c1)
		b.XTick(ticks, math.Log10(float64(n*10000)), c2)
	}
}

// BarStyle controls how PlotBars draws columns.
type BarStyle struct {
	// Baseline is the first row painted, relative to ScreenY.
	Baseline int
	// Thickness is the column width in pixels.
	Thickness int
	// GridSpacing paints every row divisible by it with Grid. Zero disables.
	GridSpacing int
	Grid        Color
}

// DefaultBarStyle is the look of the bar display.
var DefaultBarStyle = BarStyle{
	Baseline:    120,
	Thickness:   10,
	GridSpacing: 56,
}

// PlotBars draws one column per band power in data, starting from index 1.
//
// Heights are in decibels: the top row is ScreenY + ScreenH*(10*log10(v)-YMin)
// / (YMax-YMin). Non-positive values and columns that do not rise above
// ScreenY are skipped.
func (b *Buffer) PlotBars(ax Axes, data []int, style BarStyle, c Color) {
	n := len(data)

	for i := 1; i < n; i++ {
		if data[i] <= 0 {
			continue
		}

		top := ax.MapY(10.0 * math.Log10(float64(data[i])))
		if !finite(top) || top <= float64(ax.ScreenY) {
			continue
		}

		y := b.h
		if top < float64(b.h) {
			y = int(top)
		}

		if y <= ax.ScreenY {
			continue
		}

		x := ax.ScreenW*i/n + ax.ScreenX

		for dy := ax.ScreenY + style.Baseline; dy < y; dy++ {
			col := c
			if style.GridSpacing > 0 && dy%style.GridSpacing == 0 {
				col = style.Grid
			}

			for t := 0; t < style.Thickness; t++ {
				b.SetPixel(x+t, dy, col)
			}
		}
	}
}

// PlotLine draws one point per sample in data, starting from index 1.
func (b *Buffer) PlotLine(ax Axes, data []float64, c Color) {
	n := len(data)

	for i := 1; i < n; i++ {
		sy := ax.MapY(data[i])
		if !finite(sy) {
			continue
		}

		x := ax.ScreenW*i/n + ax.ScreenX
		b.SetPixel(x, int(sy), c)
	}
}
