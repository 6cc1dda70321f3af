package graphic

import "github.com/pkg/errors"

// ErrNoGlyph is returned by a Rasterizer that cannot render a rune.
var ErrNoGlyph = errors.New("glyph not available")

// Face selects one of the configured fonts.
type Face int

const (
	// FaceMeter is the font used for meter labels and readings.
	FaceMeter Face = iota
	// FaceText is the font used for the clock and captions.
	FaceText
)

func (f Face) String() string {
	switch f {
	case FaceMeter:
		return "meter"
	case FaceText:
		return "text"
	}

	return "unknown"
}

// Glyph is a rasterized coverage bitmap for one rune.
type Glyph struct {
	// Advance is the horizontal pen advance in pixels.
	Advance int
	Width   int
	Height  int
	// Pitch is the length of one coverage row.
	Pitch int
	// Top is the distance from the baseline to the first row.
	Top int
	// Coverage holds Height rows of Pitch bytes, top row first.
	Coverage []uint8
}

// Rasterizer renders single runes at a point size.
type Rasterizer interface {
	Rasterize(face Face, r rune, size float64) (*Glyph, error)
}

// MeasureText returns the total pen advance of text. Runes that fail to
// rasterize contribute nothing.
func MeasureText(rz Rasterizer, face Face, text string, size float64) int {
	width := 0
	for _, r := range text {
		g, err := rz.Rasterize(face, r, size)
		if err != nil {
			continue
		}

		width += g.Advance
	}

	return width
}

// Text draws text with its baseline at y. When center is set, x is ignored and
// the run is centred horizontally in the buffer. Coverage scales the rgb
// channels of c. Runes that fail to rasterize are skipped.
func (b *Buffer) Text(rz Rasterizer, face Face, text string, size float64, center bool, x, y int, c Color) {
	if center {
		x = b.w/2 - MeasureText(rz, face, text, size)/2
	}

	pen := 0
	for _, r := range text {
		g, err := rz.Rasterize(face, r, size)
		if err != nil {
			continue
		}

		b.glyph(g, x+pen, y, c)
		pen += g.Advance
	}
}

func (b *Buffer) glyph(g *Glyph, x, y int, c Color) {
	for dy := 0; dy < g.Height; dy++ {
		row := g.Coverage[dy*g.Pitch:]
		for dx := 0; dx < g.Width; dx++ {
			w := uint(row[dx])
			if w == 0 {
				continue
			}

			b.SetPixel(x+dx, y+g.Top-dy, Color{
				R: uint8(uint(c.R) * w >> 8),
				G: uint8(uint(c.G) * w >> 8),
				B: uint8(uint(c.B) * w >> 8),
				A: c.A,
			})
		}
	}
}
