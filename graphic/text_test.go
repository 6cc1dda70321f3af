package graphic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// blockRasterizer renders every rune except 'x' as a 2x2 block with the
// bottom right pixel uncovered.
type blockRasterizer struct {
	calls int
}

func (br *blockRasterizer) Rasterize(face Face, r rune, size float64) (*Glyph, error) {
	br.calls++

	if r == 'x' {
		return nil, ErrNoGlyph
	}

	return &Glyph{
		Advance:  3,
		Width:    2,
		Height:   2,
		Pitch:    2,
		Top:      1,
		Coverage: []uint8{255, 255, 255, 0},
	}, nil
}

func TestMeasureText(t *testing.T) {
	rz := &blockRasterizer{}

	assert.Equal(t, 6, MeasureText(rz, FaceText, "ab", 10))
	assert.Equal(t, 6, MeasureText(rz, FaceText, "axb", 10))
	assert.Zero(t, MeasureText(rz, FaceText, "", 10))
}

func TestText(t *testing.T) {
	b := newTestBuffer(20, 10)
	c := Color{200, 100, 0, 255}

	b.Text(&blockRasterizer{}, FaceMeter, "ab", 10, false, 2, 3, c)

	scaled := Color{199, 99, 0, 255}

	// first glyph, top row above the baseline
	assert.Equal(t, scaled, b.At(2, 4))
	assert.Equal(t, scaled, b.At(3, 4))
	assert.Equal(t, scaled, b.At(2, 3))
	assert.Equal(t, Color{}, b.At(3, 3))

	// second glyph after one advance
	assert.Equal(t, scaled, b.At(5, 4))
	assert.Equal(t, 6, countLit(b))
}

func TestTextSkipsMissingGlyphs(t *testing.T) {
	b := newTestBuffer(20, 10)
	b.Text(&blockRasterizer{}, FaceText, "axb", 10, false, 0, 3, white)

	assert.Equal(t, Color{255, 255, 255, 255}.R-1, b.At(3, 4).R)
	assert.Equal(t, 6, countLit(b))
}

func TestTextCentered(t *testing.T) {
	b := newTestBuffer(20, 10)
	b.Text(&blockRasterizer{}, FaceText, "ab", 10, true, 0, 3, white)

	// width 6 in a 20 pixel buffer starts at column 7
	assert.NotEqual(t, Color{}, b.At(7, 4))
	assert.Equal(t, Color{}, b.At(6, 4))
}

func TestTextClipped(t *testing.T) {
	b := newTestBuffer(4, 4)

	assert.NotPanics(t, func() {
		b.Text(&blockRasterizer{}, FaceText, "aaaaaa", 10, false, -5, 3, white)
	})
}
