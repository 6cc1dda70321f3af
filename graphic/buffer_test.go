package graphic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	white = Color{255, 255, 255, 255}
	red   = Color{R: 255, A: 255}
)

func newTestBuffer(w, h int) *Buffer {
	return NewBuffer(w, h, FormatXRGB8888)
}

func countLit(b *Buffer) int {
	n := 0
	for _, p := range b.Pixels() {
		if p != 0 {
			n++
		}
	}

	return n
}

func TestNewBuffer(t *testing.T) {
	b := newTestBuffer(16, 8)

	assert.Equal(t, 16, b.Width())
	assert.Equal(t, 8, b.Height())
	require.Len(t, b.Pixels(), 128)
	assert.Zero(t, countLit(b))
}

func TestSetPixelBounds(t *testing.T) {
	b := newTestBuffer(4, 4)

	for _, pt := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 4}, {100, 100}, {-100, 2}} {
		b.SetPixel(pt[0], pt[1], white)
	}

	assert.Zero(t, countLit(b))

	b.SetPixel(3, 2, red)
	assert.Equal(t, red, b.At(3, 2))
	assert.Equal(t, FormatXRGB8888.Pack(red), b.Pixels()[2*4+3])
	assert.Equal(t, Color{}, b.At(9, 9))
}

func TestFillClear(t *testing.T) {
	b := newTestBuffer(3, 3)

	b.Fill(red)
	assert.Equal(t, 9, countLit(b))
	assert.Equal(t, red, b.At(1, 1))

	b.Clear()
	assert.Zero(t, countLit(b))
}

func TestCopy(t *testing.T) {
	src := newTestBuffer(3, 3)
	src.SetPixel(1, 2, red)

	dst := newTestBuffer(3, 3)
	dst.Fill(white)
	dst.Copy(src)

	assert.Equal(t, red, dst.At(1, 2))
	assert.Equal(t, Color{}, dst.At(0, 0))
}

func assertColorNear(t *testing.T, want, got Color) {
	t.Helper()

	assert.InDelta(t, want.R, got.R, 1, "R")
	assert.InDelta(t, want.G, got.G, 1, "G")
	assert.InDelta(t, want.B, got.B, 1, "B")
	assert.InDelta(t, want.A, got.A, 1, "A")
}

func TestBufferBlend(t *testing.T) {
	first := Color{200, 100, 50, 255}
	second := Color{10, 20, 30, 40}

	blended := func(alpha float64) Color {
		dst := newTestBuffer(2, 2)
		dst.Fill(first)

		src := newTestBuffer(2, 2)
		src.Fill(second)

		dst.Blend(src, alpha)
		return dst.At(1, 1)
	}

	assertColorNear(t, first, blended(1))
	assertColorNear(t, second, blended(0))
	assertColorNear(t, Color{105, 60, 40, 147}, blended(0.5))
}

func TestBufferBlendRetainsDestination(t *testing.T) {
	final := newTestBuffer(2, 2)
	final.Fill(Color{200, 200, 200, 255})

	// an empty overlay only fades the destination a little
	final.Blend(newTestBuffer(2, 2), 0.98)
	assertColorNear(t, Color{196, 196, 196, 249}, final.At(0, 0))
}

func TestBufferShadeTinge(t *testing.T) {
	b := newTestBuffer(2, 1)
	b.Fill(Color{100, 100, 100, 100})

	b.Shade(0.5)
	assert.Equal(t, Color{50, 50, 50, 50}, b.At(0, 0))

	b.Tinge(Color{}, 0)
	assert.Equal(t, Color{50, 50, 50, 50}, b.At(1, 0))

	b.Grayscale()
	assert.Equal(t, uint8(50), b.At(1, 0).R)
}

func TestSuperpose(t *testing.T) {
	dst := newTestBuffer(2, 1)
	dst.Fill(white)

	src := newTestBuffer(2, 1)
	src.SetPixel(1, 0, red)

	dst.Superpose(src)

	assert.Equal(t, white, dst.At(0, 0))
	assert.Equal(t, red, dst.At(1, 0))
}

func TestRelease(t *testing.T) {
	b := newTestBuffer(2, 2)
	b.Release()

	assert.NotPanics(t, func() {
		b.SetPixel(0, 0, white)
		b.Fill(white)
		b.Line(0, 0, 1, 1, white)
	})
	assert.Zero(t, b.Width())
}
