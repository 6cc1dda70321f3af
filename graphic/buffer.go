package graphic

// Buffer is an off-screen, row-major grid of native pixels.
//
// The origin is the bottom-left corner. Its size is fixed at creation.
type Buffer struct {
	w, h   int
	format PixelFormat
	pix    []Pixel
}

// NewBuffer allocates a cleared w x h buffer.
func NewBuffer(w, h int, format PixelFormat) *Buffer {
	if w < 0 {
		w = 0
	}

	if h < 0 {
		h = 0
	}

	return &Buffer{
		w:      w,
		h:      h,
		format: format,
		pix:    make([]Pixel, w*h),
	}
}

// Width of the buffer in pixels.
func (b *Buffer) Width() int { return b.w }

// Height of the buffer in pixels.
func (b *Buffer) Height() int { return b.h }

// Format returns the pixel format the buffer packs colours with.
func (b *Buffer) Format() PixelFormat { return b.format }

// Pixels exposes the backing rows, bottom row first.
func (b *Buffer) Pixels() []Pixel { return b.pix }

// Release drops the pixel storage. The buffer is empty afterwards and every
// drawing operation on it becomes a no-op.
func (b *Buffer) Release() {
	b.pix = nil
	b.w = 0
	b.h = 0
}

// SetPixel writes c at (x, y). Coordinates outside the buffer are ignored.
func (b *Buffer) SetPixel(x, y int, c Color) {
	if uint(x) >= uint(b.w) || uint(y) >= uint(b.h) {
		return
	}

	b.pix[y*b.w+x] = b.format.Pack(c)
}

// At returns the colour at (x, y), or the zero colour when out of range.
func (b *Buffer) At(x, y int) Color {
	if uint(x) >= uint(b.w) || uint(y) >= uint(b.h) {
		return Color{}
	}

	return b.format.Unpack(b.pix[y*b.w+x])
}

// Clear sets every pixel to zero.
func (b *Buffer) Clear() {
	for i := range b.pix {
		b.pix[i] = 0
	}
}

// Fill sets every pixel to c.
func (b *Buffer) Fill(c Color) {
	p := b.format.Pack(c)
	for i := range b.pix {
		b.pix[i] = p
	}
}

// Copy overwrites b with the contents of src. Buffers of different size are
// copied over their common prefix.
func (b *Buffer) Copy(src *Buffer) {
	copy(b.pix, src.pix)
}

// Blend mixes src into b: alpha*b + (1-alpha)*src, per pixel. An alpha of
// 1 leaves b unchanged.
func (b *Buffer) Blend(src *Buffer, alpha float64) {
	n := min(len(b.pix), len(src.pix))
	for i := 0; i < n; i++ {
		b.pix[i] = b.format.Pack(Blend(
			b.format.Unpack(b.pix[i]),
			src.format.Unpack(src.pix[i]),
			alpha))
	}
}

// Shade scales every pixel of b by alpha.
func (b *Buffer) Shade(alpha float64) {
	for i, p := range b.pix {
		b.pix[i] = b.format.Pack(Shade(b.format.Unpack(p), alpha))
	}
}

// Tinge tints every pixel of b with c.
func (b *Buffer) Tinge(c Color, alpha float64) {
	for i, p := range b.pix {
		b.pix[i] = b.format.Pack(Tinge(b.format.Unpack(p), c, alpha))
	}
}

// Grayscale converts every pixel of b with Grayscale.
func (b *Buffer) Grayscale() {
	for i, p := range b.pix {
		b.pix[i] = b.format.Pack(Grayscale(b.format.Unpack(p)))
	}
}

// Superpose copies every non-zero pixel of src over b.
func (b *Buffer) Superpose(src *Buffer) {
	n := min(len(b.pix), len(src.pix))
	for i := 0; i < n; i++ {
		if src.pix[i] != 0 {
			b.pix[i] = src.pix[i]
		}
	}
}
