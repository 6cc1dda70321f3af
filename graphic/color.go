// Package graphic provides the pixel model, the off-screen pixel buffer and the
// drawing primitives used to render the visualizations.
//
// Buffers use a y-up coordinate system: row 0 is the bottom of the screen.
// Framebuffer devices flip rows when blitting.
package graphic

// Channel locates one colour channel inside a packed Pixel.
type Channel struct {
	Offset uint32 // bit offset of the least significant bit
	Length uint32 // number of bits, 0 if the channel is absent
}

// PixelFormat describes how the display packs a colour into a Pixel. It is
// read once from the device and never changes afterwards.
type PixelFormat struct {
	Red   Channel
	Green Channel
	Blue  Channel
	Alpha Channel
}

// FormatXRGB8888 is the layout of most 32 bit linux framebuffers.
var FormatXRGB8888 = PixelFormat{
	Red:   Channel{Offset: 16, Length: 8},
	Green: Channel{Offset: 8, Length: 8},
	Blue:  Channel{Offset: 0, Length: 8},
	Alpha: Channel{Offset: 24, Length: 8},
}

// FormatRGB565 is the common 16 bit layout.
var FormatRGB565 = PixelFormat{
	Red:   Channel{Offset: 11, Length: 5},
	Green: Channel{Offset: 5, Length: 6},
	Blue:  Channel{Offset: 0, Length: 5},
}

// Pixel is a colour in the display's native packing.
type Pixel uint32

// Color is a colour with four 8 bit channels.
type Color struct {
	R, G, B, A uint8
}

func (ch Channel) bits() uint32 {
	if ch.Length > 8 {
		return 8
	}

	return ch.Length
}

// Step returns the quantization step of the channel in 8 bit units.
func (ch Channel) Step() uint8 {
	if ch.Length == 0 {
		return 0
	}

	return 1 << (8 - ch.bits())
}

func (ch Channel) pack(v uint8) Pixel {
	l := ch.bits()
	if l == 0 {
		return 0
	}

	return Pixel(v>>(8-l)) << ch.Offset
}

func (ch Channel) unpack(p Pixel) uint8 {
	l := ch.bits()
	if l == 0 {
		return 0
	}

	mask := Pixel(1)<<l - 1

	return uint8((p>>ch.Offset)&mask) << (8 - l)
}

// Pack converts c to the native pixel.
func (f PixelFormat) Pack(c Color) Pixel {
	return f.Red.pack(c.R) |
		f.Green.pack(c.G) |
		f.Blue.pack(c.B) |
		f.Alpha.pack(c.A)
}

// Unpack converts a native pixel back to a Color. Channels narrower than 8
// bits come back with their low bits cleared.
func (f PixelFormat) Unpack(p Pixel) Color {
	return Color{
		R: f.Red.unpack(p),
		G: f.Green.unpack(p),
		B: f.Blue.unpack(p),
		A: f.Alpha.unpack(p),
	}
}

// Clamp truncates x into a channel value.
func Clamp(x float64) uint8 {
	switch {
	case x != x, x <= 0:
		return 0
	case x >= 255:
		return 255
	}

	return uint8(x)
}

// Blend mixes two colours, alpha*c1 + (1-alpha)*c2 per channel.
func Blend(c1, c2 Color, alpha float64) Color {
	mix := func(a, b uint8) uint8 {
		return Clamp(alpha*float64(a) + (1.0-alpha)*float64(b))
	}

	return Color{
		R: mix(c1.R, c2.R),
		G: mix(c1.G, c2.G),
		B: mix(c1.B, c2.B),
		A: mix(c1.A, c2.A),
	}
}

// Shade scales every channel by alpha. Results are clamped to 255.
func Shade(c Color, alpha float64) Color {
	return Color{
		R: Clamp(alpha * float64(c.R)),
		G: Clamp(alpha * float64(c.G)),
		B: Clamp(alpha * float64(c.B)),
		A: Clamp(alpha * float64(c.A)),
	}
}

// Luminance is the relative luminance of c on the 0-255 scale.
func Luminance(c Color) float64 {
	return 0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)
}

// Tinge tints c1 with c2, weighted by the luminance of c1.
//
// Each channel becomes (1-alpha)*c1 + y*alpha*c2 where y is the luminance of
// c1. This is not a cross-fade; bright pixels pick up far more of c2.
func Tinge(c1, c2 Color, alpha float64) Color {
	y := Luminance(c1)

	tint := func(a, b uint8) uint8 {
		return Clamp((1.0-alpha)*float64(a) + y*alpha*float64(b))
	}

	return Color{
		R: tint(c1.R, c2.R),
		G: tint(c1.G, c2.G),
		B: tint(c1.B, c2.B),
		A: tint(c1.A, c2.A),
	}
}

// Grayscale replaces the green and blue channels with the relative luminance.
// Red is left as is.
func Grayscale(c Color) Color {
	y := (0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)) / 255.0

	c.G = Clamp(y * 255)
	c.B = Clamp(y * 255)

	return c
}

// CompactColor is an 18 bit colour, 6 bits per channel, red in the high bits.
type CompactColor uint32

// Compact drops the low two bits of each channel of c. Alpha is discarded.
func Compact(c Color) CompactColor {
	return CompactColor(uint32(c.R>>2)<<12 | uint32(c.G>>2)<<6 | uint32(c.B>>2))
}

// Color expands cc back to 8 bits per channel.
func (cc CompactColor) Color() Color {
	return Color{
		R: uint8((cc>>12)&0x3F) << 2,
		G: uint8((cc>>6)&0x3F) << 2,
		B: uint8(cc&0x3F) << 2,
	}
}
