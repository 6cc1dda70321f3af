// Package fbdev draws to a linux framebuffer device such as /dev/fb0.
package fbdev

import (
	"encoding/binary"

	"github.com/noriah/fbspectrum/framebuffer"
	"github.com/noriah/fbspectrum/graphic"
	"github.com/pkg/errors"
)

func init() {
	framebuffer.RegisterDevice("fbdev", Open)
}

// ioctl requests from linux/fb.h
const (
	getVScreenInfo = 0x4600
	getFScreenInfo = 0x4602
	waitForVSync   = 0x40044620
)

type bitfield struct {
	Offset   uint32
	Length   uint32
	MsbRight uint32
}

// varScreenInfo mirrors struct fb_var_screeninfo.
type varScreenInfo struct {
	XRes         uint32
	YRes         uint32
	XResVirtual  uint32
	YResVirtual  uint32
	XOffset      uint32
	YOffset      uint32
	BitsPerPixel uint32
	Grayscale    uint32
	Red          bitfield
	Green        bitfield
	Blue         bitfield
	Transp       bitfield
	NonStd       uint32
	Activate     uint32
	Height       uint32
	Width        uint32
	AccelFlags   uint32
	PixClock     uint32
	LeftMargin   uint32
	RightMargin  uint32
	UpperMargin  uint32
	LowerMargin  uint32
	HSyncLen     uint32
	VSyncLen     uint32
	Sync         uint32
	VMode        uint32
	Rotate       uint32
	Colorspace   uint32
	Reserved     [4]uint32
}

// fixScreenInfo mirrors struct fb_fix_screeninfo.
type fixScreenInfo struct {
	ID           [16]byte
	SmemStart    uintptr
	SmemLen      uint32
	Type         uint32
	TypeAux      uint32
	Visual       uint32
	XPanStep     uint16
	YPanStep     uint16
	YWrapStep    uint16
	LineLength   uint32
	MmioStart    uintptr
	MmioLen      uint32
	Accel        uint32
	Capabilities uint16
	Reserved     [2]uint16
}

func (bf bitfield) channel() graphic.Channel {
	return graphic.Channel{Offset: bf.Offset, Length: bf.Length}
}

// formatOf reads the pixel layout reported by the driver.
func formatOf(v varScreenInfo) graphic.PixelFormat {
	return graphic.PixelFormat{
		Red:   v.Red.channel(),
		Green: v.Green.channel(),
		Blue:  v.Blue.channel(),
		Alpha: v.Transp.channel(),
	}
}

// layout is where the visible screen lives in device memory.
type layout struct {
	width      int
	height     int
	lineLength int
	bpp        int // bytes per pixel
	xOffset    int
	yOffset    int
}

func newLayout(v varScreenInfo, f fixScreenInfo) (layout, error) {
	l := layout{
		width:      int(v.XRes),
		height:     int(v.YRes),
		lineLength: int(f.LineLength),
		bpp:        int(v.BitsPerPixel) / 8,
		xOffset:    int(v.XOffset),
		yOffset:    int(v.YOffset),
	}

	switch l.bpp {
	case 2, 3, 4:
	default:
		return l, errors.Errorf("unsupported depth of %d bits per pixel", v.BitsPerPixel)
	}

	if l.width == 0 || l.height == 0 {
		return l, errors.New("framebuffer reports no resolution")
	}

	return l, nil
}

func (l layout) size() int {
	return (l.yOffset + l.height) * l.lineLength
}

// blit copies b into mem, flipping rows so buffer row 0 lands on the bottom
// screen line.
func (l layout) blit(mem []byte, b *graphic.Buffer) {
	pix := b.Pixels()
	w := min(l.width, b.Width())
	h := min(l.height, b.Height())

	for row := 0; row < h; row++ {
		src := pix[(b.Height()-1-row)*b.Width():]
		off := (row+l.yOffset)*l.lineLength + l.xOffset*l.bpp

		if off+w*l.bpp > len(mem) {
			return
		}

		line := mem[off : off+w*l.bpp]

		switch l.bpp {
		case 4:
			for x := 0; x < w; x++ {
				binary.NativeEndian.PutUint32(line[x*4:], uint32(src[x]))
			}
		case 3:
			for x := 0; x < w; x++ {
				p := src[x]
				line[x*3] = byte(p)
				line[x*3+1] = byte(p >> 8)
				line[x*3+2] = byte(p >> 16)
			}
		case 2:
			for x := 0; x < w; x++ {
				binary.NativeEndian.PutUint16(line[x*2:], uint16(src[x]))
			}
		}
	}
}
