// Package glyph rasterizes text with golang.org/x/image fonts.
package glyph

import (
	"os"

	"github.com/noriah/fbspectrum/graphic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DPI used when scaling point sizes to pixels.
const DPI = 96

type faceKey struct {
	face graphic.Face
	size float64
}

type glyphKey struct {
	faceKey
	r rune
}

// Rasterizer implements graphic.Rasterizer on top of TrueType/OpenType fonts.
// A face without a font file falls back to basicfont.Face7x13, which has a
// single size.
//
// A Rasterizer is not safe for concurrent use.
type Rasterizer struct {
	fonts  map[graphic.Face]*opentype.Font
	faces  map[faceKey]font.Face
	glyphs map[glyphKey]*graphic.Glyph
	log    zerolog.Logger
}

// Load reads the font files for both faces. An empty path selects the
// built-in bitmap font.
func Load(textFont, meterFont string, log zerolog.Logger) (*Rasterizer, error) {
	rz := &Rasterizer{
		fonts:  make(map[graphic.Face]*opentype.Font),
		faces:  make(map[faceKey]font.Face),
		glyphs: make(map[glyphKey]*graphic.Glyph),
		log:    log,
	}

	for face, path := range map[graphic.Face]string{
		graphic.FaceText:  textFont,
		graphic.FaceMeter: meterFont,
	} {
		if path == "" {
			continue
		}

		f, err := parseFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "%s font", face)
		}

		rz.fonts[face] = f
	}

	return rz, nil
}

func parseFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read font")
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	return f, nil
}

func (rz *Rasterizer) face(key faceKey) (font.Face, error) {
	if ff, ok := rz.faces[key]; ok {
		return ff, nil
	}

	f, ok := rz.fonts[key.face]
	if !ok {
		return basicfont.Face7x13, nil
	}

	ff, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    key.size,
		DPI:     DPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "%s face at %.1fpt", key.face, key.size)
	}

	rz.faces[key] = ff

	return ff, nil
}

// Rasterize returns the coverage bitmap of r. Results are cached.
func (rz *Rasterizer) Rasterize(face graphic.Face, r rune, size float64) (*graphic.Glyph, error) {
	key := glyphKey{faceKey{face, size}, r}
	if g, ok := rz.glyphs[key]; ok {
		if g == nil {
			return nil, graphic.ErrNoGlyph
		}

		return g, nil
	}

	ff, err := rz.face(key.faceKey)
	if err != nil {
		return nil, err
	}

	dr, mask, maskp, advance, ok := ff.Glyph(fixed.Point26_6{}, r)
	if !ok {
		rz.log.Warn().Str("face", face.String()).Str("rune", string(r)).Msg("no glyph")
		rz.glyphs[key] = nil
		return nil, graphic.ErrNoGlyph
	}

	g := &graphic.Glyph{
		Advance:  advance.Floor(),
		Width:    dr.Dx(),
		Height:   dr.Dy(),
		Pitch:    dr.Dx(),
		Top:      -dr.Min.Y,
		Coverage: make([]uint8, dr.Dx()*dr.Dy()),
	}

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			_, _, _, a := mask.At(maskp.X+x, maskp.Y+y).RGBA()
			g.Coverage[y*g.Pitch+x] = uint8(a >> 8)
		}
	}

	rz.glyphs[key] = g

	return g, nil
}

// Close releases the scaled faces.
func (rz *Rasterizer) Close() error {
	var first error
	for key, ff := range rz.faces {
		if err := ff.Close(); err != nil && first == nil {
			first = err
		}

		delete(rz.faces, key)
	}

	rz.glyphs = make(map[glyphKey]*graphic.Glyph)

	return first
}
