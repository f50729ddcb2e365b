package tiff

import (
	"fmt"
	"image"
	"image/color"
)

// Image is the canonical raster produced by Decode: a width×height
// top-down pixel grid held as interleaved B,G,R,A bytes, 4 bytes per
// pixel. It implements image.Image.
type Image struct {
	width  int
	height int
	pix    []byte
}

// newImage wraps pix, which must hold exactly width*height*4 bytes, or
// allocates a zeroed buffer when pix is nil. Dimensions must be positive.
func newImage(width, height int, pix []byte) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, FormatError(fmt.Sprintf("invalid dimensions %dx%d", width, height))
	}
	if pix == nil {
		pix = make([]byte, width*height*4)
	}
	if len(pix) != width*height*4 {
		return nil, InternalError(fmt.Sprintf("pixel buffer holds %d bytes, want %d", len(pix), width*height*4))
	}
	return &Image{width: width, height: height, pix: pix}, nil
}

// Width returns the raster width in pixels.
func (m *Image) Width() int { return m.width }

// Height returns the raster height in pixels.
func (m *Image) Height() int { return m.height }

// BGRA returns the backing pixel buffer in B,G,R,A order, row-major,
// top row first. The slice aliases the raster's storage.
func (m *Image) BGRA() []byte { return m.pix }

// ColorModel implements image.Image.
func (m *Image) ColorModel() color.Model { return color.NRGBAModel }

// Bounds implements image.Image.
func (m *Image) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }

// At implements image.Image. Out-of-bounds coordinates yield the zero
// color.
func (m *Image) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return color.NRGBA{}
	}
	i := (y*m.width + x) * 4
	return color.NRGBA{R: m.pix[i+2], G: m.pix[i+1], B: m.pix[i+0], A: m.pix[i+3]}
}

// SetNRGBA sets the pixel at (x, y). Out-of-bounds coordinates are
// ignored.
func (m *Image) SetNRGBA(x, y int, c color.NRGBA) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return
	}
	i := (y*m.width + x) * 4
	m.pix[i+0] = c.B
	m.pix[i+1] = c.G
	m.pix[i+2] = c.R
	m.pix[i+3] = c.A
}
