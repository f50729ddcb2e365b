package tiff

import (
	"fmt"
	"image"
	"image/color"
	"io"
)

type decoder struct {
	*ifd
	width  int
	height int

	compression uint
	photometric uint
	spp         uint
	bits        []uint
	planar      uint
	fillOrder   uint
}

func newDecoder(r io.Reader) (*decoder, error) {
	ifd, err := newIFD(newReaderAt(r))
	if err != nil {
		return nil, err
	}

	d := &decoder{ifd: ifd}
	d.width = int(d.firstVal(tImageWidth))
	d.height = int(d.firstVal(tImageLength))
	if d.width <= 0 || d.height <= 0 {
		return nil, FormatError(fmt.Sprintf("invalid dimensions %dx%d", d.width, d.height))
	}

	// Optional tags and their documented defaults.
	d.compression = d.uintVal(tCompression, cNone)
	d.photometric = d.uintVal(tPhotometricInterpretation, pBlackIsZero)
	d.spp = d.uintVal(tSamplesPerPixel, 1)
	d.planar = d.uintVal(tPlanarConfiguration, pcChunky)
	d.fillOrder = d.uintVal(tFillOrder, foMSB)
	d.bits = d.uintSlice(tBitsPerSample)
	if len(d.bits) == 0 {
		d.bits = []uint{1}
	}
	return d, nil
}

// bytesPerPixel is the storage size of one pixel in the flat sample
// buffer, rounded up to whole bytes.
func (d *decoder) bytesPerPixel() int {
	return int((d.bits[0]*d.spp + 7) / 8)
}

// jpegCompressed reports whether blocks decode straight to BGRA,
// bypassing the pixel format converter.
func (d *decoder) jpegCompressed() bool {
	return d.compression == cJPEG || d.compression == cJPEGOld
}

// Decode reads a TIFF image from r and returns its first page as a BGRA
// raster.
func Decode(r io.Reader) (*Image, error) {
	d, err := newDecoder(r)
	if err != nil {
		return nil, err
	}

	var samples []byte
	switch {
	case d.has(tStripOffsets):
		samples, err = d.readStrips()
	case d.has(tTileOffsets):
		samples, err = d.readTiles()
	default:
		return nil, FormatError("strip and tile layout tags both missing")
	}
	if err != nil {
		return nil, err
	}

	var pix []byte
	if d.jpegCompressed() {
		// JPEG blocks arrive as canonical BGRA already.
		if len(samples) != d.width*d.height*4 {
			return nil, FormatError(fmt.Sprintf("jpeg data decodes to %d bytes, want %d",
				len(samples), d.width*d.height*4))
		}
		pix = samples
	} else {
		if pix, err = d.toBGRA(samples); err != nil {
			return nil, err
		}
	}

	m, err := newImage(d.width, d.height, pix)
	if err != nil {
		return nil, err
	}

	xRes := d.rational(tXResolution, 1)
	yRes := d.rational(tYResolution, 1)
	if xRes == 0 {
		xRes = 1
	}
	if yRes == 0 {
		yRes = 1
	}
	return resampleAspect(m, xRes, yRes), nil
}

// blockOrder is the index ordering of a tile grid. Genuine tile sets are
// addressed column by column; strips placed through the tile tags (a
// non-conformant but observed hybrid) are addressed row by row. The two
// orderings are each the de-facto convention of their source layout and
// are kept distinct deliberately.
type blockOrder int

const (
	rowMajor blockOrder = iota
	columnMajor
)

func (d *decoder) readStrips() ([]byte, error) {
	offsets := d.uintSlice(tStripOffsets)
	counts := d.uintSlice(tStripByteCounts)
	if len(offsets) != len(counts) {
		return nil, FormatError(fmt.Sprintf("%d strip offsets but %d byte counts",
			len(offsets), len(counts)))
	}

	// Hybrid layout: strips addressed by the tile grid tags.
	if d.has(tTileWidth) && d.has(tTileLength) {
		return d.placeBlocks(offsets, counts, rowMajor)
	}

	if d.compression == cNone || d.compression == 0 {
		// Uncompressed strips concatenate verbatim; the total length is
		// known up front.
		total := 0
		for _, n := range counts {
			total += int(n)
		}
		out := make([]byte, 0, total)
		for i := range offsets {
			p, err := d.payload(int64(offsets[i]), int64(counts[i]))
			if err != nil {
				return nil, err
			}
			out = append(out, p...)
		}
		return out, nil
	}

	rps := int(d.uintVal(tRowsPerStrip, 0))
	if rps == 0 || uint(rps) == uint(rowsPerStripInfinity) || rps >= d.height {
		// Sentinel or absent: the whole image is one strip.
		rps = d.height
	}

	var out []byte
	for i := range offsets {
		h := minInt(rps, d.height-i*rps)
		if h <= 0 {
			return nil, FormatError("more strips than image rows")
		}
		p, err := d.decompress(int64(offsets[i]), int64(counts[i]), d.width, h)
		if err != nil {
			return nil, err
		}
		out = append(out, p...)
	}
	return out, nil
}

func (d *decoder) readTiles() ([]byte, error) {
	offsets := d.uintSlice(tTileOffsets)
	counts := d.uintSlice(tTileByteCounts)
	if len(offsets) != len(counts) {
		return nil, FormatError(fmt.Sprintf("%d tile offsets but %d byte counts",
			len(offsets), len(counts)))
	}
	if !d.has(tTileWidth) || !d.has(tTileLength) {
		return nil, FormatError("tile geometry tags missing")
	}
	return d.placeBlocks(offsets, counts, columnMajor)
}

// placeBlocks assembles the full sample buffer from a grid of
// independently stored blocks. Edge blocks are stored at full block size
// but only the sub-rectangle inside the image boundary is copied.
func (d *decoder) placeBlocks(offsets, counts []uint, order blockOrder) ([]byte, error) {
	tileWidth := int(d.firstVal(tTileWidth))
	tileLength := int(d.firstVal(tTileLength))
	if tileWidth <= 0 || tileLength <= 0 {
		return nil, FormatError("invalid tile geometry")
	}

	across := (d.width + tileWidth - 1) / tileWidth
	down := (d.height + tileLength - 1) / tileLength
	if n := across * down; len(offsets) < n {
		return nil, FormatError(fmt.Sprintf("%d blocks for a %dx%d tile grid",
			len(offsets), across, down))
	}

	bypp := d.bytesPerPixel()
	if d.jpegCompressed() {
		bypp = 4
	}
	out := make([]byte, d.width*d.height*bypp)
	srcRow := tileWidth * bypp

	for i := 0; i < across*down; i++ {
		var tileX, tileY int
		if order == rowMajor {
			tileX, tileY = i%across, i/across
		} else {
			tileX, tileY = i/down, i%down
		}

		p, err := d.decompress(int64(offsets[i]), int64(counts[i]), tileWidth, tileLength)
		if err != nil {
			return nil, err
		}

		copyW := minInt(tileWidth, d.width-tileX*tileWidth)
		copyH := minInt(tileLength, d.height-tileY*tileLength)
		if len(p) < (copyH-1)*srcRow+copyW*bypp {
			return nil, FormatError(fmt.Sprintf("block %d decodes to %d bytes, want at least %d",
				i, len(p), (copyH-1)*srcRow+copyW*bypp))
		}
		for row := 0; row < copyH; row++ {
			dst := ((tileY*tileLength+row)*d.width + tileX*tileWidth) * bypp
			copy(out[dst:dst+copyW*bypp], p[row*srcRow:])
		}
	}
	return out, nil
}

// DecodeConfig returns the color model and dimensions of a TIFF image
// without decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	d, err := newDecoder(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      d.width,
		Height:     d.height,
	}, nil
}

func decode(r io.Reader) (image.Image, error) {
	return Decode(r)
}

func init() {
	image.RegisterFormat("tiff", leHeader, decode, DecodeConfig)
	image.RegisterFormat("tiff", beHeader, decode, DecodeConfig)
}
