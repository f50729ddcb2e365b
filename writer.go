package tiff

// The TIFF format allows to choose the order of the different elements
// freely. The basic structure of a file written by this package is:
//
//   1. Header (8 bytes).
//   2. Image data.
//   3. Image File Directory (IFD).
//   4. "Pointer area" for IFD entry values longer than 4 bytes.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"sort"

	"github.com/pkg/errors"
	"seehuhn.de/go/pdf/lzw"
)

// CompressionType selects the compression scheme used by Encode. The
// encoder supports a deliberately smaller set than the decoder.
type CompressionType int

const (
	Uncompressed CompressionType = iota
	LZW
)

// Options are the encoding parameters.
type Options struct {
	Compression CompressionType
}

// We only write little-endian TIFF files.
var enc = binary.LittleEndian

// An ifdEntry is a single entry in an Image File Directory.
// A value of type dtRational is composed of two 32-bit values,
// thus data contains two uints (numerator and denominator) for a single
// number.
type ifdEntry struct {
	tag      int
	datatype int
	data     []uint32
}

func (e ifdEntry) putData(p []byte) {
	for _, d := range e.data {
		switch e.datatype {
		case dtByte, dtASCII:
			p[0] = byte(d)
			p = p[1:]
		case dtShort:
			enc.PutUint16(p, uint16(d))
			p = p[2:]
		case dtLong, dtRational:
			enc.PutUint32(p, d)
			p = p[4:]
		}
	}
}

type ifdList []ifdEntry

func (d ifdList) Len() int           { return len(d) }
func (d ifdList) Less(i, j int) bool { return d[i].tag < d[j].tag }
func (d ifdList) Swap(i, j int)      { d[i], d[j] = d[j], d[i] }

// Encode writes m to w as a single-strip, chunky, 8-bit RGB TIFF,
// optionally LZW-compressed. A nil opt means uncompressed.
func Encode(w io.Writer, m image.Image, opt *Options) error {
	compression := Uncompressed
	if opt != nil {
		compression = opt.Compression
	}
	var ctag uint32
	switch compression {
	case Uncompressed:
		ctag = cNone
	case LZW:
		ctag = cLZW
	default:
		return UnsupportedError(fmt.Sprintf("compression %d for encoding", compression))
	}

	b := m.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return FormatError(fmt.Sprintf("invalid dimensions %dx%d", width, height))
	}

	data := make([]byte, 0, width*height*3)
	row := make([]byte, width*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := 0
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := m.At(x, y).RGBA()
			row[i+0] = byte(r >> 8)
			row[i+1] = byte(g >> 8)
			row[i+2] = byte(bl >> 8)
			i += 3
		}
		data = append(data, row...)
	}

	if ctag == cLZW {
		// MSB-first with early change, the convention TIFF readers
		// expect.
		buf := &bytes.Buffer{}
		lw, err := lzw.NewWriter(buf, true)
		if err != nil {
			return errors.Wrap(err, "tiff: lzw writer")
		}
		if _, err := lw.Write(data); err != nil {
			return errors.Wrap(err, "tiff: lzw compress")
		}
		if err := lw.Close(); err != nil {
			return errors.Wrap(err, "tiff: lzw compress")
		}
		data = buf.Bytes()
	}

	imageLen := len(data)
	d := ifdList{
		{tImageWidth, dtLong, []uint32{uint32(width)}},
		{tImageLength, dtLong, []uint32{uint32(height)}},
		{tBitsPerSample, dtShort, []uint32{8, 8, 8}},
		{tCompression, dtShort, []uint32{ctag}},
		{tPhotometricInterpretation, dtShort, []uint32{pRGB}},
		{tStripOffsets, dtLong, []uint32{8}},
		{tSamplesPerPixel, dtShort, []uint32{3}},
		{tRowsPerStrip, dtLong, []uint32{uint32(height)}},
		{tStripByteCounts, dtLong, []uint32{uint32(imageLen)}},
		{tXResolution, dtRational, []uint32{72, 1}},
		{tYResolution, dtRational, []uint32{72, 1}},
		{tPlanarConfiguration, dtShort, []uint32{pcChunky}},
		{tResolutionUnit, dtShort, []uint32{resPerInch}},
	}

	if _, err := io.WriteString(w, leHeader); err != nil {
		return errors.Wrap(err, "tiff: writing header")
	}
	// The IFD directly follows the image data.
	if err := binary.Write(w, enc, uint32(8+imageLen)); err != nil {
		return errors.Wrap(err, "tiff: writing header")
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "tiff: writing image data")
	}
	return writeIFD(w, 8+imageLen, d)
}

func writeIFD(w io.Writer, ifdOffset int, d ifdList) error {
	var buf [ifdLen]byte
	// Space for the pointer area holding IFD entry data longer than
	// 4 bytes, placed right after the IFD itself.
	parea := make([]byte, 0, 1024)
	pstart := ifdOffset + 2 + ifdLen*len(d) + 4

	// The IFD has to be written with the tags in ascending order.
	sort.Sort(d)

	// Write the number of entries in this IFD.
	if err := binary.Write(w, enc, uint16(len(d))); err != nil {
		return errors.Wrap(err, "tiff: writing IFD")
	}
	for _, ent := range d {
		enc.PutUint16(buf[0:2], uint16(ent.tag))
		enc.PutUint16(buf[2:4], uint16(ent.datatype))
		count := uint32(len(ent.data))
		if ent.datatype == dtRational {
			count /= 2
		}
		enc.PutUint32(buf[4:8], count)
		if datalen := int(count * typeSize(uint16(ent.datatype))); datalen <= 4 {
			ent.putData(buf[8:12])
		} else {
			// The value goes out of line; the entry holds its offset.
			enc.PutUint32(buf[8:12], uint32(pstart+len(parea)))
			grown := make([]byte, len(parea)+datalen)
			copy(grown, parea)
			ent.putData(grown[len(parea):])
			parea = grown
		}
		if _, err := w.Write(buf[:]); err != nil {
			return errors.Wrap(err, "tiff: writing IFD")
		}
	}
	// The IFD ends with the offset of the next IFD in the file,
	// or zero if it is the last one (page 14).
	if err := binary.Write(w, enc, uint32(0)); err != nil {
		return errors.Wrap(err, "tiff: writing IFD")
	}
	_, err := w.Write(parea)
	return errors.Wrap(err, "tiff: writing IFD")
}
