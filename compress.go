package tiff

import (
	"bufio"
	"bytes"
	stdlzw "compress/lzw"
	"compress/zlib"
	"fmt"
	"image/jpeg"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/image/ccitt"
	tifflzw "golang.org/x/image/tiff/lzw"
)

type byteReader interface {
	io.Reader
	io.ByteReader
}

// decompress returns the decoded payload of the strip or tile stored at
// [offset, offset+n) for a block of blockWidth×blockHeight pixels. For
// the JPEG schemes the result is already canonical BGRA; for every other
// scheme it is the raw sample data.
func (d *decoder) decompress(offset, n int64, blockWidth, blockHeight int) ([]byte, error) {
	switch d.compression {
	// According to TIFF 6.0, Compression does not have a default value,
	// but some tools interpret a missing Compression value as none so we
	// do the same.
	case cNone, 0:
		return d.payload(offset, n)
	case cCCITT, cG3, cG4:
		return d.decompressCCITT(offset, n, blockWidth, blockHeight)
	case cLZW:
		return d.decompressLZW(offset, n)
	case cDeflate, cDeflateOld:
		return d.decompressDeflate(offset, n, blockHeight)
	case cPackBits:
		return unpackBits(io.NewSectionReader(d.r, offset, n))
	case cJPEG, cJPEGOld:
		return d.decompressJPEG(offset, n, blockWidth, blockHeight)
	}
	return nil, UnsupportedError(fmt.Sprintf("compression value %d", d.compression))
}

// payload reads the raw block bytes, without copying when the underlying
// reader is our own buffer.
func (d *decoder) payload(offset, n int64) ([]byte, error) {
	if b, ok := d.r.(*buffer); ok {
		p, err := b.Slice(int(offset), int(n))
		return p, errors.Wrap(err, "tiff: reading block payload")
	}
	p := make([]byte, n)
	_, err := d.r.ReadAt(p, offset)
	return p, errors.Wrap(err, "tiff: reading block payload")
}

func (d *decoder) decompressCCITT(offset, n int64, blockWidth, blockHeight int) ([]byte, error) {
	p, err := d.payload(offset, n)
	if err != nil {
		return nil, err
	}
	if d.fillOrder == foLSB {
		// The decoder consumes MSB-first data; reorder each byte.
		p = reverseBits(append([]byte(nil), p...))
	}

	// CCITT's own default photometric, absent the tag, is WhiteIsZero.
	blackIs1 := d.uintVal(tPhotometricInterpretation, pWhiteIsZero) == pWhiteIsZero

	// K selects the Group 3 coding: 0 is pure 1-D, 2 is mixed 1-D/2-D
	// (T4Options bit 0). Group 4 is always K=-1, no EOL codes, with an
	// end-of-block.
	k := 0
	switch d.compression {
	case cG4:
		k = -1
	case cG3:
		if d.firstVal(tT4Options)&1 != 0 {
			k = 2
		}
	}
	sf := ccitt.Group3
	if k < 0 {
		sf = ccitt.Group4
	}

	r := ccitt.NewReader(bytes.NewReader(p), ccitt.MSB, sf, blockWidth, blockHeight,
		&ccitt.Options{Invert: blackIs1})
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "tiff: %s decode", compressionName(d.compression))
	}
	return out, nil
}

// decompressLZW handles the two dimensions real-world LZW encoders
// disagree on, bit order and "early change" code-width timing, by
// retrying in a fixed order and accepting the first attempt that decodes
// without error. The primary bit order follows the FillOrder tag.
func (d *decoder) decompressLZW(offset, n int64) ([]byte, error) {
	p, err := d.payload(offset, n)
	if err != nil {
		return nil, err
	}

	primaryMSB := d.fillOrder != foLSB
	attempts := []struct {
		msb         bool
		earlyChange bool
	}{
		{primaryMSB, true},
		{!primaryMSB, true},
		{primaryMSB, false},
		{!primaryMSB, false},
	}

	var lastErr error
	for _, a := range attempts {
		var r io.ReadCloser
		if a.earlyChange {
			order := tifflzw.MSB
			if !a.msb {
				order = tifflzw.LSB
			}
			r = tifflzw.NewReader(bytes.NewReader(p), order, 8)
		} else {
			order := stdlzw.MSB
			if !a.msb {
				order = stdlzw.LSB
			}
			r = stdlzw.NewReader(bytes.NewReader(p), order, 8)
		}
		out, err := io.ReadAll(r)
		r.Close()
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return nil, errors.Wrap(lastErr, "tiff: lzw: no bit-order/early-change combination decoded")
}

func (d *decoder) decompressDeflate(offset, n int64, blockHeight int) ([]byte, error) {
	r, err := zlib.NewReader(io.NewSectionReader(d.r, offset, n))
	if err != nil {
		return nil, errors.Wrap(err, "tiff: zlib header")
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "tiff: zlib inflate")
	}
	if d.firstVal(tPredictor) == prHorizontal {
		undoHorizontalPredictor(out, blockHeight)
	}
	return out, nil
}

// undoHorizontalPredictor reverses horizontal differencing in place,
// independently per row of rowBytes = len(p)/height: byte 0 of a row is
// kept, every later byte is the running sum mod 256. See page 64-65 of
// the TIFF spec.
func undoHorizontalPredictor(p []byte, height int) {
	if height <= 0 {
		return
	}
	rowBytes := len(p) / height
	for row := 0; row < height; row++ {
		off := row * rowBytes
		for c := 1; c < rowBytes; c++ {
			p[off+c] += p[off+c-1]
		}
	}
}

// unpackBits decodes the PackBits-compressed data in r and returns the
// uncompressed data.
//
// The PackBits compression format is described in section 9 (p. 42)
// of the TIFF spec. Truncated trailing runs are clamped to the available
// input rather than treated as an error.
func unpackBits(r io.Reader) ([]byte, error) {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}

	buf := make([]byte, 128)
	dst := make([]byte, 0, 1024)
	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF {
				return dst, nil
			}
			return nil, errors.Wrap(err, "tiff: packbits")
		}
		code := int(int8(b))
		switch {
		case code >= 0:
			n, err := io.ReadFull(br, buf[:code+1])
			dst = append(dst, buf[:n]...)
			if err != nil {
				if err == io.EOF || err == io.ErrUnexpectedEOF {
					return dst, nil
				}
				return nil, errors.Wrap(err, "tiff: packbits")
			}
		case code == -128:
			// No-op.
		default:
			if b, err = br.ReadByte(); err != nil {
				if err == io.EOF {
					return dst, nil
				}
				return nil, errors.Wrap(err, "tiff: packbits")
			}
			for j := 0; j < 1-code; j++ {
				dst = append(dst, b)
			}
		}
	}
}

func (d *decoder) decompressJPEG(offset, n int64, blockWidth, blockHeight int) ([]byte, error) {
	p, err := d.payload(offset, n)
	if err != nil {
		return nil, err
	}

	// The Huffman and quantization tables may be shared across blocks
	// through the JPEGTables tag (TIFF Technical Note #2).
	if tables := d.rawBytes(tJPEGTables); len(tables) > 4 {
		if p, err = spliceJPEGTables(tables, p); err != nil {
			return nil, err
		}
	}

	img, err := jpeg.Decode(bytes.NewReader(p))
	if err != nil {
		return nil, errors.Wrap(err, "tiff: jpeg decode")
	}
	b := img.Bounds()
	if b.Dx() != blockWidth || b.Dy() != blockHeight {
		return nil, FormatError(fmt.Sprintf("jpeg block is %dx%d, want %dx%d",
			b.Dx(), b.Dy(), blockWidth, blockHeight))
	}

	out := make([]byte, blockWidth*blockHeight*4)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out[i+0] = byte(bl >> 8)
			out[i+1] = byte(g >> 8)
			out[i+2] = byte(r >> 8)
			out[i+3] = 0xFF
			i += 4
		}
	}
	return out, nil
}

// spliceJPEGTables rebuilds a standalone JPEG stream from the shared
// tables and a block payload: a fresh SOI, the tables without their own
// SOI/EOI markers, the payload without its SOI/EOI markers, and a
// closing EOI.
func spliceJPEGTables(tables, body []byte) ([]byte, error) {
	if tables[0] != 0xFF || tables[1] != 0xD8 {
		return nil, FormatError("JPEGTables does not begin with an SOI marker")
	}
	if tables[len(tables)-2] != 0xFF || tables[len(tables)-1] != 0xD9 {
		return nil, FormatError("JPEGTables does not end with an EOI marker")
	}
	if len(body) >= 2 && body[0] == 0xFF && body[1] == 0xD8 {
		body = body[2:]
	}
	if len(body) >= 2 && body[len(body)-2] == 0xFF && body[len(body)-1] == 0xD9 {
		body = body[:len(body)-2]
	}

	out := make([]byte, 0, len(tables)+len(body)+4)
	out = append(out, 0xFF, 0xD8)
	out = append(out, tables[2:len(tables)-2]...)
	out = append(out, body...)
	out = append(out, 0xFF, 0xD9)
	return out, nil
}
