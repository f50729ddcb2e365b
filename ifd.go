package tiff

// Resources:
// https://github.com/golang/image/tree/master/tiff
// https://www.fileformat.info/format/tiff/egff.htm
// http://www.awaresystems.be/imaging/tiff.html
// https://www.loc.gov/preservation/digital/formats/content/tiff_tags.shtml

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// ifd holds the decoded entries of a file's first Image File Directory.
// It is built once per decode and read-only afterwards; all reads go
// through the typed accessors below, which encapsulate the variant
// unwrapping and the default-substitution policy in one place.
type ifd struct {
	r         io.ReaderAt
	byteOrder binary.ByteOrder
	features  map[uint16]tagValue
}

func newIFD(r io.ReaderAt) (*ifd, error) {
	d := &ifd{
		r:        r,
		features: make(map[uint16]tagValue),
	}

	p := make([]byte, 8)
	if _, err := d.r.ReadAt(p, 0); err != nil {
		return nil, errors.Wrap(err, "tiff: reading header")
	}
	switch string(p[0:4]) {
	case leHeader:
		d.byteOrder = binary.LittleEndian
	case beHeader:
		d.byteOrder = binary.BigEndian
	default:
		return nil, FormatError("malformed header")
	}

	ifdOffset := int64(d.byteOrder.Uint32(p[4:8]))
	if err := d.parseIFD(ifdOffset); err != nil {
		return nil, err
	}

	for _, tid := range []uint16{tImageWidth, tImageLength} {
		if _, ok := d.features[tid]; !ok {
			return nil, FormatError(tagname(tid) + " tag missing")
		}
	}
	return d, nil
}

func (d *ifd) parseIFD(offset int64) error {
	p := make([]byte, 2)

	// The first two bytes contain the number of entries (12 bytes each).
	if _, err := d.r.ReadAt(p, offset); err != nil {
		return errors.Wrap(err, "tiff: reading IFD entry count")
	}
	numItems := int(d.byteOrder.Uint16(p))

	// All IFD entries are read in one chunk.
	p = make([]byte, ifdLen*numItems)
	if _, err := d.r.ReadAt(p, offset+2); err != nil {
		return errors.Wrap(err, "tiff: reading IFD entries")
	}

	for i := 0; i < len(p); i += ifdLen {
		tid, v, err := decodeEntry(d.r, p[i:i+ifdLen], d.byteOrder)
		if err != nil {
			return err
		}
		d.features[tid] = v
	}
	return nil
}

// has reports whether the directory contains the given tag.
func (d *ifd) has(tid uint16) bool {
	_, ok := d.features[tid]
	return ok
}

// firstVal returns the first numeric value of the entry with the given
// tag, or 0 if the tag does not exist.
func (d *ifd) firstVal(tid uint16) uint {
	return d.uintVal(tid, 0)
}

// uintVal returns the first numeric value of the entry with the given
// tag, or def if the tag is absent or has no numeric view.
func (d *ifd) uintVal(tid uint16, def uint) uint {
	v, ok := d.features[tid]
	if !ok {
		return def
	}
	u := v.uints()
	if len(u) == 0 {
		return def
	}
	return u[0]
}

// uintSlice returns the numeric values of the entry with the given tag,
// or nil if the tag is absent or has no numeric view.
func (d *ifd) uintSlice(tid uint16) []uint {
	v, ok := d.features[tid]
	if !ok {
		return nil
	}
	return v.uints()
}

// rational interprets the entry with the given tag as an unsigned
// RATIONAL (numerator, denominator as two u32) and returns its value as
// a float64. Absent tags and zero denominators yield def.
func (d *ifd) rational(tid uint16, def float64) float64 {
	v, ok := d.features[tid]
	if !ok {
		return def
	}
	raw, ok := v.(vRaw)
	if !ok || len(raw) < 8 {
		return def
	}
	num := d.byteOrder.Uint32(raw[0:4])
	den := d.byteOrder.Uint32(raw[4:8])
	if den == 0 {
		return def
	}
	return float64(num) / float64(den)
}

// ascii returns the string value of the entry with the given tag, or ""
// if the tag is absent or not an ASCII field.
func (d *ifd) ascii(tid uint16) string {
	if v, ok := d.features[tid].(vASCII); ok {
		return string(v)
	}
	return ""
}

// rawBytes returns the undecoded payload of the entry with the given
// tag, or nil. Used for UNDEFINED-typed values such as JPEGTables.
func (d *ifd) rawBytes(tid uint16) []byte {
	switch v := d.features[tid].(type) {
	case vRaw:
		return []byte(v)
	case vBytes:
		return []byte(v)
	case vByte:
		return []byte{byte(v)}
	}
	return nil
}

// String implements Stringer, mainly for debugging.
func (d *ifd) String() string {
	buf := bytes.NewBufferString("== TIFF ==\n")
	for tid, v := range d.features {
		switch tid {
		case tCompression:
			fmt.Fprintf(buf, "%s: %s\n", tagname(tid), compressionName(d.firstVal(tid)))
		case tPhotometricInterpretation:
			fmt.Fprintf(buf, "%s: %s\n", tagname(tid), photometricName(d.firstVal(tid)))
		case tStripOffsets, tStripByteCounts, tTileOffsets, tTileByteCounts:
			fmt.Fprintf(buf, "%s: %d entries\n", tagname(tid), len(v.uints()))
		case tXResolution, tYResolution:
			fmt.Fprintf(buf, "%s: %v\n", tagname(tid), d.rational(tid, 0))
		default:
			fmt.Fprintf(buf, "%s: %v\n", tagname(tid), v)
		}
	}
	fmt.Fprintf(buf, "ByteOrder: %v\n", d.byteOrder)
	fmt.Fprintf(buf, "Bounds: %dx%d\n", d.firstVal(tImageWidth), d.firstVal(tImageLength))
	return buf.String()
}
