package tiff

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixEntry is one IFD entry of a hand-assembled test file. value holds
// the already-encoded value bytes; the builder decides inline vs
// out-of-line placement with the same 4-byte rule the codec uses.
type fixEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte
}

// buildFile assembles a little-endian TIFF stream: header, payload
// (pixel data) at offset 8, the IFD, then the out-of-line value area.
func buildFile(payload []byte, entries ...fixEntry) []byte {
	le := binary.LittleEndian
	buf := &bytes.Buffer{}
	buf.WriteString(leHeader)
	ifdOffset := uint32(8 + len(payload))
	binary.Write(buf, le, ifdOffset)
	buf.Write(payload)

	binary.Write(buf, le, uint16(len(entries)))
	extraStart := int(ifdOffset) + 2 + ifdLen*len(entries) + 4
	extra := &bytes.Buffer{}
	for _, e := range entries {
		binary.Write(buf, le, e.tag)
		binary.Write(buf, le, e.typ)
		binary.Write(buf, le, e.count)
		if len(e.value) <= 4 {
			var v [4]byte
			copy(v[:], e.value)
			buf.Write(v[:])
		} else {
			binary.Write(buf, le, uint32(extraStart+extra.Len()))
			extra.Write(e.value)
		}
	}
	binary.Write(buf, le, uint32(0))
	buf.Write(extra.Bytes())
	return buf.Bytes()
}

func leShorts(vs ...uint16) []byte {
	p := make([]byte, 2*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint16(p[2*i:], v)
	}
	return p
}

func leLongs(vs ...uint32) []byte {
	p := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(p[4*i:], v)
	}
	return p
}

func shortEntry(tag uint16, vs ...uint16) fixEntry {
	return fixEntry{tag, dtShort, uint32(len(vs)), leShorts(vs...)}
}

func longEntry(tag uint16, vs ...uint32) fixEntry {
	return fixEntry{tag, dtLong, uint32(len(vs)), leLongs(vs...)}
}

func rationalEntry(tag uint16, num, den uint32) fixEntry {
	return fixEntry{tag, dtRational, 1, leLongs(num, den)}
}

func TestIFDInlineAndOffsetValues(t *testing.T) {
	file := buildFile(nil,
		shortEntry(tImageWidth, 640),
		longEntry(tImageLength, 480),
		shortEntry(tBitsPerSample, 8, 8, 8), // 6 bytes, out of line
		rationalEntry(tXResolution, 300, 100),
	)

	d, err := newIFD(bytes.NewReader(file))
	require.NoError(t, err)

	assert.Equal(t, uint(640), d.firstVal(tImageWidth))
	assert.Equal(t, uint(480), d.firstVal(tImageLength))
	assert.Equal(t, []uint{8, 8, 8}, d.uintSlice(tBitsPerSample))
	assert.Equal(t, 3.0, d.rational(tXResolution, 1))
}

func TestIFDASCIIDropsTrailingNUL(t *testing.T) {
	const tImageDescription = 270
	file := buildFile(nil,
		shortEntry(tImageWidth, 1),
		shortEntry(tImageLength, 1),
		fixEntry{tImageDescription, dtASCII, 8, []byte("picture\x00")},
	)

	d, err := newIFD(bytes.NewReader(file))
	require.NoError(t, err)
	assert.Equal(t, "picture", d.ascii(tImageDescription))
}

func TestIFDUnknownFieldTypePreserved(t *testing.T) {
	file := buildFile(nil,
		shortEntry(tImageWidth, 1),
		shortEntry(tImageLength, 1),
		fixEntry{tJPEGTables, 7, 3, []byte{0xAA, 0xBB, 0xCC}},
		fixEntry{60000, 99, 2, []byte{0x01, 0x02}},
	)

	d, err := newIFD(bytes.NewReader(file))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, d.rawBytes(tJPEGTables))
	assert.Equal(t, []byte{0x01, 0x02}, d.rawBytes(60000))
}

func TestIFDMissingRequiredTag(t *testing.T) {
	file := buildFile(nil, shortEntry(tImageWidth, 4))

	_, err := newIFD(bytes.NewReader(file))
	require.Error(t, err)
	assert.IsType(t, FormatError(""), err)
	assert.Contains(t, err.Error(), "ImageLength")
}

func TestIFDOverflowingCount(t *testing.T) {
	// count*typeSize wraps a 32-bit product to 2; the entry must be
	// rejected, not decoded as 2^31+1 shorts from a 2-byte buffer.
	file := buildFile(nil,
		shortEntry(tImageWidth, 1),
		shortEntry(tImageLength, 1),
		fixEntry{tBitsPerSample, dtShort, 0x80000001, []byte{1, 2}},
	)

	_, err := newIFD(bytes.NewReader(file))
	require.Error(t, err)
	assert.IsType(t, FormatError(""), err)
}

func TestIFDMalformedHeader(t *testing.T) {
	_, err := newIFD(bytes.NewReader([]byte("GIF89a\x00\x00\x00\x00")))
	require.Error(t, err)
	assert.IsType(t, FormatError(""), err)
}

func TestIFDRationalDefaults(t *testing.T) {
	file := buildFile(nil,
		shortEntry(tImageWidth, 1),
		shortEntry(tImageLength, 1),
		rationalEntry(tYResolution, 42, 0), // zero denominator
	)

	d, err := newIFD(bytes.NewReader(file))
	require.NoError(t, err)
	assert.Equal(t, 1.0, d.rational(tXResolution, 1)) // absent
	assert.Equal(t, 1.0, d.rational(tYResolution, 1))
}

func TestBigEndianHeader(t *testing.T) {
	be := binary.BigEndian
	buf := &bytes.Buffer{}
	buf.WriteString(beHeader)
	binary.Write(buf, be, uint32(8))
	binary.Write(buf, be, uint16(2))
	for _, e := range []struct {
		tag uint16
		val uint16
	}{{tImageWidth, 12}, {tImageLength, 34}} {
		binary.Write(buf, be, e.tag)
		binary.Write(buf, be, uint16(dtShort))
		binary.Write(buf, be, uint32(1))
		binary.Write(buf, be, e.val)
		binary.Write(buf, be, uint16(0))
	}
	binary.Write(buf, be, uint32(0))

	d, err := newIFD(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint(12), d.firstVal(tImageWidth))
	assert.Equal(t, uint(34), d.firstVal(tImageLength))
}
