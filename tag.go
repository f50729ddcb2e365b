package tiff

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// maxTagData caps the byte size of a single entry's value. Real
// directories stay far below this; a larger product of count and type
// size is a corrupt entry, not a big one.
const maxTagData = 1 << 24

// tagValue is the decoded value of one IFD entry. It is a closed variant:
// one concrete type per TIFF field type, plus vRaw for RATIONAL payloads
// and unknown field types. Every consumption site type-switches over the
// full set and treats the default arm as "unsupported".
type tagValue interface {
	// uints returns the numeric view of the value, or nil for values
	// that have none (ASCII, raw bytes).
	uints() []uint
}

type (
	vByte   byte
	vBytes  []byte
	vASCII  string
	vShort  uint16
	vShorts []uint16
	vLong   uint32
	vLongs  []uint32
	vRaw    []byte
)

func (v vByte) uints() []uint  { return []uint{uint(v)} }
func (v vShort) uints() []uint { return []uint{uint(v)} }
func (v vLong) uints() []uint  { return []uint{uint(v)} }

func (v vBytes) uints() []uint {
	u := make([]uint, len(v))
	for i, b := range v {
		u[i] = uint(b)
	}
	return u
}

func (v vShorts) uints() []uint {
	u := make([]uint, len(v))
	for i, s := range v {
		u[i] = uint(s)
	}
	return u
}

func (v vLongs) uints() []uint {
	u := make([]uint, len(v))
	for i, l := range v {
		u[i] = uint(l)
	}
	return u
}

func (v vASCII) uints() []uint { return nil }
func (v vRaw) uints() []uint   { return nil }

// decodeEntry decodes the 12-byte IFD entry in p:
// {tag u16, type u16, count u32, value-or-offset u32}.
// If count*typeSize fits in four bytes the value is stored inline in the
// last field, otherwise that field is an absolute offset to the value,
// which is fetched through r.
func decodeEntry(r io.ReaderAt, p []byte, order binary.ByteOrder) (uint16, tagValue, error) {
	tid := order.Uint16(p[0:2])
	datatype := order.Uint16(p[2:4])
	count := order.Uint32(p[4:8])

	// Computed in 64 bits: a count near 2^32 wraps a u32 product small
	// enough to land on the inline path with a short buffer.
	datalen64 := uint64(typeSize(datatype)) * uint64(count)
	if datalen64 > maxTagData {
		return tid, nil, FormatError(fmt.Sprintf("tag %d claims %d value bytes", tid, datalen64))
	}

	var raw []byte
	if datalen := uint32(datalen64); datalen > 4 {
		// The entry holds a pointer to the real value.
		raw = make([]byte, datalen)
		if _, err := r.ReadAt(raw, int64(order.Uint32(p[8:12]))); err != nil {
			return tid, nil, errors.Wrapf(err, "tiff: tag %d: reading %d value bytes", tid, datalen)
		}
	} else {
		raw = make([]byte, datalen)
		copy(raw, p[8:8+datalen])
	}

	switch datatype {
	case dtByte:
		if count == 1 {
			return tid, vByte(raw[0]), nil
		}
		return tid, vBytes(raw), nil
	case dtASCII:
		// The count includes the trailing NUL.
		if count == 0 {
			return tid, vASCII(""), nil
		}
		return tid, vASCII(raw[:count-1]), nil
	case dtShort:
		if count == 1 {
			return tid, vShort(order.Uint16(raw)), nil
		}
		u := make([]uint16, count)
		for i := range u {
			u[i] = order.Uint16(raw[2*i:])
		}
		return tid, vShorts(u), nil
	case dtLong:
		if count == 1 {
			return tid, vLong(order.Uint32(raw)), nil
		}
		u := make([]uint32, count)
		for i := range u {
			u[i] = order.Uint32(raw[4*i:])
		}
		return tid, vLongs(u), nil
	}
	// RATIONAL values are kept raw and interpreted lazily where a ratio
	// is meaningful (resolution tags). Unknown field types are preserved
	// raw as well instead of failing the parse.
	return tid, vRaw(raw), nil
}
