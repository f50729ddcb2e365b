package tiff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/pdf/lzw"
)

func TestUnpackBitsLiteralRuns(t *testing.T) {
	// Literal-only input comes back as the concatenated payloads.
	src := []byte{0x02, 'A', 'B', 'C', 0x01, 'D', 'E'}
	out, err := unpackBits(bytes.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []byte("ABCDE"), out)
}

func TestUnpackBitsReplicate(t *testing.T) {
	// 0x02 = copy 3 literals, 0xFE = -2 = replicate next byte 3 times.
	src := []byte{0x02, 'A', 'B', 'C', 0xFE, 'D'}
	out, err := unpackBits(bytes.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []byte("ABCDDD"), out)
}

func TestUnpackBitsNoOpAndTruncation(t *testing.T) {
	// 0x80 (-128) is a no-op.
	out, err := unpackBits(bytes.NewReader([]byte{0x80, 0x00, 'X'}))
	require.NoError(t, err)
	assert.Equal(t, []byte("X"), out)

	// A truncated literal run is clamped to the available input.
	out, err = unpackBits(bytes.NewReader([]byte{0x05, 'A', 'B'}))
	require.NoError(t, err)
	assert.Equal(t, []byte("AB"), out)

	// A truncated replicate run yields what was decoded so far.
	out, err = unpackBits(bytes.NewReader([]byte{0x01, 'A', 'B', 0xFD}))
	require.NoError(t, err)
	assert.Equal(t, []byte("AB"), out)
}

// applyHorizontalPredictor is the encode-side transform, used only to
// build test data.
func applyHorizontalPredictor(p []byte, height int) []byte {
	out := append([]byte(nil), p...)
	rowBytes := len(p) / height
	for row := 0; row < height; row++ {
		off := row * rowBytes
		for c := rowBytes - 1; c > 0; c-- {
			out[off+c] -= out[off+c-1]
		}
	}
	return out
}

func TestHorizontalPredictorRoundTrip(t *testing.T) {
	// 2x2 single-channel rows, differenced by hand per row.
	src := []byte{10, 20, 30, 40}
	diff := applyHorizontalPredictor(src, 2)
	assert.Equal(t, []byte{10, 10, 30, 10}, diff)

	undoHorizontalPredictor(diff, 2)
	assert.Equal(t, src, diff)

	// Rows are independent: a single row differences the same way.
	row := []byte{200, 100, 50}
	diff = applyHorizontalPredictor(row, 1)
	undoHorizontalPredictor(diff, 1)
	assert.Equal(t, row, diff)
}

func TestReverseBits(t *testing.T) {
	p := []byte{0x80, 0x01, 0xF0, 0xAA}
	assert.Equal(t, []byte{0x01, 0x80, 0x0F, 0x55}, reverseBits(p))
}

func TestSpliceJPEGTables(t *testing.T) {
	tables := []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x02, 0xFF, 0xD9}
	body := []byte{0xFF, 0xD8, 0xFF, 0xDA, 0x12, 0x34, 0xFF, 0xD9}

	out, err := spliceJPEGTables(tables, body)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0xFF, 0xD8, // fresh SOI
		0xFF, 0xDB, 0x00, 0x02, // tables without SOI/EOI
		0xFF, 0xDA, 0x12, 0x34, // scan without SOI/EOI
		0xFF, 0xD9, // fresh EOI
	}, out)
}

func TestSpliceJPEGTablesBadMarkers(t *testing.T) {
	_, err := spliceJPEGTables([]byte{0x00, 0x00, 0xFF, 0xD9}, nil)
	assert.Error(t, err)

	_, err = spliceJPEGTables([]byte{0xFF, 0xD8, 0x00, 0x00}, nil)
	assert.Error(t, err)
}

func TestLZWDecodeEarlyChangeMSB(t *testing.T) {
	src := bytes.Repeat([]byte("the quick brown fox "), 20)

	buf := &bytes.Buffer{}
	w, err := lzw.NewWriter(buf, true)
	require.NoError(t, err)
	_, err = w.Write(src)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	comp := buf.Bytes()

	d := &decoder{
		ifd:       &ifd{r: bytes.NewReader(comp)},
		fillOrder: foMSB,
	}
	out, err := d.decompressLZW(0, int64(len(comp)))
	require.NoError(t, err)
	assert.Equal(t, src, out)
}
