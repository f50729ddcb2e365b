package tiff

import "fmt"

// A FormatError reports that the input is not a valid TIFF image.
type FormatError string

func (e FormatError) Error() string {
	return fmt.Sprintf("tiff: invalid format: %s", string(e))
}

// An UnsupportedError reports that the input uses a valid but
// unimplemented feature.
type UnsupportedError string

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("tiff: unsupported feature: %s", string(e))
}

// An InternalError reports that an internal error was encountered.
type InternalError string

func (e InternalError) Error() string {
	return fmt.Sprintf("tiff: internal error: %s", string(e))
}

// minInt returns the smaller of x or y.
func minInt(a, b int) int {
	if a <= b {
		return a
	}
	return b
}

// reverseBits swaps the bit order of every byte in p in place and
// returns p. Used for FillOrder==2 payloads, where the low-order bit is
// filled first.
func reverseBits(p []byte) []byte {
	for i, b := range p {
		b = b>>4 | b<<4
		b = b>>2&0x33 | b<<2&0xCC
		b = b>>1&0x55 | b<<1&0xAA
		p[i] = b
	}
	return p
}

func tagname(t uint16) string {
	switch t {
	case tImageWidth:
		return "ImageWidth"
	case tImageLength:
		return "ImageLength"
	case tBitsPerSample:
		return "BitsPerSample"
	case tCompression:
		return "Compression"
	case tPhotometricInterpretation:
		return "PhotometricInterpretation"
	case tFillOrder:
		return "FillOrder"
	case tStripOffsets:
		return "StripOffsets"
	case tSamplesPerPixel:
		return "SamplesPerPixel"
	case tRowsPerStrip:
		return "RowsPerStrip"
	case tStripByteCounts:
		return "StripByteCounts"
	case tXResolution:
		return "XResolution"
	case tYResolution:
		return "YResolution"
	case tPlanarConfiguration:
		return "PlanarConfiguration"
	case tT4Options:
		return "T4Options"
	case tT6Options:
		return "T6Options"
	case tResolutionUnit:
		return "ResolutionUnit"
	case tPredictor:
		return "Predictor"
	case tTileWidth:
		return "TileWidth"
	case tTileLength:
		return "TileLength"
	case tTileOffsets:
		return "TileOffsets"
	case tTileByteCounts:
		return "TileByteCounts"
	case tJPEGTables:
		return "JPEGTables"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

func compressionName(c uint) string {
	switch c {
	case cNone:
		return "None"
	case cCCITT:
		return "CCITT RLE"
	case cG3:
		return "Group 3 Fax"
	case cG4:
		return "Group 4 Fax"
	case cLZW:
		return "LZW"
	case cJPEGOld:
		return "Old JPEG"
	case cJPEG:
		return "JPEG"
	case cDeflate:
		return "Deflate (zlib compression)"
	case cPackBits:
		return "PackBits"
	case cDeflateOld:
		return "Old Deflate"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

func photometricName(p uint) string {
	switch p {
	case pWhiteIsZero:
		return "WhiteIsZero"
	case pBlackIsZero:
		return "BlackIsZero"
	case pRGB:
		return "RGB"
	case pPaletted:
		return "Paletted"
	case pTransMask:
		return "TransMask"
	case pCMYK:
		return "CMYK"
	case pYCbCr:
		return "YCbCr"
	case pCIELab:
		return "CIE-Lab"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}
