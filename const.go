package tiff

// A TIFF file contains one or more images. The metadata of each image
// is contained in an Image File Directory (IFD), which contains entries
// of 12 bytes each and is described on page 14-16 of the specification.
// An IFD entry consists of
//
//  - a tag, which describes the signification of the entry,
//  - the data type and length of the entry,
//  - the data itself or a pointer to it if it is more than 4 bytes.
//
// The presence of a length means that each IFD entry is effectively an array.
//
// Only the first IFD of a file is decoded; multi-page files yield their
// first page.

const (
	leHeader = "II\x2A\x00" // Header for little-endian files.
	beHeader = "MM\x00\x2A" // Header for big-endian files.

	ifdLen = 12 // Length of an IFD entry in bytes.
)

// Data types (p. 14-16 of the spec).
const (
	dtByte     = 1
	dtASCII    = 2
	dtShort    = 3
	dtLong     = 4
	dtRational = 5
)

// typeSize returns the length of one instance of the given data type in
// bytes. Unknown data types are treated as byte-sized and preserved raw
// so that files using newer types still parse.
func typeSize(datatype uint16) uint32 {
	switch datatype {
	case dtByte, dtASCII:
		return 1
	case dtShort:
		return 2
	case dtLong:
		return 4
	case dtRational:
		return 8
	}
	return 1
}

// Tags (see p. 28-41 of the spec).
const (
	tImageWidth                = 256
	tImageLength               = 257
	tBitsPerSample             = 258
	tCompression               = 259
	tPhotometricInterpretation = 262

	tFillOrder = 266

	tStripOffsets    = 273
	tSamplesPerPixel = 277
	tRowsPerStrip    = 278
	tStripByteCounts = 279

	tXResolution         = 282
	tYResolution         = 283
	tPlanarConfiguration = 284
	tT4Options           = 292
	tT6Options           = 293
	tResolutionUnit      = 296

	tPredictor = 317

	tTileWidth      = 322
	tTileLength     = 323
	tTileOffsets    = 324
	tTileByteCounts = 325

	tJPEGTables = 347
)

// Compression types (defined in various places in the spec and supplements).
// These values are wire format and must never be renumbered.
const (
	cNone       = 1
	cCCITT      = 2 // CCITT modified Huffman RLE.
	cG3         = 3 // Group 3 Fax.
	cG4         = 4 // Group 4 Fax.
	cLZW        = 5
	cJPEGOld    = 6 // Superseded by cJPEG.
	cJPEG       = 7
	cDeflate    = 8 // zlib compression.
	cPackBits   = 32773
	cDeflateOld = 32946 // Superseded by cDeflate.
)

// Photometric interpretation values (see p. 37 of the spec).
const (
	pWhiteIsZero = 0
	pBlackIsZero = 1
	pRGB         = 2
	pPaletted    = 3
	pTransMask   = 4 // transparency mask
	pCMYK        = 5
	pYCbCr       = 6
	pCIELab      = 8
)

// Values for the tPredictor tag (page 64-65 of the spec).
const (
	prNone       = 1
	prHorizontal = 2
)

// Values for the tResolutionUnit tag (page 18).
const (
	resNone    = 1
	resPerInch = 2 // Dots per inch.
	resPerCM   = 3 // Dots per centimeter.
)

// Values for the tPlanarConfiguration tag (page 38).
const (
	pcChunky = 1 // RGBRGBRGB...
	pcPlanar = 2 // RRR...GGG...BBB
)

// Values for the tFillOrder tag (page 32).
const (
	foMSB = 1 // Most significant bit of each byte first.
	foLSB = 2
)

// rowsPerStripInfinity is the sentinel meaning "all rows in one strip".
const rowsPerStripInfinity = 0xFFFFFFFF
