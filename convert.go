package tiff

import "fmt"

// toBGRA maps a decompressed sample buffer into the canonical
// width*height*4 B,G,R,A raster. The dispatch below is exhaustive for
// decoding; any photometric × bit depth × sample count combination it
// does not list is rejected rather than guessed at.
func (d *decoder) toBGRA(samples []byte) ([]byte, error) {
	bits := uint(1)
	if len(d.bits) > 0 {
		bits = d.bits[0]
	}

	switch {
	case (d.photometric == pWhiteIsZero || d.photometric == pBlackIsZero) && bits == 1:
		return d.bilevelToBGRA(samples)
	case d.photometric == pBlackIsZero && bits == 8 && d.spp == 1:
		return d.gray8ToBGRA(samples)
	case (d.photometric == pWhiteIsZero || d.photometric == pBlackIsZero) && bits == 16 && d.spp == 1:
		return d.gray16ToBGRA(samples)
	case d.photometric == pRGB && bits == 8 && (d.spp == 3 || d.spp == 4):
		return d.rgb8ToBGRA(samples)
	case d.photometric == pRGB && bits == 16 && (d.spp == 3 || d.spp == 4):
		return d.rgb16ToBGRA(samples)
	}
	return nil, UnsupportedError(fmt.Sprintf("pixel format %s, %d bits, %d samples per pixel",
		photometricName(d.photometric), bits, d.spp))
}

// bilevelToBGRA unpacks 1-bit samples, MSB first within each byte, rows
// padded to whole bytes.
func (d *decoder) bilevelToBGRA(samples []byte) ([]byte, error) {
	rowBytes := (d.width + 7) / 8
	if len(samples) < rowBytes*d.height {
		return nil, FormatError("truncated bilevel sample data")
	}

	out := make([]byte, d.width*d.height*4)
	for y := 0; y < d.height; y++ {
		row := samples[y*rowBytes:]
		for x := 0; x < d.width; x++ {
			v := byte(0)
			if row[x/8]>>(7-uint(x)%8)&1 != 0 {
				v = 0xFF
			}
			if d.photometric == pWhiteIsZero {
				v = ^v
			}
			i := (y*d.width + x) * 4
			out[i+0] = v
			out[i+1] = v
			out[i+2] = v
			out[i+3] = 0xFF
		}
	}
	return out, nil
}

func (d *decoder) gray8ToBGRA(samples []byte) ([]byte, error) {
	n := d.width * d.height
	if len(samples) < n {
		return nil, FormatError("truncated grayscale sample data")
	}

	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		v := samples[i]
		out[i*4+0] = v
		out[i*4+1] = v
		out[i*4+2] = v
		out[i*4+3] = 0xFF
	}
	return out, nil
}

// gray16ToBGRA maps 16-bit grayscale onto the full 8-bit range by
// stretching between the image's own minimum and maximum sample. A flat
// image (max == min) comes out black.
func (d *decoder) gray16ToBGRA(samples []byte) ([]byte, error) {
	n := d.width * d.height
	if len(samples) < n*2 {
		return nil, FormatError("truncated grayscale sample data")
	}

	lo, hi := uint16(0xFFFF), uint16(0)
	for i := 0; i < n; i++ {
		v := d.byteOrder.Uint16(samples[i*2:])
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	var scale float64
	if hi > lo {
		scale = 255 / float64(hi-lo)
	}

	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		v := byte(float64(d.byteOrder.Uint16(samples[i*2:])-lo) * scale)
		if d.photometric == pWhiteIsZero {
			v = ^v
		}
		out[i*4+0] = v
		out[i*4+1] = v
		out[i*4+2] = v
		out[i*4+3] = 0xFF
	}
	return out, nil
}

func (d *decoder) rgb8ToBGRA(samples []byte) ([]byte, error) {
	n := d.width * d.height
	spp := int(d.spp)
	if len(samples) < n*spp {
		return nil, FormatError("truncated RGB sample data")
	}

	out := make([]byte, n*4)
	if d.planar == pcPlanar {
		// Separate planes: spp contiguous blocks of n samples each.
		for i := 0; i < n; i++ {
			out[i*4+0] = samples[2*n+i]
			out[i*4+1] = samples[n+i]
			out[i*4+2] = samples[i]
			if spp == 4 {
				out[i*4+3] = samples[3*n+i]
			} else {
				out[i*4+3] = 0xFF
			}
		}
		return out, nil
	}
	for i := 0; i < n; i++ {
		s := i * spp
		out[i*4+0] = samples[s+2]
		out[i*4+1] = samples[s+1]
		out[i*4+2] = samples[s+0]
		if spp == 4 {
			out[i*4+3] = samples[s+3]
		} else {
			out[i*4+3] = 0xFF
		}
	}
	return out, nil
}

// scale16 downsamples a 16-bit channel to 8 bits, rounding to nearest
// and clamping at white.
func scale16(v uint16) byte {
	s := (uint32(v) + 128) >> 8
	if s > 0xFF {
		s = 0xFF
	}
	return byte(s)
}

func (d *decoder) rgb16ToBGRA(samples []byte) ([]byte, error) {
	n := d.width * d.height
	spp := int(d.spp)
	if len(samples) < n*spp*2 {
		return nil, FormatError("truncated RGB sample data")
	}

	out := make([]byte, n*4)
	if d.planar == pcPlanar {
		for i := 0; i < n; i++ {
			out[i*4+0] = scale16(d.byteOrder.Uint16(samples[(2*n+i)*2:]))
			out[i*4+1] = scale16(d.byteOrder.Uint16(samples[(n+i)*2:]))
			out[i*4+2] = scale16(d.byteOrder.Uint16(samples[i*2:]))
			if spp == 4 {
				out[i*4+3] = scale16(d.byteOrder.Uint16(samples[(3*n+i)*2:]))
			} else {
				out[i*4+3] = 0xFF
			}
		}
		return out, nil
	}
	for i := 0; i < n; i++ {
		s := i * spp * 2
		out[i*4+0] = scale16(d.byteOrder.Uint16(samples[s+4:]))
		out[i*4+1] = scale16(d.byteOrder.Uint16(samples[s+2:]))
		out[i*4+2] = scale16(d.byteOrder.Uint16(samples[s:]))
		if spp == 4 {
			out[i*4+3] = scale16(d.byteOrder.Uint16(samples[s+6:]))
		} else {
			out[i*4+3] = 0xFF
		}
	}
	return out, nil
}
