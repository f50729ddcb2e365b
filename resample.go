package tiff

import "math"

// resampleAspect corrects non-square pixels by vertically resampling the
// raster to newHeight = round(height * xRes/yRes), blending the two
// nearest source rows linearly per channel. Ratios within 5% of 1.0 are
// treated as square, guarding against rounding noise in the resolution
// tags of truly square-pixel images.
func resampleAspect(m *Image, xRes, yRes float64) *Image {
	ratio := xRes / yRes
	if math.Abs(ratio-1) <= 0.05 {
		return m
	}
	newHeight := int(math.Round(float64(m.height) * ratio))
	if newHeight <= 0 || newHeight == m.height {
		return m
	}

	rowBytes := m.width * 4
	out := make([]byte, newHeight*rowBytes)
	for y := 0; y < newHeight; y++ {
		fy := float64(y) / ratio
		y0 := int(fy)
		if y0 > m.height-1 {
			y0 = m.height - 1
		}
		y1 := y0 + 1
		if y1 > m.height-1 {
			y1 = m.height - 1
		}
		frac := fy - float64(y0)

		src0 := m.pix[y0*rowBytes : (y0+1)*rowBytes]
		src1 := m.pix[y1*rowBytes : (y1+1)*rowBytes]
		dst := out[y*rowBytes : (y+1)*rowBytes]
		for i := range dst {
			dst[i] = byte(float64(src0[i])*(1-frac) + float64(src1[i])*frac + 0.5)
		}
	}
	return &Image{width: m.width, height: newHeight, pix: out}
}
