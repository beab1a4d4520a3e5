package algorithms

import (
	"math"

	"cosine-zoom/internal/core"
)

// QuantizeValue clamps v to [0,255] and rounds half away from zero. NaN maps to 0.
func QuantizeValue(v float64) uint8 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(math.Round(v))
}

// Quantize converts reconstruction samples into an 8-bit raster.
func Quantize(s *core.Samples) *core.Raster {
	r := &core.Raster{
		Width:  s.Width,
		Height: s.Height,
		Pix:    make([]uint8, len(s.Pix)),
	}
	for i, v := range s.Pix {
		r.Pix[i] = QuantizeValue(v)
	}
	return r
}

// QuantizeImage converts a [0,1] floating image into an 8-bit raster.
func QuantizeImage(img *core.Image) *core.Raster {
	r := &core.Raster{
		Width:  img.Width,
		Height: img.Height,
		Pix:    make([]uint8, len(img.Pix)),
	}
	for i, v := range img.Pix {
		r.Pix[i] = QuantizeValue(v * 255)
	}
	return r
}
