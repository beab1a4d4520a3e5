package algorithms

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"

	"cosine-zoom/internal/core"
)

// dctLines applies an unnormalized DCT-II in place to count lines of n values,
// every channel separately. Line l, channel c starts at base(l)+c and advances by
// stride.
//
//	X[k] = 2 * sum_j x[j] * cos(pi*k*(2j+1)/(2n))
//
// QuarterWaveFFT plans carry work buffers, so each chunk builds its own.
func dctLines(data []float64, n, count, stride int, base func(line int) int, workers int) {
	parallelFor(workers, count, func(start, end int) {
		var plan *fourier.QuarterWaveFFT
		if n > 1 {
			plan = fourier.NewQuarterWaveFFT(n)
		}
		src := make([]float64, n)
		dst := make([]float64, n)

		for l := start; l < end; l++ {
			for c := 0; c < core.Channels; c++ {
				b := base(l) + c
				for j := range src {
					src[j] = data[b+j*stride]
				}
				if plan == nil {
					dst[0] = 2 * src[0]
				} else {
					plan.CosSequence(dst, src)
				}
				for k, v := range dst {
					data[b+k*stride] = v
				}
			}
		}
	})
}

// ForwardDCT computes the separable, unnormalized 2D DCT-II of every channel of img.
// The source is not modified. Normalization (1/(W*H)) is applied at reconstruction.
func ForwardDCT(img *core.Image, workers int) (*core.Coefficients, error) {
	if err := core.ValidateImage(img); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidViewport, err)
	}

	w, h := img.Width, img.Height
	data := make([]float64, len(img.Pix))
	copy(data, img.Pix)

	rowStride := w * core.Channels
	dctLines(data, w, h, core.Channels, func(y int) int { return y * rowStride }, workers)
	dctLines(data, h, w, rowStride, func(x int) int { return x * core.Channels }, workers)

	return &core.Coefficients{Width: w, Height: h, Data: data}, nil
}
