package metrics

import (
	"math"

	"cosine-zoom/internal/core"
)

// SSIM constants
const (
	ssimC1     = 6.5025  // (0.01 * 255)^2
	ssimC2     = 58.5225 // (0.03 * 255)^2
	ssimWindow = 11
	ssimSigma  = 1.5
)

// SSIM implements the Structural Similarity Index on the luma plane, using an 11x11
// Gaussian window and reflected borders.
type SSIM struct{}

func NewSSIM() *SSIM {
	return &SSIM{}
}

func (s *SSIM) Calculate(original, processed *core.Raster) (float64, error) {
	if err := checkSameSize(original, processed); err != nil {
		return 0, err
	}

	w, h := original.Width, original.Height
	a, b := luma(original), luma(processed)
	kernel := gaussianKernel(ssimWindow, ssimSigma)

	mu1 := blur(a, w, h, kernel)
	mu2 := blur(b, w, h, kernel)
	sigma1Sq := blur(product(a, a), w, h, kernel)
	sigma2Sq := blur(product(b, b), w, h, kernel)
	sigma12 := blur(product(a, b), w, h, kernel)

	sum := 0.0
	for i := range a {
		m1, m2 := mu1[i], mu2[i]
		v1 := sigma1Sq[i] - m1*m1
		v2 := sigma2Sq[i] - m2*m2
		cov := sigma12[i] - m1*m2
		sum += (2*m1*m2 + ssimC1) * (2*cov + ssimC2) /
			((m1*m1 + m2*m2 + ssimC1) * (v1 + v2 + ssimC2))
	}
	return sum / float64(len(a)), nil
}

func (s *SSIM) GetName() string              { return "ssim" }
func (s *SSIM) GetDescription() string       { return "Mean structural similarity of the luma plane" }
func (s *SSIM) GetRange() (float64, float64) { return -1, 1 }
func (s *SSIM) IsHigherBetter() bool         { return true }

// luma converts a raster to BT.601 grayscale in 0..255.
func luma(r *core.Raster) []float64 {
	out := make([]float64, r.Width*r.Height)
	for i := range out {
		px := r.Pix[i*core.Channels:]
		out[i] = 0.299*float64(px[0]) + 0.587*float64(px[1]) + 0.114*float64(px[2])
	}
	return out
}

func product(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}

// gaussianKernel returns a normalized 1D kernel of the given odd size.
func gaussianKernel(size int, sigma float64) []float64 {
	k := make([]float64, size)
	r := size / 2
	sum := 0.0
	for i := range k {
		d := float64(i - r)
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// blur convolves a w x h plane with kernel along both axes.
func blur(src []float64, w, h int, kernel []float64) []float64 {
	r := len(kernel) / 2
	tmp := make([]float64, len(src))
	for y := 0; y < h; y++ {
		row := src[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			s := 0.0
			for i, kv := range kernel {
				s += kv * row[reflect101(x+i-r, w)]
			}
			tmp[y*w+x] = s
		}
	}

	out := make([]float64, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := 0.0
			for i, kv := range kernel {
				s += kv * tmp[reflect101(y+i-r, h)*w+x]
			}
			out[y*w+x] = s
		}
	}
	return out
}

// reflect101 maps i into [0, n) by mirroring without repeating the edge sample
// (gfedcb|abcdefgh|gfedcba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2*n - 2
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}
