// Concrete implementations of quality metrics
package metrics

import (
	"math"

	"cosine-zoom/internal/core"
)

// MSE implements mean squared error over every channel sample.
type MSE struct{}

func NewMSE() *MSE {
	return &MSE{}
}

func (m *MSE) Calculate(original, processed *core.Raster) (float64, error) {
	if err := checkSameSize(original, processed); err != nil {
		return 0, err
	}
	return meanSquaredError(original, processed), nil
}

func (m *MSE) GetName() string              { return "mse" }
func (m *MSE) GetDescription() string       { return "Mean squared error per channel sample" }
func (m *MSE) GetRange() (float64, float64) { return 0, 255 * 255 }
func (m *MSE) IsHigherBetter() bool         { return false }

// PSNR implements Peak Signal-to-Noise Ratio metric
type PSNR struct{}

func NewPSNR() *PSNR {
	return &PSNR{}
}

func (p *PSNR) Calculate(original, processed *core.Raster) (float64, error) {
	if err := checkSameSize(original, processed); err != nil {
		return 0, err
	}

	mse := meanSquaredError(original, processed)
	if mse == 0 {
		return math.Inf(1), nil // Perfect match
	}

	maxVal := 255.0
	return 20 * math.Log10(maxVal/math.Sqrt(mse)), nil
}

func (p *PSNR) GetName() string              { return "psnr" }
func (p *PSNR) GetDescription() string       { return "Peak signal-to-noise ratio in dB" }
func (p *PSNR) GetRange() (float64, float64) { return 0, math.Inf(1) }
func (p *PSNR) IsHigherBetter() bool         { return true }

// MaxError is the largest absolute channel difference.
type MaxError struct{}

func NewMaxError() *MaxError {
	return &MaxError{}
}

func (m *MaxError) Calculate(original, processed *core.Raster) (float64, error) {
	if err := checkSameSize(original, processed); err != nil {
		return 0, err
	}
	worst := 0
	for i, a := range original.Pix {
		d := int(a) - int(processed.Pix[i])
		if d < 0 {
			d = -d
		}
		worst = max(worst, d)
	}
	return float64(worst), nil
}

func (m *MaxError) GetName() string              { return "max_error" }
func (m *MaxError) GetDescription() string       { return "Largest absolute channel difference" }
func (m *MaxError) GetRange() (float64, float64) { return 0, 255 }
func (m *MaxError) IsHigherBetter() bool         { return false }

func meanSquaredError(original, processed *core.Raster) float64 {
	sumSquaredDiff := 0.0
	for i, a := range original.Pix {
		diff := float64(a) - float64(processed.Pix[i])
		sumSquaredDiff += diff * diff
	}
	return sumSquaredDiff / float64(len(original.Pix))
}
