package algorithms

import (
	"fmt"
	"math"

	"cosine-zoom/internal/core"
)

// Scale is a rational zoom factor Num/Den.
type Scale struct {
	Num float64
	Den uint64
}

// Unit is the 1/1 scale.
var Unit = Scale{Num: 1, Den: 1}

// Validate rejects a zero denominator and non-positive or non-finite numerators.
func (s Scale) Validate() error {
	if s.Den == 0 {
		return fmt.Errorf("%w: denominator is zero", ErrInvalidScale)
	}
	if math.IsNaN(s.Num) || math.IsInf(s.Num, 0) || s.Num <= 0 {
		return fmt.Errorf("%w: numerator %v", ErrInvalidScale, s.Num)
	}
	return nil
}

// Factor returns Num/Den as a float.
func (s Scale) Factor() float64 {
	return s.Num / float64(s.Den)
}

func (s Scale) String() string {
	return fmt.Sprintf("%g/%d", s.Num, s.Den)
}

// Scaled returns floor(dim*Num/Den), the default viewport length for an axis.
// Lengths past MaxDimension come back as MaxDimension+1 so validation rejects them.
func (s Scale) Scaled(dim int) int {
	n := math.Floor(float64(dim) * s.Num / float64(s.Den))
	return int(math.Min(n, core.MaxDimension+1))
}

// Retained returns the number of frequencies synthesized along an axis:
// min(round(dim*scale), dim), never less than one so the DC term survives.
func Retained(dim int, s Scale) int {
	n := math.Min(math.Round(float64(dim)*s.Num/float64(s.Den)), float64(dim))
	return max(1, int(n))
}

// Axis describes one dimension of the reconstruction.
type Axis struct {
	Source  int     // source samples along the axis
	Samples int     // viewport samples along the axis
	Offset  float64 // continuous origin offset
}

func (a Axis) validate() error {
	if a.Source <= 0 || a.Source > core.MaxDimension {
		return fmt.Errorf("%w: source length %d", ErrInvalidViewport, a.Source)
	}
	if a.Samples <= 0 || a.Samples > core.MaxDimension {
		return fmt.Errorf("%w: viewport length %d", ErrInvalidViewport, a.Samples)
	}
	if math.IsNaN(a.Offset) || math.IsInf(a.Offset, 0) {
		return fmt.Errorf("%w: offset %v", ErrInvalidViewport, a.Offset)
	}
	return nil
}

// Viewport is the destination region: its size, origin offset and scale.
type Viewport struct {
	Width  int
	Height int
	X      float64
	Y      float64
	Scale  Scale
}

// Axes splits the viewport into its horizontal and vertical axes for a source of the
// given size.
func (v Viewport) Axes(srcWidth, srcHeight int) (Axis, Axis) {
	return Axis{Source: srcWidth, Samples: v.Width, Offset: v.X},
		Axis{Source: srcHeight, Samples: v.Height, Offset: v.Y}
}

// Validate checks the scale first so a bad scale is reported before anything else.
func (v Viewport) Validate() error {
	if err := v.Scale.Validate(); err != nil {
		return err
	}
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidViewport, v.Width, v.Height)
	}
	if v.Width > core.MaxDimension || v.Height > core.MaxDimension {
		return fmt.Errorf("%w: %dx%d exceeds %d", ErrInvalidViewport, v.Width, v.Height, core.MaxDimension)
	}
	return nil
}
