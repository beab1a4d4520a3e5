package algorithms

import (
	"fmt"
	"math"

	"cosine-zoom/internal/core"
)

// Marker is the color used to flag sample positions.
var Marker = [core.Channels]uint8{0, 255, 0}

// OverlayStride is the integer sample spacing for a scale: round(scale), at least 1.
func OverlayStride(s Scale) int {
	return max(1, int(math.Round(s.Factor())))
}

// OverlayPhase aligns the marker grid to an offset: (-floor(offset)) mod stride.
func OverlayPhase(offset float64, stride int) int {
	p := -int(math.Floor(offset)) % stride
	if p < 0 {
		p += stride
	}
	return p
}

// Overlay returns a copy of src with the sample grid drawn in Marker color.
// src itself is never modified. OverlayNone returns an unmodified copy.
func Overlay(src *core.Raster, mode OverlayMode, stride, phaseX, phaseY int) (*core.Raster, error) {
	if stride < 1 {
		return nil, fmt.Errorf("overlay stride must be positive, got %d", stride)
	}
	out := src.Clone()

	switch mode {
	case OverlayNone:
	case OverlayPoints:
		for y := phaseY; y < out.Height; y += stride {
			for x := phaseX; x < out.Width; x += stride {
				out.SetPixel(x, y, Marker)
			}
		}
	case OverlayGrid:
		for y := phaseY; y < out.Height; y += stride {
			for x := 0; x < out.Width; x++ {
				out.SetPixel(x, y, Marker)
			}
		}
		for y := 0; y < out.Height; y++ {
			for x := phaseX; x < out.Width; x += stride {
				out.SetPixel(x, y, Marker)
			}
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownOverlay, mode)
	}
	return out, nil
}

// OverlayViewport draws the overlay using the stride and phase implied by a viewport.
func OverlayViewport(src *core.Raster, mode OverlayMode, vp Viewport) (*core.Raster, error) {
	stride := OverlayStride(vp.Scale)
	return Overlay(src, mode, stride, OverlayPhase(vp.X, stride), OverlayPhase(vp.Y, stride))
}
