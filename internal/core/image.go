// Core image buffers shared by the transform, reconstruction and I/O layers
package core

import (
	"fmt"
)

// Channels is the number of interleaved color channels in every buffer.
const Channels = 3

// MaxDimension bounds both source and viewport sizes to keep allocations sane.
const MaxDimension = 32768

// Image is a floating RGB image with samples in [0,1].
// Pixels are row-major and channel-interleaved: Pix[(y*Width+x)*Channels+c].
type Image struct {
	Width  int
	Height int
	Pix    []float64
}

// NewImage allocates a zeroed floating image.
func NewImage(width, height int) (*Image, error) {
	if err := ValidateDimensions(width, height); err != nil {
		return nil, err
	}
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height*Channels),
	}, nil
}

// Offset returns the index of channel 0 of pixel (x, y).
func (img *Image) Offset(x, y int) int {
	return (y*img.Width + x) * Channels
}

// At returns a single channel sample.
func (img *Image) At(x, y, c int) float64 {
	return img.Pix[img.Offset(x, y)+c]
}

// Set writes a single channel sample.
func (img *Image) Set(x, y, c int, v float64) {
	img.Pix[img.Offset(x, y)+c] = v
}

// Raster is an 8-bit RGB buffer with the same layout as Image.
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewRaster allocates a black raster.
func NewRaster(width, height int) (*Raster, error) {
	if err := ValidateDimensions(width, height); err != nil {
		return nil, err
	}
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}, nil
}

func (r *Raster) Offset(x, y int) int {
	return (y*r.Width + x) * Channels
}

// Pixel returns the RGB triple at (x, y).
func (r *Raster) Pixel(x, y int) [Channels]uint8 {
	o := r.Offset(x, y)
	return [Channels]uint8{r.Pix[o], r.Pix[o+1], r.Pix[o+2]}
}

// SetPixel overwrites the RGB triple at (x, y).
func (r *Raster) SetPixel(x, y int, px [Channels]uint8) {
	copy(r.Pix[r.Offset(x, y):], px[:])
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	pix := make([]uint8, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, Pix: pix}
}

// Coefficients holds one unnormalized DCT-II coefficient per (row, column, channel),
// laid out like Image.
type Coefficients struct {
	Width  int
	Height int
	Data   []float64
}

func (c *Coefficients) At(u, v, ch int) float64 {
	return c.Data[(v*c.Width+u)*Channels+ch]
}

// Samples is the floating reconstruction output, already scaled to 0..255 but not
// yet clamped or rounded.
type Samples struct {
	Width  int
	Height int
	Pix    []float64
}

func (s *Samples) At(x, y, c int) float64 {
	return s.Pix[(y*s.Width+x)*Channels+c]
}

// ValidateDimensions rejects empty and oversized buffers.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("image too large: %dx%d (max: %d)", width, height, MaxDimension)
	}
	return nil
}

// ValidateImage checks that the buffer length agrees with the declared size.
func ValidateImage(img *Image) error {
	if img == nil {
		return fmt.Errorf("image is nil")
	}
	if err := ValidateDimensions(img.Width, img.Height); err != nil {
		return err
	}
	if want := img.Width * img.Height * Channels; len(img.Pix) != want {
		return fmt.Errorf("pixel buffer holds %d samples, want %d", len(img.Pix), want)
	}
	return nil
}

// ValidateCoefficients is ValidateImage for coefficient buffers.
func ValidateCoefficients(c *Coefficients) error {
	if c == nil {
		return fmt.Errorf("coefficients are nil")
	}
	if err := ValidateDimensions(c.Width, c.Height); err != nil {
		return err
	}
	if want := c.Width * c.Height * Channels; len(c.Data) != want {
		return fmt.Errorf("coefficient buffer holds %d values, want %d", len(c.Data), want)
	}
	return nil
}
