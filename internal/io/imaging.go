package io

import (
	"image"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"cosine-zoom/internal/core"
)

// ImagingCodec is a pure-Go codec backed by disintegration/imaging. It decodes every
// format registered with the image package (including WebP) and encodes
// JPEG, PNG, GIF, TIFF and BMP.
type ImagingCodec struct {
	JPEGQuality int
}

func NewImagingCodec() *ImagingCodec {
	return &ImagingCodec{JPEGQuality: 95}
}

func (c *ImagingCodec) Name() string {
	return "imaging"
}

func (c *ImagingCodec) Extensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".tif", ".tiff", ".bmp"}
}

func (c *ImagingCodec) Decode(r io.Reader) (*core.Image, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	nrgba := imaging.Clone(src)
	b := nrgba.Bounds()
	img, err := core.NewImage(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	for y := 0; y < img.Height; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+img.Width*4]
		for x := 0; x < img.Width; x++ {
			o := img.Offset(x, y)
			img.Pix[o] = float64(row[x*4]) / 255
			img.Pix[o+1] = float64(row[x*4+1]) / 255
			img.Pix[o+2] = float64(row[x*4+2]) / 255
		}
	}
	return img, nil
}

func (c *ImagingCodec) Encode(w io.Writer, ras *core.Raster, ext string) error {
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return err
	}

	dst := image.NewNRGBA(image.Rect(0, 0, ras.Width, ras.Height))
	for y := 0; y < ras.Height; y++ {
		for x := 0; x < ras.Width; x++ {
			px := ras.Pixel(x, y)
			o := dst.PixOffset(x, y)
			dst.Pix[o] = px[0]
			dst.Pix[o+1] = px[1]
			dst.Pix[o+2] = px[2]
			dst.Pix[o+3] = 0xff
		}
	}

	return imaging.Encode(w, dst, format, imaging.JPEGQuality(c.JPEGQuality))
}

func init() {
	RegisterCodec(NewImagingCodec())
}
