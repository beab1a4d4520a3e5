// Package opencv provides the OpenCV-backed image codec.
package opencv

import (
	"fmt"
	"io"

	"gocv.io/x/gocv"

	"cosine-zoom/internal/core"
)

// Codec decodes and encodes through OpenCV's imgcodecs module.
type Codec struct{}

func NewCodec() *Codec {
	return &Codec{}
}

func (c *Codec) Name() string {
	return "opencv"
}

func (c *Codec) Extensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp", ".webp"}
}

func (c *Codec) Decode(r io.Reader) (*core.Image, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	mat, err := gocv.IMDecode(buf, gocv.IMReadColor)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("failed to decode image")
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	if err := gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB); err != nil {
		return nil, err
	}
	if rgb.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("unsupported mat type: %v", rgb.Type())
	}

	img, err := core.NewImage(rgb.Cols(), rgb.Rows())
	if err != nil {
		return nil, err
	}
	data := rgb.ToBytes()
	if len(data) != len(img.Pix) {
		return nil, fmt.Errorf("unexpected pixel buffer size %d for %dx%d", len(data), img.Width, img.Height)
	}
	for i, v := range data {
		img.Pix[i] = float64(v) / 255
	}
	return img, nil
}

func (c *Codec) Encode(w io.Writer, ras *core.Raster, ext string) error {
	rgb, err := gocv.NewMatFromBytes(ras.Height, ras.Width, gocv.MatTypeCV8UC3, ras.Pix)
	if err != nil {
		return err
	}
	defer rgb.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	if err := gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR); err != nil {
		return err
	}

	buf, err := gocv.IMEncode(gocv.FileExt(ext), bgr)
	if err != nil {
		return err
	}
	defer buf.Close()

	_, err = w.Write(buf.GetBytes())
	return err
}
