package algorithms

import (
	"fmt"

	"cosine-zoom/internal/core"
)

// Reconstructor synthesizes viewport samples from DCT-II coefficients and a pair of
// basis tables using two separable passes.
type Reconstructor struct {
	Workers int
	Order   PassOrder
}

// NewReconstructor returns a rows-first reconstructor using every available CPU.
func NewReconstructor() *Reconstructor {
	return &Reconstructor{}
}

// Reconstruct evaluates the inverse transform at the sample positions encoded in
// width and height. The result is scaled to 0..255 but not clamped.
func (r *Reconstructor) Reconstruct(coef *core.Coefficients, width, height *BasisTable) (*core.Samples, error) {
	if err := core.ValidateCoefficients(coef); err != nil {
		return nil, err
	}
	if width == nil || height == nil {
		return nil, fmt.Errorf("%w: missing basis table", ErrDimensionMismatch)
	}
	if width.Freqs > coef.Width || height.Freqs > coef.Height {
		return nil, fmt.Errorf("%w: basis retains %dx%d frequencies, coefficients hold %dx%d",
			ErrDimensionMismatch, width.Freqs, height.Freqs, coef.Width, coef.Height)
	}
	if width.Samples <= 0 || height.Samples <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidViewport, width.Samples, height.Samples)
	}

	out := &core.Samples{
		Width:  width.Samples,
		Height: height.Samples,
		Pix:    make([]float64, width.Samples*height.Samples*core.Channels),
	}

	switch r.Order {
	case RowsFirst:
		r.rowsFirst(coef, width, height, out)
	case ColumnsFirst:
		r.columnsFirst(coef, width, height, out)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownPassOrder, r.Order)
	}
	return out, nil
}

// rowsFirst collapses every retained coefficient row against the width basis for each
// output column, then collapses those partial sums against the height basis.
func (r *Reconstructor) rowsFirst(coef *core.Coefficients, bw, bh *BasisTable, out *core.Samples) {
	const nc = core.Channels
	cw, ch := bw.Freqs, bh.Freqs
	vw, vh := bw.Samples, bh.Samples
	stride := coef.Width * nc
	norm := 255 / float64(coef.Width*coef.Height)

	// partial[(i*ch+row)*nc+c]
	partial := make([]float64, vw*ch*nc)
	parallelFor(r.Workers, vw, func(start, end int) {
		for i := start; i < end; i++ {
			basis := bw.Row(i)
			for row := 0; row < ch; row++ {
				line := coef.Data[row*stride : row*stride+cw*nc]
				for c := 0; c < nc; c++ {
					s := line[c] / 2
					for u := 1; u < cw; u++ {
						s += line[u*nc+c] * basis[u-1]
					}
					partial[(i*ch+row)*nc+c] = s
				}
			}
		}
	})

	parallelFor(r.Workers, vh, func(start, end int) {
		for j := start; j < end; j++ {
			basis := bh.Row(j)
			for i := 0; i < vw; i++ {
				column := partial[i*ch*nc : (i+1)*ch*nc]
				for c := 0; c < nc; c++ {
					s := column[c] / 2
					for v := 1; v < ch; v++ {
						s += column[v*nc+c] * basis[v-1]
					}
					out.Pix[(j*vw+i)*nc+c] = s * norm
				}
			}
		}
	})
}

// columnsFirst evaluates the same double sum with the height basis applied first.
func (r *Reconstructor) columnsFirst(coef *core.Coefficients, bw, bh *BasisTable, out *core.Samples) {
	const nc = core.Channels
	cw, ch := bw.Freqs, bh.Freqs
	vw, vh := bw.Samples, bh.Samples
	stride := coef.Width * nc
	norm := 255 / float64(coef.Width*coef.Height)

	// partial[(j*cw+col)*nc+c]
	partial := make([]float64, vh*cw*nc)
	parallelFor(r.Workers, vh, func(start, end int) {
		for j := start; j < end; j++ {
			basis := bh.Row(j)
			for col := 0; col < cw; col++ {
				for c := 0; c < nc; c++ {
					s := coef.Data[col*nc+c] / 2
					for v := 1; v < ch; v++ {
						s += coef.Data[v*stride+col*nc+c] * basis[v-1]
					}
					partial[(j*cw+col)*nc+c] = s
				}
			}
		}
	})

	parallelFor(r.Workers, vh, func(start, end int) {
		for j := start; j < end; j++ {
			row := partial[j*cw*nc : (j+1)*cw*nc]
			for i := 0; i < vw; i++ {
				basis := bw.Row(i)
				for c := 0; c < nc; c++ {
					s := row[c] / 2
					for u := 1; u < cw; u++ {
						s += row[u*nc+c] * basis[u-1]
					}
					out.Pix[(j*vw+i)*nc+c] = s * norm
				}
			}
		}
	})
}
