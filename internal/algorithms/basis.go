package algorithms

import (
	"fmt"
	"math"
)

// BasisTable holds cos(phase(i, f)) for every viewport sample i and retained
// frequency f in [1, Freqs). The DC term (f = 0) is not stored.
type BasisTable struct {
	Samples int
	Freqs   int
	values  []float64
}

// Row returns the Freqs-1 basis values for sample i, indexed by f-1.
func (t *BasisTable) Row(i int) []float64 {
	n := t.Freqs - 1
	return t.values[i*n : (i+1)*n]
}

// At returns the basis value for sample i and frequency f (f >= 1).
func (t *BasisTable) At(i, f int) float64 {
	return t.values[i*(t.Freqs-1)+f-1]
}

// Phase returns the cosine phase for viewport sample i and frequency f along an axis.
//
//	interpolated: (i/s + off + 0.5) * f*pi/dim
//	centered:     (p(i) + off + 0.5) * f*pi/dim, p maps the viewport center onto the source center
//	native:       (i + off + 0.5) * f*pi/(s*dim)
//	unitary:      ((f-1)*i/(s*dim) + off + 0.5) * (f-1)*pi/f
func Phase(mode BasisMode, axis Axis, scale Scale, i, f int) float64 {
	s := scale.Factor()
	dim := float64(axis.Source)
	fi, ff := float64(i), float64(f)

	switch mode {
	case Centered:
		step := 1 / s
		if span := dim*s - 1; span > 0 {
			step = (dim - 1) / span
		}
		p := (dim-1)/2 + (fi-float64(axis.Samples-1)/2)*step
		return (p + axis.Offset + 0.5) * ff * math.Pi / dim
	case Native:
		return (fi + axis.Offset + 0.5) * ff * math.Pi / (s * dim)
	case Unitary:
		return ((ff-1)*fi/(s*dim) + axis.Offset + 0.5) * (ff - 1) * math.Pi / ff
	default:
		return (fi/s + axis.Offset + 0.5) * ff * math.Pi / dim
	}
}

// GenerateBasis builds the basis table for one axis. The scale is validated before
// anything is allocated.
func GenerateBasis(axis Axis, scale Scale, mode BasisMode, workers int) (*BasisTable, error) {
	if err := scale.Validate(); err != nil {
		return nil, err
	}
	if err := axis.validate(); err != nil {
		return nil, err
	}
	if mode < Interpolated || mode > Unitary {
		return nil, fmt.Errorf("%w: %v", ErrUnknownBasis, mode)
	}

	freqs := Retained(axis.Source, scale)
	t := &BasisTable{
		Samples: axis.Samples,
		Freqs:   freqs,
		values:  make([]float64, axis.Samples*(freqs-1)),
	}
	if freqs == 1 {
		return t, nil
	}

	parallelFor(workers, axis.Samples, func(start, end int) {
		for i := start; i < end; i++ {
			row := t.Row(i)
			for f := 1; f < freqs; f++ {
				row[f-1] = math.Cos(Phase(mode, axis, scale, i, f))
			}
		}
	})
	return t, nil
}
