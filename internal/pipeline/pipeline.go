// Package pipeline wires the transform, basis, reconstruction, quantize and overlay
// stages into a single zoom run.
package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"cosine-zoom/internal/algorithms"
	"cosine-zoom/internal/config"
	"cosine-zoom/internal/core"
	"cosine-zoom/internal/metrics"
)

// Result holds everything a run produced.
type Result struct {
	Viewport     algorithms.Viewport
	Coefficients *core.Coefficients
	Raster       *core.Raster       // quantized reconstruction
	Display      *core.Raster       // Raster with the sample overlay, or Raster itself
	Metrics      map[string]float64 // nil unless a report was requested and possible
	Stages       []StageTiming
}

type Pipeline struct {
	settings  config.Settings
	logger    logrus.FieldLogger
	evaluator *metrics.Evaluator
}

func New(settings config.Settings, logger logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		settings:  settings,
		logger:    logger,
		evaluator: metrics.NewEvaluator(),
	}
}

// ResolveViewport fills in the viewport for a source of the given size. A zero
// width or height is derived as floor(dim*scale). With Centered the offset is
// taken in scaled units and shifted so it lands in the middle of the viewport.
func ResolveViewport(srcWidth, srcHeight int, s config.Settings) (algorithms.Viewport, error) {
	if err := s.Scale.Validate(); err != nil {
		return algorithms.Viewport{}, err
	}

	vp := algorithms.Viewport{
		Width:  s.Width,
		Height: s.Height,
		X:      s.X,
		Y:      s.Y,
		Scale:  s.Scale,
	}
	if vp.Width == 0 {
		vp.Width = s.Scale.Scaled(srcWidth)
	}
	if vp.Height == 0 {
		vp.Height = s.Scale.Scaled(srcHeight)
	}
	if s.Centered {
		f := s.Scale.Factor()
		vp.X = s.X*f - float64(vp.Width)/2
		vp.Y = s.Y*f - float64(vp.Height)/2
	}

	if err := vp.Validate(); err != nil {
		return algorithms.Viewport{}, err
	}
	return vp, nil
}

// Run transforms img and reconstructs it into the configured viewport.
func (p *Pipeline) Run(ctx context.Context, img *core.Image) (*Result, error) {
	if err := core.ValidateImage(img); err != nil {
		return nil, fmt.Errorf("%w: %w", algorithms.ErrInvalidViewport, err)
	}

	// Fail on geometry before paying for the transform.
	if _, err := ResolveViewport(img.Width, img.Height, p.settings); err != nil {
		return nil, err
	}

	tracker := NewTracker(p.logger)
	var coef *core.Coefficients
	err := tracker.Track(ctx, "transform", func() error {
		var err error
		coef, err = algorithms.ForwardDCT(img, p.settings.Workers)
		return err
	})
	if err != nil {
		return nil, err
	}

	res, err := p.reconstruct(ctx, tracker, coef)
	if err != nil {
		return nil, err
	}

	if p.settings.Report {
		err = tracker.Track(ctx, "report", func() error {
			var err error
			res.Metrics, err = p.report(img, res)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	res.Stages = tracker.Stages()
	p.logSummary(res, tracker)
	return res, nil
}

// RunCoefficients reconstructs from previously computed coefficients, skipping the
// transform. No report is possible since the source pixels are unknown.
func (p *Pipeline) RunCoefficients(ctx context.Context, coef *core.Coefficients) (*Result, error) {
	if err := core.ValidateCoefficients(coef); err != nil {
		return nil, fmt.Errorf("%w: %w", algorithms.ErrInvalidViewport, err)
	}

	tracker := NewTracker(p.logger)
	res, err := p.reconstruct(ctx, tracker, coef)
	if err != nil {
		return nil, err
	}
	if p.settings.Report {
		p.logger.Warn("Fidelity report needs source pixels, skipped for coefficient input")
	}

	res.Stages = tracker.Stages()
	p.logSummary(res, tracker)
	return res, nil
}

func (p *Pipeline) reconstruct(ctx context.Context, tracker *Tracker, coef *core.Coefficients) (*Result, error) {
	vp, err := ResolveViewport(coef.Width, coef.Height, p.settings)
	if err != nil {
		return nil, err
	}
	res := &Result{Viewport: vp, Coefficients: coef}

	p.logger.WithFields(logrus.Fields{
		"source":   fmt.Sprintf("%dx%d", coef.Width, coef.Height),
		"viewport": fmt.Sprintf("%dx%d", vp.Width, vp.Height),
		"offset":   fmt.Sprintf("%gx%g", vp.X, vp.Y),
		"scale":    vp.Scale.String(),
		"basis":    p.settings.Basis.String(),
		"order":    p.settings.Order.String(),
	}).Debug("Reconstructing")

	axisW, axisH := vp.Axes(coef.Width, coef.Height)
	var bw, bh *algorithms.BasisTable
	err = tracker.Track(ctx, "basis", func() error {
		var err error
		if bw, err = algorithms.GenerateBasis(axisW, vp.Scale, p.settings.Basis, p.settings.Workers); err != nil {
			return err
		}
		bh, err = algorithms.GenerateBasis(axisH, vp.Scale, p.settings.Basis, p.settings.Workers)
		return err
	})
	if err != nil {
		return nil, err
	}

	rec := &algorithms.Reconstructor{Workers: p.settings.Workers, Order: p.settings.Order}
	var samples *core.Samples
	err = tracker.Track(ctx, "reconstruct", func() error {
		var err error
		samples, err = rec.Reconstruct(coef, bw, bh)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = tracker.Track(ctx, "quantize", func() error {
		res.Raster = algorithms.Quantize(samples)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Display = res.Raster
	if p.settings.Overlay != algorithms.OverlayNone {
		err = tracker.Track(ctx, "overlay", func() error {
			var err error
			res.Display, err = algorithms.OverlayViewport(res.Raster, p.settings.Overlay, vp)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// report compares the reconstruction to the source. It only applies when the
// viewport has the source's size.
func (p *Pipeline) report(img *core.Image, res *Result) (map[string]float64, error) {
	if res.Raster.Width != img.Width || res.Raster.Height != img.Height {
		p.logger.WithFields(logrus.Fields{
			"source":   fmt.Sprintf("%dx%d", img.Width, img.Height),
			"viewport": fmt.Sprintf("%dx%d", res.Raster.Width, res.Raster.Height),
		}).Info("Fidelity report needs a viewport of the source size, skipped")
		return nil, nil
	}

	results, err := p.evaluator.CalculateAll(algorithms.QuantizeImage(img), res.Raster)
	if err != nil {
		return nil, err
	}
	fields := logrus.Fields{}
	for name, v := range results {
		// JSON has no infinity, so a perfect PSNR is logged as "+Inf".
		if math.IsInf(v, 0) {
			fields[name] = fmt.Sprint(v)
			continue
		}
		fields[name] = v
	}
	p.logger.WithFields(fields).Info("Fidelity report")

	for _, name := range p.evaluator.Names() {
		metric, err := p.evaluator.Get(name)
		if err != nil {
			return nil, err
		}
		lo, hi := metric.GetRange()
		entry := p.logger.WithFields(logrus.Fields{
			"metric":           name,
			"value":            fields[name],
			"description":      metric.GetDescription(),
			"range":            fmt.Sprintf("[%v, %v]", lo, hi),
			"higher_is_better": metric.IsHigherBetter(),
		})
		if err := p.evaluator.CheckRange(name, results[name]); err != nil {
			entry.WithError(err).Warn("Metric outside its range")
			continue
		}
		entry.Debug("Metric")
	}
	return results, nil
}

func (p *Pipeline) logSummary(res *Result, tracker *Tracker) {
	fields := logrus.Fields{
		"viewport": fmt.Sprintf("%dx%d", res.Viewport.Width, res.Viewport.Height),
		"total_ms": float64(tracker.Total().Microseconds()) / 1000,
	}
	for _, s := range res.Stages {
		fields[s.Stage+"_ms"] = float64(s.Duration.Microseconds()) / 1000
	}
	p.logger.WithFields(fields).Info("Zoom complete")
}
