// Fidelity metrics comparing a reconstruction against its source
package metrics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"

	"cosine-zoom/internal/core"
)

var (
	ErrUnknownMetric = errors.New("metric not found")
	ErrSizeMismatch  = errors.New("image dimensions mismatch")
	ErrOutOfRange    = errors.New("metric value out of range")
)

// Metric defines the interface for quality metrics
type Metric interface {
	// Calculate computes the metric value
	Calculate(original, processed *core.Raster) (float64, error)

	GetName() string
	GetDescription() string

	// GetRange returns the minimum and maximum possible values
	GetRange() (float64, float64)

	// IsHigherBetter returns true if higher values indicate better quality
	IsHigherBetter() bool
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates an evaluator with the default metrics registered.
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}
	e.RegisterDefaultMetrics()
	return e
}

func (e *Evaluator) RegisterDefaultMetrics() {
	e.Register(NewPSNR())
	e.Register(NewMSE())
	e.Register(NewMaxError())
	e.Register(NewSSIM())
}

func (e *Evaluator) Register(metric Metric) {
	e.metrics[metric.GetName()] = metric
}

// Names lists registered metrics in sorted order.
func (e *Evaluator) Names() []string {
	names := lo.Keys(e.metrics)
	sort.Strings(names)
	return names
}

// Get returns the named metric.
func (e *Evaluator) Get(name string) (Metric, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
	}
	return metric, nil
}

// CheckRange reports a value outside the range the named metric can produce.
func (e *Evaluator) CheckRange(name string, value float64) error {
	metric, err := e.Get(name)
	if err != nil {
		return err
	}
	lo, hi := metric.GetRange()
	if math.IsNaN(value) || value < lo || value > hi {
		return fmt.Errorf("%w: %s = %v, want [%v, %v]", ErrOutOfRange, name, value, lo, hi)
	}
	return nil
}

// Calculate calculates a specific metric
func (e *Evaluator) Calculate(name string, original, processed *core.Raster) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
	}
	return metric.Calculate(original, processed)
}

// CalculateAll calculates every registered metric. The first failure aborts.
func (e *Evaluator) CalculateAll(original, processed *core.Raster) (map[string]float64, error) {
	results := make(map[string]float64, len(e.metrics))
	for _, name := range e.Names() {
		value, err := e.metrics[name].Calculate(original, processed)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		results[name] = value
	}
	return results, nil
}

func checkSameSize(original, processed *core.Raster) error {
	if original == nil || processed == nil || len(original.Pix) == 0 || len(processed.Pix) == 0 {
		return fmt.Errorf("empty images")
	}
	if original.Width != processed.Width || original.Height != processed.Height {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch,
			original.Width, original.Height, processed.Width, processed.Height)
	}
	return nil
}
