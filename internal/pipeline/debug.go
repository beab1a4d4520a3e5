// Stage timing and failure tracking for a single zoom run
package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// StageTiming records one executed pipeline stage.
type StageTiming struct {
	Stage    string
	Duration time.Duration
	Success  bool
	Error    string
}

// Tracker runs stages in order and remembers how long each took.
type Tracker struct {
	logger logrus.FieldLogger
	stages []StageTiming
}

func NewTracker(logger logrus.FieldLogger) *Tracker {
	return &Tracker{
		logger: logger,
		stages: make([]StageTiming, 0, 8),
	}
}

// Track runs fn as the named stage. A cancelled context stops the run before the
// stage starts; stages themselves are not interrupted.
func (t *Tracker) Track(ctx context.Context, stage string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		t.logger.WithField("stage", stage).Debug("Skipping stage, context done")
		return err
	}

	start := time.Now()
	err := fn()
	timing := StageTiming{
		Stage:    stage,
		Duration: time.Since(start),
		Success:  err == nil,
	}
	if err != nil {
		timing.Error = err.Error()
	}
	t.stages = append(t.stages, timing)

	entry := t.logger.WithFields(logrus.Fields{
		"stage":       stage,
		"duration_ms": float64(timing.Duration.Microseconds()) / 1000,
	})
	if err != nil {
		entry.WithError(err).Error("Stage failed")
	} else {
		entry.Debug("Stage complete")
	}
	return err
}

// Stages returns a copy of the recorded timings.
func (t *Tracker) Stages() []StageTiming {
	out := make([]StageTiming, len(t.stages))
	copy(out, t.stages)
	return out
}

// Total is the summed duration of every recorded stage.
func (t *Tracker) Total() time.Duration {
	var total time.Duration
	for _, s := range t.stages {
		total += s.Duration
	}
	return total
}
