package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosine-zoom/internal/algorithms"
	"cosine-zoom/internal/config"
	"cosine-zoom/internal/core"
)

func newLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func randomImage(t *testing.T, width, height int, seed int64) *core.Image {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img, err := core.NewImage(width, height)
	require.NoError(t, err)
	for i := range img.Pix {
		img.Pix[i] = float64(rng.Intn(256)) / 255
	}
	return img
}

func settings(scale algorithms.Scale, basis algorithms.BasisMode) config.Settings {
	return config.Settings{Scale: scale, Basis: basis, Order: algorithms.RowsFirst}
}

func messages(hook *test.Hook) []string {
	var out []string
	for _, e := range hook.AllEntries() {
		out = append(out, e.Message)
	}
	return out
}

func TestResolveViewport(t *testing.T) {
	double := algorithms.Scale{Num: 2, Den: 1}

	vp, err := ResolveViewport(5, 3, settings(double, algorithms.Interpolated))
	require.NoError(t, err)
	assert.Equal(t, 10, vp.Width)
	assert.Equal(t, 6, vp.Height)

	s := settings(algorithms.Scale{Num: 3, Den: 4}, algorithms.Native)
	s.Width, s.X, s.Y = 7, 1.5, -2
	vp, err = ResolveViewport(10, 10, s)
	require.NoError(t, err)
	assert.Equal(t, 7, vp.Width)
	assert.Equal(t, 7, vp.Height, "floor(10*3/4)")
	assert.Equal(t, 1.5, vp.X)
	assert.Equal(t, -2.0, vp.Y)

	s = settings(double, algorithms.Centered)
	s.Width, s.Height, s.X, s.Y, s.Centered = 8, 6, 2, 1, true
	vp, err = ResolveViewport(4, 4, s)
	require.NoError(t, err)
	assert.Equal(t, 0.0, vp.X)
	assert.Equal(t, -1.0, vp.Y)
}

func TestResolveViewportRejects(t *testing.T) {
	_, err := ResolveViewport(4, 4, settings(algorithms.Scale{Num: 1, Den: 10}, algorithms.Interpolated))
	assert.ErrorIs(t, err, algorithms.ErrInvalidViewport)

	_, err = ResolveViewport(4, 4, settings(algorithms.Scale{Num: 1, Den: 0}, algorithms.Interpolated))
	assert.ErrorIs(t, err, algorithms.ErrInvalidScale)
}

func TestRunIdentity(t *testing.T) {
	logger, hook := newLogger()
	img := randomImage(t, 6, 5, 3)

	s := settings(algorithms.Unit, algorithms.Native)
	s.Report = true
	res, err := New(s, logger).Run(context.Background(), img)
	require.NoError(t, err)

	assert.Equal(t, algorithms.QuantizeImage(img).Pix, res.Raster.Pix)
	assert.Same(t, res.Raster, res.Display)
	require.NotNil(t, res.Metrics)
	assert.Zero(t, res.Metrics["mse"])
	assert.Zero(t, res.Metrics["max_error"])
	assert.InDelta(t, 1.0, res.Metrics["ssim"], 1e-12)

	var stages []string
	for _, st := range res.Stages {
		assert.True(t, st.Success)
		stages = append(stages, st.Stage)
	}
	assert.Equal(t, []string{"transform", "basis", "reconstruct", "quantize", "report"}, stages)
	assert.Contains(t, messages(hook), "Fidelity report")
	assert.NotContains(t, messages(hook), "Metric outside its range")
	assert.Equal(t, "Zoom complete", hook.LastEntry().Message)

	described := map[string]logrus.Fields{}
	for _, e := range hook.AllEntries() {
		if e.Message == "Metric" {
			described[e.Data["metric"].(string)] = e.Data
		}
	}
	require.Contains(t, described, "psnr")
	assert.NotEmpty(t, described["psnr"]["description"])
	assert.Equal(t, true, described["psnr"]["higher_is_better"])
	assert.Equal(t, "+Inf", described["psnr"]["value"])
	assert.Equal(t, false, described["mse"]["higher_is_better"])
	assert.Equal(t, "[-1, 1]", described["ssim"]["range"])
}

func TestRunCoefficientsMatchesRun(t *testing.T) {
	logger, _ := newLogger()
	img := randomImage(t, 7, 4, 9)
	p := New(settings(algorithms.Scale{Num: 3, Den: 2}, algorithms.Interpolated), logger)

	direct, err := p.Run(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, 10, direct.Raster.Width)
	assert.Equal(t, 6, direct.Raster.Height)

	again, err := p.RunCoefficients(context.Background(), direct.Coefficients)
	require.NoError(t, err)
	assert.Equal(t, direct.Raster.Pix, again.Raster.Pix)
	assert.Nil(t, again.Metrics)
}

func TestRunPassOrderAgrees(t *testing.T) {
	logger, _ := newLogger()
	img := randomImage(t, 5, 6, 21)

	s := settings(algorithms.Scale{Num: 5, Den: 3}, algorithms.Centered)
	rows, err := New(s, logger).Run(context.Background(), img)
	require.NoError(t, err)

	s.Order = algorithms.ColumnsFirst
	cols, err := New(s, logger).Run(context.Background(), img)
	require.NoError(t, err)

	for i := range rows.Raster.Pix {
		assert.InDelta(t, rows.Raster.Pix[i], cols.Raster.Pix[i], 1, "sample %d", i)
	}
}

func TestRunOverlayLeavesRasterAlone(t *testing.T) {
	logger, _ := newLogger()
	img := randomImage(t, 4, 4, 5)
	double := algorithms.Scale{Num: 2, Den: 1}

	plain, err := New(settings(double, algorithms.Interpolated), logger).Run(context.Background(), img)
	require.NoError(t, err)

	s := settings(double, algorithms.Interpolated)
	s.Overlay = algorithms.OverlayGrid
	marked, err := New(s, logger).Run(context.Background(), img)
	require.NoError(t, err)

	assert.Equal(t, plain.Raster.Pix, marked.Raster.Pix)
	assert.NotSame(t, marked.Raster, marked.Display)
	assert.Equal(t, algorithms.Marker, marked.Display.Pixel(0, 0))
	assert.Equal(t, algorithms.Marker, marked.Display.Pixel(2, 5))
	assert.Equal(t, marked.Raster.Pixel(1, 1), marked.Display.Pixel(1, 1))
}

func TestRunReportSkippedForResampledViewport(t *testing.T) {
	logger, hook := newLogger()
	s := settings(algorithms.Scale{Num: 2, Den: 1}, algorithms.Interpolated)
	s.Report = true

	res, err := New(s, logger).Run(context.Background(), randomImage(t, 3, 3, 1))
	require.NoError(t, err)
	assert.Nil(t, res.Metrics)
	assert.Contains(t, messages(hook), "Fidelity report needs a viewport of the source size, skipped")
}

func TestRunRejects(t *testing.T) {
	logger, _ := newLogger()

	_, err := New(settings(algorithms.Unit, algorithms.Native), logger).Run(context.Background(), &core.Image{})
	assert.ErrorIs(t, err, algorithms.ErrInvalidViewport)

	_, err = New(settings(algorithms.Scale{Num: 1, Den: 8}, algorithms.Native), logger).
		Run(context.Background(), randomImage(t, 4, 4, 2))
	assert.ErrorIs(t, err, algorithms.ErrInvalidViewport)

	_, err = New(settings(algorithms.Unit, algorithms.Native), logger).RunCoefficients(context.Background(), nil)
	assert.ErrorIs(t, err, algorithms.ErrInvalidViewport)

	_, err = New(settings(algorithms.Unit, algorithms.BasisMode(42)), logger).
		Run(context.Background(), randomImage(t, 2, 2, 2))
	assert.ErrorIs(t, err, algorithms.ErrUnknownBasis)
}

func TestRunCancelled(t *testing.T) {
	logger, _ := newLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(settings(algorithms.Unit, algorithms.Native), logger).Run(ctx, randomImage(t, 2, 2, 4))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestTrackerRecordsFailures(t *testing.T) {
	logger, hook := newLogger()
	tracker := NewTracker(logger)
	boom := errors.New("boom")

	require.NoError(t, tracker.Track(context.Background(), "first", func() error { return nil }))
	assert.ErrorIs(t, tracker.Track(context.Background(), "second", func() error { return boom }), boom)

	stages := tracker.Stages()
	require.Len(t, stages, 2)
	assert.True(t, stages[0].Success)
	assert.False(t, stages[1].Success)
	assert.Equal(t, "boom", stages[1].Error)
	assert.GreaterOrEqual(t, tracker.Total(), stages[0].Duration)

	last := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, last.Level)
	assert.Equal(t, "second", last.Data["stage"])
}
