package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosine-zoom/internal/algorithms"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseScale(t *testing.T) {
	cases := []struct {
		in   string
		want algorithms.Scale
	}{
		{"2/1", algorithms.Scale{Num: 2, Den: 1}},
		{"1.5/4", algorithms.Scale{Num: 1.5, Den: 4}},
		{"3", algorithms.Scale{Num: 3, Den: 1}},
		{" 1 / 2 ", algorithms.Scale{Num: 1, Den: 2}},
		{"1/0", algorithms.Scale{Num: 1, Den: 0}},
	}
	for _, tc := range cases {
		got, err := ParseScale(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "a/2", "2/b", "2/-1", "2/1.5"} {
		_, err := ParseScale(bad)
		assert.ErrorIs(t, err, ErrInvalidArguments, bad)
	}
}

func TestParseViewport(t *testing.T) {
	w, h, err := ParseViewport("640x480")
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)

	for _, bad := range []string{"", "640", "x480", "640x", "axb", "1.5x2"} {
		_, _, err := ParseViewport(bad)
		assert.ErrorIs(t, err, ErrInvalidArguments, bad)
	}
	for _, degenerate := range []string{"0x4", "4x0", "-1x4"} {
		_, _, err := ParseViewport(degenerate)
		assert.ErrorIs(t, err, algorithms.ErrInvalidViewport, degenerate)
	}
}

func TestParseOffset(t *testing.T) {
	x, y, err := ParseOffset("1.5x-2")
	require.NoError(t, err)
	assert.Equal(t, 1.5, x)
	assert.Equal(t, -2.0, y)

	for _, bad := range []string{"", "1.5", "nanx1", "1xinf", "1x"} {
		_, _, err := ParseOffset(bad)
		assert.ErrorIs(t, err, ErrInvalidArguments, bad)
	}
}

func TestResolveDefaults(t *testing.T) {
	cfg := Default()
	s, err := cfg.Resolve()
	require.NoError(t, err)

	assert.Equal(t, algorithms.Unit, s.Scale)
	assert.Zero(t, s.Width)
	assert.Zero(t, s.Height)
	assert.Equal(t, algorithms.Interpolated, s.Basis)
	assert.Equal(t, algorithms.OverlayNone, s.Overlay)
	assert.Equal(t, algorithms.RowsFirst, s.Order)
	assert.Equal(t, "opencv", s.Codec)
}

func TestResolveErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero denominator", func(c *Config) { c.Scale = "3/0" }, algorithms.ErrInvalidScale},
		{"negative scale", func(c *Config) { c.Scale = "-1" }, algorithms.ErrInvalidScale},
		{"garbage scale", func(c *Config) { c.Scale = "big" }, ErrInvalidArguments},
		{"scale checked first", func(c *Config) { c.Scale = "1/0"; c.Viewport = "bad" }, algorithms.ErrInvalidScale},
		{"degenerate viewport", func(c *Config) { c.Viewport = "0x10" }, algorithms.ErrInvalidViewport},
		{"bad offset", func(c *Config) { c.Offset = "1,2" }, ErrInvalidArguments},
		{"unknown basis", func(c *Config) { c.Basis = "lanczos" }, algorithms.ErrUnknownBasis},
		{"unknown overlay", func(c *Config) { c.ShowSamples = "3" }, algorithms.ErrUnknownOverlay},
		{"unknown pass order", func(c *Config) { c.PassOrder = "zigzag" }, ErrInvalidArguments},
		{"negative workers", func(c *Config) { c.Workers = -2 }, ErrInvalidArguments},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := cfg.Resolve()
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPresets(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyPreset("pixel"))
	assert.Equal(t, "native", cfg.Basis)
	assert.Equal(t, "grid", cfg.ShowSamples)

	require.NoError(t, cfg.ApplyPreset("centered"))
	assert.Equal(t, "centered", cfg.Basis)
	assert.True(t, cfg.Centered)
	assert.Equal(t, "grid", cfg.ShowSamples, "presets leave unset fields alone")

	err := cfg.ApplyPreset("Pixel")
	assert.ErrorIs(t, err, ErrUnknownPreset)
	assert.Equal(t, []string{"centered", "orthonormal", "pixel", "smooth"}, cfg.PresetNames())
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "zoom.toml", `
scale = "3/2"
basis = "native"
workers = 4

[log]
format = "text"

[presets.thumb]
scale = "1/4"
basis = "centered"

[presets.pixel]
basis = "unitary"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "3/2", cfg.Scale)
	assert.Equal(t, "native", cfg.Basis)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "rows", cfg.PassOrder, "defaults survive")

	require.NoError(t, cfg.ApplyPreset("thumb"))
	assert.Equal(t, "1/4", cfg.Scale)

	require.NoError(t, cfg.ApplyPreset("pixel"))
	assert.Equal(t, "unitary", cfg.Basis, "file presets shadow built-ins")
	assert.Contains(t, cfg.PresetNames(), "thumb")
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "zoom.yaml", `
scale: "2"
offset: "0.5x0.5"
centered: true
showsamples: point
presets:
  crisp:
    basis: native
    centered: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	s, err := cfg.Resolve()
	require.NoError(t, err)
	assert.Equal(t, algorithms.Scale{Num: 2, Den: 1}, s.Scale)
	assert.Equal(t, 0.5, s.X)
	assert.True(t, s.Centered)
	assert.Equal(t, algorithms.OverlayPoints, s.Overlay)

	require.NoError(t, cfg.ApplyPreset("crisp"))
	assert.False(t, cfg.Centered)
}

func TestLoadRejects(t *testing.T) {
	_, err := Load(writeFile(t, "zoom.toml", "scael = \"2\"\n"))
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = Load(writeFile(t, "zoom.yml", "scael: 2\n"))
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = Load(writeFile(t, "zoom.ini", "scale=2\n"))
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, ErrInvalidArguments)
}
