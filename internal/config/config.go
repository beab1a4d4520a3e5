// Package config resolves zoom settings from defaults, config files, presets and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"cosine-zoom/internal/algorithms"
)

var (
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrUnknownPreset    = errors.New("unknown preset")
)

// Config is the raw, string-typed configuration as written in files and flags.
type Config struct {
	Scale       string `toml:"scale" yaml:"scale"`
	Viewport    string `toml:"viewport" yaml:"viewport"`
	Offset      string `toml:"offset" yaml:"offset"`
	Centered    bool   `toml:"centered" yaml:"centered"`
	Basis       string `toml:"basis" yaml:"basis"`
	ShowSamples string `toml:"showsamples" yaml:"showsamples"`
	PassOrder   string `toml:"pass_order" yaml:"pass_order"`
	Codec       string `toml:"codec" yaml:"codec"`
	Workers     int    `toml:"workers" yaml:"workers"`
	Report      bool   `toml:"report" yaml:"report"`

	Log     LogConfig         `toml:"log" yaml:"log"`
	Presets map[string]Preset `toml:"presets" yaml:"presets"`
}

type LogConfig struct {
	Debug bool `toml:"debug" yaml:"debug"`
	// Format is "text" or "json". Empty picks text for debug runs and json otherwise.
	Format string `toml:"format" yaml:"format"`
}

// Preset is a named bundle of settings. Empty fields leave the current value alone.
type Preset struct {
	Scale       string `toml:"scale" yaml:"scale"`
	Basis       string `toml:"basis" yaml:"basis"`
	ShowSamples string `toml:"showsamples" yaml:"showsamples"`
	Centered    *bool  `toml:"centered" yaml:"centered"`
}

var builtinPresets = map[string]Preset{
	"smooth":      {Basis: "interpolated"},
	"pixel":       {Basis: "native", ShowSamples: "grid"},
	"centered":    {Basis: "centered", Centered: lo.ToPtr(true)},
	"orthonormal": {Basis: "unitary"},
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Scale:     "1/1",
		Basis:     "interpolated",
		PassOrder: "rows",
		Codec:     "opencv",
	}
}

// Load reads a TOML (.toml) or YAML (.yaml, .yml) file on top of the defaults.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("%w: %s: unknown keys %v", ErrInvalidArguments, path, undecoded)
		}
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, path, err)
		}
	default:
		return Config{}, fmt.Errorf("%w: config file %q must be .toml, .yaml or .yml", ErrInvalidArguments, path)
	}
	return cfg, nil
}

// LookupPreset finds a preset by exact name. Presets from the config file shadow
// the built-in ones.
func (c *Config) LookupPreset(name string) (Preset, error) {
	if p, ok := c.Presets[name]; ok {
		return p, nil
	}
	if p, ok := builtinPresets[name]; ok {
		return p, nil
	}
	return Preset{}, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownPreset, name, strings.Join(c.PresetNames(), ", "))
}

// PresetNames lists every preset visible to c in sorted order.
func (c *Config) PresetNames() []string {
	names := lo.Uniq(append(lo.Keys(builtinPresets), lo.Keys(c.Presets)...))
	sort.Strings(names)
	return names
}

// ApplyPreset overlays the named preset onto c.
func (c *Config) ApplyPreset(name string) error {
	p, err := c.LookupPreset(name)
	if err != nil {
		return err
	}
	if p.Scale != "" {
		c.Scale = p.Scale
	}
	if p.Basis != "" {
		c.Basis = p.Basis
	}
	if p.ShowSamples != "" {
		c.ShowSamples = p.ShowSamples
	}
	if p.Centered != nil {
		c.Centered = *p.Centered
	}
	return nil
}

// Settings is the validated, typed form of a Config.
type Settings struct {
	Scale    algorithms.Scale
	Width    int // 0 derives the width from the scale
	Height   int // 0 derives the height from the scale
	X        float64
	Y        float64
	Centered bool
	Basis    algorithms.BasisMode
	Overlay  algorithms.OverlayMode
	Order    algorithms.PassOrder
	Workers  int
	Codec    string
	Report   bool
}

// Resolve parses and validates every field. The scale is checked first, so a
// zero denominator is reported as an invalid scale before anything else.
func (c *Config) Resolve() (Settings, error) {
	var s Settings
	var err error

	if s.Scale, err = ParseScale(c.Scale); err != nil {
		return Settings{}, err
	}
	if err := s.Scale.Validate(); err != nil {
		return Settings{}, err
	}

	if c.Viewport != "" {
		if s.Width, s.Height, err = ParseViewport(c.Viewport); err != nil {
			return Settings{}, err
		}
	}
	if c.Offset != "" {
		if s.X, s.Y, err = ParseOffset(c.Offset); err != nil {
			return Settings{}, err
		}
	}

	if s.Basis, err = algorithms.LookupBasis(c.Basis); err != nil {
		return Settings{}, err
	}
	if s.Overlay, err = algorithms.LookupOverlay(c.ShowSamples); err != nil {
		return Settings{}, err
	}
	if s.Order, err = algorithms.LookupPassOrder(c.PassOrder); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	if c.Workers < 0 {
		return Settings{}, fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidArguments, c.Workers)
	}

	s.Centered = c.Centered
	s.Workers = c.Workers
	s.Codec = c.Codec
	s.Report = c.Report
	return s, nil
}
