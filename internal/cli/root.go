// Package cli implements the zoom command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"cosine-zoom/internal/algorithms"
	"cosine-zoom/internal/config"
	"cosine-zoom/internal/core"
	iio "cosine-zoom/internal/io"
	"cosine-zoom/internal/pipeline"
)

const AppName = "zoom"

// App carries the process streams so tests can substitute them.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func NewApp() *App {
	return &App{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

type flagValues struct {
	configPath string
	preset     string
	dumpCoeffs string
	fromCoeffs bool
}

// Execute runs the command with args and returns the process exit status.
func Execute(ctx context.Context, app *App, args []string) int {
	cmd := NewRootCommand(app)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(app.Stderr, "%s: %v\n", AppName, err)
	}
	return ExitCode(err)
}

// NewRootCommand builds a fresh command and flag set. Nothing is shared between
// invocations.
func NewRootCommand(app *App) *cobra.Command {
	var fv flagValues
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   AppName + " [flags] INPUT OUTPUT",
		Short: "Resample an image through its cosine spectrum",
		Long: `Resample an image to an arbitrary rational scale and sub-pixel offset by
reconstructing it from its DCT-II coefficients. Use "-" for standard input or output.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(2)(cmd, args); err != nil {
				cmd.PrintErr(cmd.UsageString())
				return fmt.Errorf("%w: %w", config.ErrInvalidArguments, err)
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveConfig(cmd.Flags(), cfg, fv)
			if err != nil {
				return err
			}
			return run(cmd.Context(), app, resolved, fv, args[0], args[1])
		},
	}
	cmd.SetIn(app.Stdin)
	cmd.SetOut(app.Stdout)
	cmd.SetErr(app.Stderr)
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		cmd.PrintErr(cmd.UsageString())
		return fmt.Errorf("%w: %w", config.ErrInvalidArguments, err)
	})

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.StringVarP(&cfg.Scale, "scale", "s", cfg.Scale, "zoom factor as num/den or num")
	flags.StringVarP(&cfg.Viewport, "viewport", "v", "", "output size WxH (default: source size times scale)")
	flags.StringVarP(&cfg.Offset, "position", "p", "", "viewport origin XxY in source samples")
	flags.BoolVarP(&cfg.Centered, "center", "c", false, "treat --position as the viewport center in scaled units")
	flags.StringVar(&cfg.Basis, "basis", cfg.Basis, "basis mode: "+joinNames(algorithms.BasisNames()))
	flags.StringVar(&cfg.ShowSamples, "showsamples", "", "mark original sample positions: 1|point or 2|grid")
	flags.Lookup("showsamples").NoOptDefVal = "1"

	flags.StringVar(&fv.configPath, "config", "", "TOML or YAML config file")
	flags.StringVar(&fv.preset, "preset", "", "named settings bundle")
	flags.StringVar(&cfg.Codec, "codec", cfg.Codec, "image codec: "+joinNames(iio.CodecNames()))
	flags.IntVar(&cfg.Workers, "workers", 0, "worker goroutines (0 = GOMAXPROCS)")
	flags.StringVar(&cfg.PassOrder, "pass-order", cfg.PassOrder, "reconstruction order: rows or columns")
	flags.StringVar(&fv.dumpCoeffs, "dump-coeffs", "", "also write the DCT coefficients to FILE")
	flags.BoolVar(&fv.fromCoeffs, "from-coeffs", false, "INPUT is a coefficient file written by --dump-coeffs")
	flags.BoolVar(&cfg.Report, "report", false, "log PSNR, MSE and SSIM against the source when sizes match")
	flags.BoolVar(&cfg.Log.Debug, "debug", false, "enable debug logging")
	flags.StringVar(&cfg.Log.Format, "log-format", "", "log format: text or json")

	return cmd
}

// resolveConfig layers defaults, the config file, the preset and explicitly set
// flags, in that order. flagCfg holds the parsed flag values.
func resolveConfig(flags *pflag.FlagSet, flagCfg config.Config, fv flagValues) (config.Config, error) {
	cfg := config.Default()
	if fv.configPath != "" {
		loaded, err := config.Load(fv.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if fv.preset != "" {
		if err := cfg.ApplyPreset(fv.preset); err != nil {
			return config.Config{}, fmt.Errorf("%w: %w", config.ErrInvalidArguments, err)
		}
	}

	overrides := map[string]func(){
		"scale":       func() { cfg.Scale = flagCfg.Scale },
		"viewport":    func() { cfg.Viewport = flagCfg.Viewport },
		"position":    func() { cfg.Offset = flagCfg.Offset },
		"center":      func() { cfg.Centered = flagCfg.Centered },
		"basis":       func() { cfg.Basis = flagCfg.Basis },
		"showsamples": func() { cfg.ShowSamples = flagCfg.ShowSamples },
		"codec":       func() { cfg.Codec = flagCfg.Codec },
		"workers":     func() { cfg.Workers = flagCfg.Workers },
		"pass-order":  func() { cfg.PassOrder = flagCfg.PassOrder },
		"report":      func() { cfg.Report = flagCfg.Report },
		"debug":       func() { cfg.Log.Debug = flagCfg.Log.Debug },
		"log-format":  func() { cfg.Log.Format = flagCfg.Log.Format },
	}
	flags.Visit(func(f *pflag.Flag) {
		if apply, ok := overrides[f.Name]; ok {
			apply()
		}
	})
	return cfg, nil
}

func run(ctx context.Context, app *App, cfg config.Config, fv flagValues, input, output string) error {
	logger, err := initLogger(cfg.Log, app.Stderr)
	if err != nil {
		return err
	}

	// Everything that can be checked without pixels is checked before decoding.
	settings, err := cfg.Resolve()
	if err != nil {
		return err
	}
	codec, err := iio.GetCodec(settings.Codec)
	if err != nil {
		return err
	}
	loader := iio.NewImageLoader(logger, codec).WithStreams(app.Stdin, app.Stdout)
	if err := loader.CheckOutputPath(output); err != nil {
		return err
	}
	if fv.fromCoeffs && fv.dumpCoeffs != "" {
		return fmt.Errorf("%w: --dump-coeffs and --from-coeffs are exclusive", config.ErrInvalidArguments)
	}

	logger.WithFields(logrus.Fields{
		"input":  input,
		"output": output,
		"scale":  settings.Scale.String(),
		"basis":  settings.Basis.String(),
		"codec":  codec.Name(),
	}).Debug("Starting zoom")

	p := pipeline.New(settings, logger)
	var res *pipeline.Result
	if fv.fromCoeffs {
		var coef *core.Coefficients
		if coef, err = loader.LoadCoefficients(input); err != nil {
			return err
		}
		res, err = p.RunCoefficients(ctx, coef)
	} else {
		var img *core.Image
		if img, err = loader.LoadImage(input); err != nil {
			return err
		}
		res, err = p.Run(ctx, img)
	}
	if err != nil {
		return err
	}

	if fv.dumpCoeffs != "" {
		if err := iio.SaveCoefficients(res.Coefficients, fv.dumpCoeffs); err != nil {
			return fmt.Errorf("%w: %s: %v", iio.ErrEncode, fv.dumpCoeffs, err)
		}
		logger.WithField("path", fv.dumpCoeffs).Info("Coefficients saved successfully")
	}

	return loader.SaveImage(res.Display, output)
}

// initLogger builds the process logger. Logs always go to stderr since stdout may
// carry image data.
func initLogger(cfg config.LogConfig, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	format := cfg.Format
	if format == "" {
		format = "json"
		if cfg.Debug {
			format = "text"
		}
	}
	switch format {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		return nil, fmt.Errorf("%w: log format %q, want text or json", config.ErrInvalidArguments, cfg.Format)
	}

	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger, nil
}

// usageErrors are caller mistakes. Anything else is a runtime failure.
var usageErrors = []error{
	config.ErrInvalidArguments,
	config.ErrUnknownPreset,
	algorithms.ErrInvalidScale,
	algorithms.ErrInvalidViewport,
	algorithms.ErrUnknownBasis,
	algorithms.ErrUnknownOverlay,
	algorithms.ErrUnknownPassOrder,
	iio.ErrUnknownCodec,
	iio.ErrFormat,
}

// ExitCode maps an error to the process status: 0 on success, 2 for invalid
// arguments and 1 for decode, encode and other runtime failures.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if lo.SomeBy(usageErrors, func(target error) bool { return errors.Is(err, target) }) {
		return 2
	}
	return 1
}

func joinNames(names []string) string {
	names = lo.Filter(names, func(n string, _ int) bool { return n != "" })
	if len(names) == 0 {
		return "none registered"
	}
	return strings.Join(names, ", ")
}
