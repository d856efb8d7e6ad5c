package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/setanarut/monologo"
	"github.com/setanarut/monologo/utils"
	ucli "github.com/urfave/cli/v3"
)

const (
	ExitSuccess           = 0
	ExitFailure           = 1
	ExitInvalidInvocation = 2
)

// InvocationError is a problem with the command line itself, as opposed to
// a failure while converting.
type InvocationError struct {
	Message string
}

func (e *InvocationError) Error() string { return e.Message }

func invalidInvocation(format string, args ...any) error {
	return &InvocationError{Message: fmt.Sprintf(format, args...)}
}

// ExitCode maps an error returned by the command to a process exit code.
// Conversion failures are ExitFailure; everything else, flag parsing
// errors included, is an invalid invocation.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) || errors.Is(err, monologo.ErrInvalidArgument) {
		return ExitInvalidInvocation
	}
	for _, target := range []error{monologo.ErrInputNotFound, monologo.ErrImageDecode, monologo.ErrWrite} {
		if errors.Is(err, target) {
			return ExitFailure
		}
	}
	return ExitInvalidInvocation
}

// Config is everything a conversion run needs, resolved from flags,
// environment and positional arguments.
type Config struct {
	Input        string
	Output       string
	Options      monologo.Options
	Method       utils.ThresholdMethod
	Preview      string
	PreviewScale int
	Verbose      bool
}

// NewCommand builds the monologo command. Parsed configurations are handed
// to action; Run passes Convert.
func NewCommand(stdout, stderr io.Writer, action func(Config) error) *ucli.Command {
	return &ucli.Command{
		Name:      "monologo",
		Usage:     "convert an image to a 128x128 monochrome C header for firmware",
		ArgsUsage: "<input_image> [output_header]",
		Description: "The image is rotated, converted to grayscale, resized to fit 128x128 keeping its aspect " +
			"ratio, centered on a white canvas, thresholded and packed MSB first, 8 pixels per byte. " +
			"The output defaults to " + monologo.DefaultOutput + ".",
		Writer:          stdout,
		ErrWriter:       stderr,
		HideHelpCommand: true,
		// Run's caller owns the exit code and prints the error once.
		ExitErrHandler: func(context.Context, *ucli.Command, error) {},
		OnUsageError: func(_ context.Context, _ *ucli.Command, err error, _ bool) error {
			return err
		},
		Flags: []ucli.Flag{
			&ucli.BoolFlag{
				Name:    "invert",
				Usage:   "invert colors (black becomes white)",
				Sources: ucli.EnvVars("MONOLOGO_INVERT"),
			},
			&ucli.IntFlag{
				Name:    "threshold",
				Value:   monologo.DefaultThreshold,
				Usage:   "threshold for black/white (0-255)",
				Sources: ucli.EnvVars("MONOLOGO_THRESHOLD"),
			},
			&ucli.IntFlag{
				Name:    "rotate",
				Value:   0,
				Usage:   "rotate image clockwise (0, 90, 180 or 270)",
				Sources: ucli.EnvVars("MONOLOGO_ROTATE"),
				Validator: func(v int) error {
					_, err := monologo.ParseRotation(v)
					return err
				},
				ValidateDefaults: true,
			},
			&ucli.StringFlag{
				Name:    "auto-threshold",
				Value:   utils.ThresholdFixed.String(),
				Usage:   "pick the threshold from the image: fixed, otsu, kmeans or dominantcolor",
				Sources: ucli.EnvVars("MONOLOGO_AUTO_THRESHOLD"),
				Validator: func(v string) error {
					_, err := utils.ParseThresholdMethod(v)
					return err
				},
			},
			&ucli.StringFlag{
				Name:    "gray",
				Value:   monologo.GrayLuma.String(),
				Usage:   "grayscale conversion: luma or lightness",
				Sources: ucli.EnvVars("MONOLOGO_GRAY"),
				Validator: func(v string) error {
					_, err := monologo.ParseGrayMethod(v)
					return err
				},
			},
			&ucli.StringFlag{
				Name:  "preview",
				Usage: "also write a PNG preview of the bitmap to this path",
			},
			&ucli.IntFlag{
				Name:  "preview-scale",
				Value: 4,
				Usage: "pixel size of the preview",
				Validator: func(v int) error {
					if v < 1 {
						return fmt.Errorf("preview scale must be at least 1, got %d", v)
					}
					return nil
				},
			},
			&ucli.BoolFlag{
				Name:  "verbose",
				Usage: "log every pipeline stage",
			},
		},
		Action: func(ctx context.Context, cmd *ucli.Command) error {
			cfg, err := configFromCommand(cmd)
			if err != nil {
				return err
			}
			return action(cfg)
		},
	}
}

func configFromCommand(cmd *ucli.Command) (Config, error) {
	args := cmd.Args()
	if args.Len() < 1 {
		return Config{}, invalidInvocation("missing <input_image>; usage: monologo [flags] <input_image> [output_header]")
	}
	if args.Len() > 2 {
		return Config{}, invalidInvocation("too many arguments: %v", args.Slice())
	}

	rot, err := monologo.ParseRotation(cmd.Int("rotate"))
	if err != nil {
		return Config{}, err
	}
	gray, err := monologo.ParseGrayMethod(cmd.String("gray"))
	if err != nil {
		return Config{}, err
	}
	method, err := utils.ParseThresholdMethod(cmd.String("auto-threshold"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Input:        args.Get(0),
		Output:       monologo.DefaultOutput,
		Options:      monologo.DefaultOptions(),
		Method:       method,
		Preview:      cmd.String("preview"),
		PreviewScale: cmd.Int("preview-scale"),
		Verbose:      cmd.Bool("verbose"),
	}
	if args.Len() == 2 {
		cfg.Output = args.Get(1)
	}
	cfg.Options.Rotate = rot
	cfg.Options.Gray = gray
	cfg.Options.Threshold = cmd.Int("threshold")
	cfg.Options.Invert = cmd.Bool("invert")
	return cfg, nil
}

// Run parses args (without the program name), converts and reports to
// stdout. Diagnostics go to stderr. The returned code is the process exit
// status.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	log.SetOutput(stderr)
	log.SetPrefix("monologo: ")
	log.SetFlags(0)

	cmd := NewCommand(stdout, stderr, func(cfg Config) error {
		return Convert(cfg, stdout, stderr)
	})
	err := cmd.Run(ctx, append([]string{"monologo"}, args...))
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return ExitCode(err)
}

// Convert runs one conversion described by cfg. Nothing is written unless
// every stage before the write succeeded.
func Convert(cfg Config, stdout, stderr io.Writer) error {
	logger := log.New(io.Discard, "monologo: ", 0)
	if cfg.Verbose {
		logger.SetOutput(stderr)
	}

	img, err := utils.ReadImage(cfg.Input)
	if err != nil {
		return err
	}
	b := img.Bounds()
	logger.Printf("loaded %s: %dx%d", cfg.Input, b.Dx(), b.Dy())

	canvas, err := monologo.Normalize(img, cfg.Options.Rotate, cfg.Options.Gray)
	if err != nil {
		return err
	}
	logger.Printf("normalized: rotate=%d gray=%s canvas=%dx%d", cfg.Options.Rotate, cfg.Options.Gray, canvas.Bounds().Dx(), canvas.Bounds().Dy())

	threshold := utils.EstimateThreshold(canvas, cfg.Method, cfg.Options.Threshold)
	logger.Printf("threshold: %d (%s), invert=%t", threshold, cfg.Method, cfg.Options.Invert)

	plane := monologo.Binarize(canvas, threshold, cfg.Options.Invert)
	packed := monologo.Pack(plane)
	logger.Printf("packed: %d bytes, %d of %d pixels on", len(packed), plane.Count(), monologo.Size*monologo.Size)

	// The preview goes first so that a failing preview leaves no header
	// behind; a failing header takes the fresh preview with it.
	if cfg.Preview != "" {
		if err := utils.SaveImage(monologo.Preview(plane, cfg.PreviewScale), cfg.Preview); err != nil {
			return fmt.Errorf("%w: preview %s: %v", monologo.ErrWrite, cfg.Preview, err)
		}
		logger.Printf("preview written to %s", cfg.Preview)
	}
	if err := monologo.WriteHeaderFile(cfg.Output, packed); err != nil {
		if cfg.Preview != "" {
			os.Remove(cfg.Preview)
		}
		return fmt.Errorf("%s: %w", cfg.Output, err)
	}

	fmt.Fprintf(stdout, "Created: %s\n", cfg.Output)
	fmt.Fprintf(stdout, "  Size: %dx%d\n", monologo.Size, monologo.Size)
	fmt.Fprintf(stdout, "  Bytes: %d\n", len(packed))
	return nil
}
