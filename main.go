package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fedragon/go-mediasort/internal"
	"github.com/fedragon/go-mediasort/internal/metadata"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var flags = []cli.Flag{
	&cli.BoolFlag{
		Name:    "dry-run",
		Usage:   "show what would be done without making changes",
		EnvVars: []string{"MEDIASORT_DRY_RUN"},
	},
	&cli.BoolFlag{
		Name:    "copy",
		Usage:   "copy files instead of moving them",
		EnvVars: []string{"MEDIASORT_COPY"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "enable debug logging",
		EnvVars: []string{"MEDIASORT_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:    "verify",
		Usage:   "compare the digests of every copy with its source",
		EnvVars: []string{"MEDIASORT_VERIFY"},
	},
	&cli.BoolFlag{
		Name:    "no-enrich",
		Usage:   "do not write the modification time into images without a capture date",
		EnvVars: []string{"MEDIASORT_NO_ENRICH"},
	},
	&cli.StringSliceFlag{
		Name:    "image-backends",
		Usage:   "image metadata backends, in priority order",
		Value:   cli.NewStringSlice(metadata.DefaultImageBackends...),
		EnvVars: []string{"MEDIASORT_IMAGE_BACKENDS"},
	},
	&cli.StringSliceFlag{
		Name:    "video-backends",
		Usage:   "video metadata backends, in priority order",
		Value:   cli.NewStringSlice(metadata.DefaultVideoBackends...),
		EnvVars: []string{"MEDIASORT_VIDEO_BACKENDS"},
	},
	&cli.StringFlag{
		Name:    "exiftool-path",
		Usage:   "exiftool binary",
		Value:   "exiftool",
		EnvVars: []string{"MEDIASORT_EXIFTOOL_PATH"},
	},
	&cli.StringFlag{
		Name:    "ffprobe-path",
		Usage:   "ffprobe binary",
		Value:   "ffprobe",
		EnvVars: []string{"MEDIASORT_FFPROBE_PATH"},
	},
}

func main() {
	app := &cli.App{
		Name:      "mediasort",
		Usage:     "sort media files into <destination>/YYYY/MM - Mon by the date they were taken",
		ArgsUsage: "<source-dir> <destination-dir>",
		Flags:     flags,
		Action:    run,
	}

	if err := app.Run(hoistFlags(os.Args, flags)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("expected exactly two arguments: <source-dir> <destination-dir>", 1)
	}

	logger, err := newLogger(c.Bool("verbose"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := internal.NewRunner(logger, internal.Config{
		Source:        c.Args().Get(0),
		Dest:          c.Args().Get(1),
		DryRun:        c.Bool("dry-run"),
		Copy:          c.Bool("copy"),
		Verify:        c.Bool("verify"),
		Enrich:        !c.Bool("no-enrich"),
		ImageBackends: c.StringSlice("image-backends"),
		VideoBackends: c.StringSlice("video-backends"),
		ExifToolPath:  c.String("exiftool-path"),
		FFprobePath:   c.String("ffprobe-path"),
	}).Run(ctx)
	if err != nil {
		logger.Error("Media sorting aborted", zap.Error(err))
		return cli.Exit("", 1)
	}

	if !report.Success() {
		logger.Error("Media sorting completed with errors")
		return cli.Exit("", 1)
	}

	logger.Info("Media sorting completed successfully")
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	// every decision is logged
	cfg.Sampling = nil
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	return cfg.Build()
}

// hoistFlags moves flags ahead of positional arguments, so that flags may follow
// the directories on the command line. Everything after "--" is positional.
func hoistFlags(args []string, flags []cli.Flag) []string {
	if len(args) == 0 {
		return args
	}

	takesValue := make(map[string]bool)
	for _, f := range flags {
		if _, isBool := f.(*cli.BoolFlag); isBool {
			continue
		}
		for _, name := range f.Names() {
			takesValue[name] = true
		}
	}

	var opts, positional []string
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		if arg == "--" {
			positional = append(positional, rest[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positional = append(positional, arg)
			continue
		}

		opts = append(opts, arg)
		name := strings.TrimLeft(arg, "-")
		if !strings.Contains(name, "=") && takesValue[name] && i+1 < len(rest) {
			i++
			opts = append(opts, rest[i])
		}
	}

	out := append([]string{args[0]}, opts...)
	out = append(out, "--")
	return append(out, positional...)
}
