package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fedragon/go-mediasort/internal/core"
	"github.com/fedragon/go-mediasort/internal/metadata"
	"github.com/fedragon/go-mediasort/internal/metrics"
	"github.com/fedragon/go-mediasort/internal/models"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

type Config struct {
	Source        string
	Dest          string
	DryRun        bool
	Copy          bool
	Verify        bool
	Enrich        bool
	ImageBackends []string
	VideoBackends []string
	ExifToolPath  string
	FFprobePath   string
}

// Validate expands and absolutizes Source and Dest, and checks that Source is an
// existing directory distinct from Dest.
func (c *Config) Validate() error {
	if c.Source == "" || c.Dest == "" {
		return fmt.Errorf("%w: source and destination directories are required", core.ErrInvalidArguments)
	}

	var err error
	if c.Source, err = absolute(c.Source); err != nil {
		return err
	}
	if c.Dest, err = absolute(c.Dest); err != nil {
		return err
	}

	info, err := os.Stat(c.Source)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: source directory does not exist: %v", core.ErrInvalidArguments, c.Source)
	}

	if c.Source == c.Dest {
		return fmt.Errorf("%w: source and destination directories cannot be the same", core.ErrInvalidArguments)
	}

	if info, err := os.Stat(c.Dest); err == nil && !info.IsDir() {
		return fmt.Errorf("%w: destination is not a directory: %v", core.ErrInvalidArguments, c.Dest)
	}

	return nil
}

func absolute(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrInvalidArguments, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrInvalidArguments, err)
	}
	return abs, nil
}

type Runner struct {
	logger *zap.Logger
	config Config
}

func NewRunner(logger *zap.Logger, config Config) *Runner {
	return &Runner{
		logger: logger,
		config: config,
	}
}

// Run sorts the source directory into the destination one. An error means nothing
// was touched; per-file failures are only reflected in the returned report.
func (r *Runner) Run(ctx context.Context) (models.Report, error) {
	start := time.Now()
	defer func() {
		r.logger.Info("Elapsed time", zap.Duration("elapsed", time.Since(start)))
	}()

	if err := r.config.Validate(); err != nil {
		return models.Report{}, err
	}

	mode := "move"
	if r.config.Copy {
		mode = "copy"
	}
	if r.config.DryRun {
		r.logger.Info("Running in DRY-RUN mode: files will not be moved or copied")
	}
	r.logger.Info("Starting media sort",
		zap.String("source", r.config.Source),
		zap.String("dest", r.config.Dest),
		zap.String("mode", mode),
		zap.Bool("dry_run", r.config.DryRun),
	)

	caps, err := metadata.Probe(ctx, r.logger, metadata.Options{
		ImageBackends: r.config.ImageBackends,
		VideoBackends: r.config.VideoBackends,
		Enrich:        r.config.Enrich,
		ExifToolPath:  r.config.ExifToolPath,
		FFprobePath:   r.config.FFprobePath,
	})
	if err != nil {
		return models.Report{}, fmt.Errorf("%w: %v", core.ErrInvalidArguments, err)
	}
	defer func() {
		if err := caps.Close(); err != nil {
			r.logger.Warn("Cannot close exiftool", zap.Error(err))
		}
	}()

	if !caps.CanReadImages() {
		r.logger.Error("At least one image metadata backend is required: enable goexif or go-exif, or install exiftool")
		return models.Report{}, core.ErrMissingCapability
	}

	if !r.config.DryRun {
		if err := os.MkdirAll(r.config.Dest, 0o755); err != nil {
			return models.Report{}, fmt.Errorf("unable to create destination directory %v: %w", r.config.Dest, err)
		}
	}

	mx := metrics.NewMetrics()
	defer mx.Log(r.logger)

	sorter := &core.SequentialSorter{
		Resolver: &core.Resolver{
			Extractor: metadata.NewExtractor(r.logger, mx, caps),
			Writer:    caps.Writer,
			DryRun:    r.config.DryRun,
			Logger:    r.logger,
		},
		Planner: &core.Planner{
			Root:    r.config.Dest,
			DryRun:  r.config.DryRun,
			Metrics: mx,
			Logger:  r.logger,
		},
		Dispositioner: &core.Dispositioner{
			Copy:    r.config.Copy,
			DryRun:  r.config.DryRun,
			Verify:  r.config.Verify,
			Metrics: mx,
			Logger:  r.logger,
		},
		Metrics: mx,
		Logger:  r.logger,
	}

	return sorter.Sort(ctx, r.config.Source), nil
}
