package core

import (
	"os"
	"path/filepath"

	"github.com/fedragon/go-mediasort/internal/fs"
	"github.com/fedragon/go-mediasort/internal/metrics"
	"github.com/fedragon/go-mediasort/internal/models"

	"go.uber.org/zap"
)

// Dispositioner carries out plans: it moves or copies files into place, or only
// logs what it would do in dry-run mode.
type Dispositioner struct {
	Copy    bool
	DryRun  bool
	Verify  bool
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

func (d *Dispositioner) Disposit(m models.Media, plan models.Plan) models.Outcome {
	log := d.Logger.With(zap.String("source", m.Path), zap.String("dest", plan.Path))

	if plan.Resolution == models.SkipIdenticalExists {
		log.Info("Skipping file, already exists at destination with same size")
		return models.Skipped
	}

	if d.DryRun {
		if d.Copy {
			log.Info("Would have copied file")
		} else {
			log.Info("Would have moved file")
		}
		return models.Processed
	}

	if err := os.MkdirAll(filepath.Dir(plan.Path), 0o755); err != nil {
		log.Error("Cannot create destination directory", zap.Error(err))
		return models.Failed
	}

	if d.Copy {
		log.Debug("Copying file")
		if err := fs.CopyFile(d.Metrics, m.Path, plan.Path); err != nil {
			log.Error("Cannot copy file", zap.Error(err))
			return models.Failed
		}

		if d.Verify {
			if err := fs.Verify(d.Metrics, m.Path, plan.Path); err != nil {
				log.Error("Copy does not match its source, removing it", zap.Error(err))
				if err := os.Remove(plan.Path); err != nil {
					log.Error("Cannot remove file", zap.String("path", plan.Path), zap.Error(err))
				}
				return models.Failed
			}
		}

		return models.Processed
	}

	log.Debug("Moving file")
	if err := fs.Move(d.Metrics, m.Path, plan.Path); err != nil {
		log.Error("Cannot move file", zap.Error(err))
		return models.Failed
	}

	return models.Processed
}
