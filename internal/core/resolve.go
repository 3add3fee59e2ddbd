package core

import (
	"context"
	"os"

	"github.com/fedragon/go-mediasort/internal/metadata"
	"github.com/fedragon/go-mediasort/internal/models"

	"go.uber.org/zap"
)

type Extractor interface {
	Extract(ctx context.Context, path string, kind models.Kind) (models.CaptureTimestamp, bool)
}

// Resolver picks exactly one capture timestamp per file: the embedded one when
// present, the modification time otherwise.
type Resolver struct {
	Extractor Extractor
	// Writer is used by Enrich; nil disables enrichment.
	Writer metadata.Writer
	DryRun bool
	Logger *zap.Logger
}

func (r *Resolver) Resolve(ctx context.Context, m models.Media) models.CaptureTimestamp {
	if ts, ok := r.Extractor.Extract(ctx, m.Path, m.Kind); ok {
		return ts
	}

	ts := models.CaptureTimestamp{Time: m.ModTime, Provenance: models.ModificationTimeFallback}
	r.Logger.Info("No metadata date found, using modification time",
		zap.String("path", m.Path),
		zap.Time("date", ts.Time),
	)

	return ts
}

// Enrich writes the fallback date of an image into its EXIF block. It is a no-op
// for dates read from metadata, for formats that cannot be written, without a
// Writer and in dry-run mode. Failures are only logged.
func (r *Resolver) Enrich(ctx context.Context, m models.Media, ts models.CaptureTimestamp) {
	if ts.Provenance != models.ModificationTimeFallback || m.Kind != models.Image {
		return
	}
	if r.Writer == nil || r.DryRun || !metadata.Writable(m.Path) {
		return
	}

	if err := r.Writer.WriteCaptureTime(ctx, m.Path, m.ModTime); err != nil {
		r.Logger.Error("Cannot add modification time to EXIF data", zap.String("path", m.Path), zap.Error(err))
		return
	}

	// writing metadata touches the file: keep the date it is sorted by stable across runs
	if err := os.Chtimes(m.Path, m.ModTime, m.ModTime); err != nil {
		r.Logger.Warn("Cannot restore modification time", zap.String("path", m.Path), zap.Error(err))
	}

	r.Logger.Info("Added modification time to EXIF data", zap.String("path", m.Path))
}
