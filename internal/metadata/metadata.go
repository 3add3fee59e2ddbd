package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fedragon/go-mediasort/internal/metrics"
	"github.com/fedragon/go-mediasort/internal/models"

	"go.uber.org/zap"
)

var (
	// ErrNoDate is returned by a strategy that found no capture date in a file.
	ErrNoDate = errors.New("no capture date")
	// ErrUnavailable is returned by a strategy whose backend cannot be used.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrUnparsable wraps a date value that exists but cannot be parsed.
	ErrUnparsable = errors.New("unparsable date")
)

const exifLayout = "2006:01:02 15:04:05"

// ReadFunc reads a capture date from the file at path.
type ReadFunc func(ctx context.Context, path string) (time.Time, error)

// Strategy is a named ReadFunc. Extractor tries strategies in order.
type Strategy struct {
	Name string
	Read ReadFunc
}

type Extractor struct {
	logger *zap.Logger
	mx     *metrics.Metrics
	image  []Strategy
	video  []Strategy
}

func NewExtractor(logger *zap.Logger, mx *metrics.Metrics, caps Capabilities) *Extractor {
	return &Extractor{
		logger: logger,
		mx:     mx,
		image:  caps.Image,
		video:  caps.Video,
	}
}

// Extract returns the capture date found by the first strategy that yields one.
// Failures are logged and never returned.
func (e *Extractor) Extract(ctx context.Context, path string, kind models.Kind) (models.CaptureTimestamp, bool) {
	var strategies []Strategy
	switch kind {
	case models.Image:
		strategies = e.image
	case models.Video:
		strategies = e.video
	default:
		return models.CaptureTimestamp{}, false
	}

	stop := e.mx.Record("extract")
	defer stop()

	for _, s := range strategies {
		if ctx.Err() != nil {
			return models.CaptureTimestamp{}, false
		}

		t, err := e.try(ctx, s, path)
		switch {
		case err == nil:
			e.logger.Debug("Found capture date",
				zap.String("path", path),
				zap.String("strategy", s.Name),
				zap.Time("date", t),
			)
			return models.CaptureTimestamp{Time: t, Provenance: models.Metadata, Source: s.Name}, true
		case errors.Is(err, ErrNoDate):
			e.logger.Debug("No capture date", zap.String("path", path), zap.String("strategy", s.Name))
		case errors.Is(err, ErrUnavailable):
			e.logger.Debug("Strategy unavailable, skipping it", zap.String("path", path), zap.String("strategy", s.Name))
		case errors.Is(err, ErrUnparsable):
			e.logger.Warn("Cannot parse capture date", zap.String("path", path), zap.String("strategy", s.Name), zap.Error(err))
		default:
			e.logger.Error("Metadata extraction failed", zap.String("path", path), zap.String("strategy", s.Name), zap.Error(err))
		}
	}

	return models.CaptureTimestamp{}, false
}

func (e *Extractor) try(ctx context.Context, s Strategy, path string) (t time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", s.Name, r)
		}
	}()

	return s.Read(ctx, path)
}

func parseExifTime(value string) (time.Time, error) {
	value = strings.TrimRight(value, "\x00 ")

	for _, layout := range []string{exifLayout, exifLayout + "Z07:00"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsable, value)
}

// parseCreationTime accepts ISO-8601 timestamps, with or without zone, and the
// space separated forms written by video muxers and exiftool. Values without a
// zone are read in loc.
func parseCreationTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}

	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05", exifLayout} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsable, value)
}
