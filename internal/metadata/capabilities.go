package metadata

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	BackendGoexif   = "goexif"
	BackendGoExif   = "go-exif"
	BackendExifTool = "exiftool"
	BackendFFprobe  = "ffprobe"
	BackendMP4      = "mp4"
)

var (
	DefaultImageBackends = []string{BackendGoexif, BackendGoExif, BackendExifTool}
	DefaultVideoBackends = []string{BackendFFprobe, BackendMP4, BackendExifTool}

	writableTypes = map[string]bool{".jpg": true, ".jpeg": true}
)

// Writable reports whether capture dates can be written into the file at path.
func Writable(path string) bool {
	return writableTypes[strings.ToLower(filepath.Ext(path))]
}

// Capabilities lists the strategies enabled for a run, in priority order, and
// the Writer used for enrichment. Writer is nil when enrichment is not possible.
type Capabilities struct {
	Image  []Strategy
	Video  []Strategy
	Writer Writer

	closer interface{ Close() error }
}

func (c Capabilities) CanReadImages() bool {
	return len(c.Image) > 0
}

func (c Capabilities) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

type Options struct {
	ImageBackends []string
	VideoBackends []string
	Enrich        bool
	ExifToolPath  string
	FFprobePath   string
}

// Probe resolves the requested backends into Capabilities. Backends relying on an
// external binary are left out when the binary cannot be found or started.
// Unknown backend names are an error.
func Probe(ctx context.Context, logger *zap.Logger, opts Options) (Capabilities, error) {
	var caps Capabilities

	needsExifTool := opts.Enrich
	for _, b := range append(append([]string{}, opts.ImageBackends...), opts.VideoBackends...) {
		if b == BackendExifTool {
			needsExifTool = true
		}
	}

	var et *ExifTool
	if needsExifTool {
		et = startExifTool(logger, opts.ExifToolPath)
		if et != nil {
			caps.closer = et
		}
	}

	for _, b := range opts.ImageBackends {
		switch b {
		case BackendGoexif:
			caps.Image = append(caps.Image, Strategy{Name: b, Read: ReadGoexif})
		case BackendGoExif:
			caps.Image = append(caps.Image, Strategy{Name: b, Read: ReadGoExif})
		case BackendExifTool:
			if et != nil {
				caps.Image = append(caps.Image, Strategy{Name: b, Read: et.Read(time.Local, dateTimeOriginal)})
			}
		default:
			_ = caps.Close()
			return Capabilities{}, fmt.Errorf("unknown image backend %q", b)
		}
	}

	for _, b := range opts.VideoBackends {
		switch b {
		case BackendFFprobe:
			if path, ok := lookPath(logger, opts.FFprobePath, "ffprobe"); ok {
				caps.Video = append(caps.Video, Strategy{Name: b, Read: FFprobe(path)})
			}
		case BackendMP4:
			caps.Video = append(caps.Video, Strategy{Name: b, Read: ReadMP4})
		case BackendExifTool:
			// QuickTime dates are stored in UTC
			if et != nil {
				caps.Video = append(caps.Video, Strategy{Name: b, Read: et.Read(time.UTC, "CreateDate", "MediaCreateDate")})
			}
		default:
			_ = caps.Close()
			return Capabilities{}, fmt.Errorf("unknown video backend %q", b)
		}
	}

	if opts.Enrich {
		if et != nil {
			caps.Writer = et
		} else {
			logger.Warn("exiftool is not available: images without a capture date will not be enriched")
		}
	}
	if len(caps.Video) == 0 {
		logger.Warn("No video metadata backend available: videos will be sorted by modification time")
	}

	logger.Info("Probed metadata backends",
		zap.Strings("image", names(caps.Image)),
		zap.Strings("video", names(caps.Video)),
		zap.Bool("enrichment", caps.Writer != nil),
	)

	if err := ctx.Err(); err != nil {
		_ = caps.Close()
		return Capabilities{}, err
	}

	return caps, nil
}

func startExifTool(logger *zap.Logger, configured string) *ExifTool {
	path, ok := lookPath(logger, configured, "exiftool")
	if !ok {
		return nil
	}

	et, err := NewExifTool(path)
	if err != nil {
		logger.Warn("Cannot start exiftool", zap.String("path", path), zap.Error(err))
		return nil
	}

	return et
}

func lookPath(logger *zap.Logger, configured, fallback string) (string, bool) {
	name := configured
	if name == "" {
		name = fallback
	}

	path, err := exec.LookPath(name)
	if err != nil {
		logger.Warn("Binary not found, disabling backend", zap.String("binary", name), zap.Error(err))
		return "", false
	}

	return path, true
}

func names(strategies []Strategy) []string {
	out := make([]string, 0, len(strategies))
	for _, s := range strategies {
		out = append(out, s.Name)
	}
	return out
}
