package fs

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fedragon/go-mediasort/internal/metrics"
	"github.com/fedragon/go-mediasort/internal/models"

	"go.uber.org/zap"
	"lukechampine.com/blake3"
)

var (
	imageTypes = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".tiff": true,
		".bmp": true, ".heic": true, ".heif": true, ".dng": true,
	}
	videoTypes = map[string]bool{
		".mp4": true, ".mov": true, ".avi": true, ".mkv": true,
		".wmv": true, ".m4v": true, ".3gp": true, ".flv": true,
	}
)

// Classify tells the media kind of a file from its extension. Leading dots are
// part of the name, so ".jpg" has no extension.
func Classify(name string) models.Kind {
	ext := strings.ToLower(filepath.Ext(strings.TrimLeft(filepath.Base(name), ".")))
	switch {
	case imageTypes[ext]:
		return models.Image
	case videoTypes[ext]:
		return models.Video
	default:
		return models.Ignored
	}
}

// Hash returns the blake3-256 digest of the file at path.
func Hash(mx *metrics.Metrics, path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stop := mx.Record("hash")
	defer stop()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// Walk sends every file under root, in lexical order, on the returned channel.
// Symbolic links to regular files are reported with the size and modification
// time of their target; anything else that is not a regular file is Ignored.
// Directories listed in skip are not descended into. The channel is closed when the
// walk completes or ctx is done.
func Walk(ctx context.Context, logger *zap.Logger, root string, skip ...string) <-chan models.Media {
	media := make(chan models.Media)

	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[filepath.Clean(s)] = true
	}

	send := func(m models.Media) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case media <- m:
			return nil
		}
	}

	go func() {
		defer close(media)

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				logger.Warn("Cannot read path, skipping it", zap.String("path", path), zap.Error(err))
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path != root && skipped[filepath.Clean(path)] {
					logger.Debug("Not descending into directory", zap.String("path", path))
					return filepath.SkipDir
				}
				return nil
			}

			info, err := d.Info()
			if err != nil {
				logger.Warn("Cannot stat file, skipping it", zap.String("path", path), zap.Error(err))
				return nil
			}

			if info.Mode()&fs.ModeSymlink != 0 {
				target, err := os.Stat(path)
				if err != nil {
					logger.Warn("Cannot follow symbolic link", zap.String("path", path), zap.Error(err))
				} else {
					info = target
				}
			}

			kind := Classify(d.Name())
			if !info.Mode().IsRegular() {
				kind = models.Ignored
			}

			return send(models.Media{
				Path:    path,
				Kind:    kind,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
		})

		if err != nil && ctx.Err() == nil {
			_ = send(models.Media{Path: root, Err: err})
		}
	}()

	return media
}
