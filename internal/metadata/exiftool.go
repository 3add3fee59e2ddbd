package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/barasher/go-exiftool"
)

// Writer stores a capture date into the embedded metadata of a file.
type Writer interface {
	WriteCaptureTime(ctx context.Context, path string, t time.Time) error
}

// ExifTool drives a single long-lived exiftool process, shared by the read
// strategies and the Writer.
type ExifTool struct {
	et *exiftool.Exiftool
}

func NewExifTool(binary string) (*ExifTool, error) {
	et, err := exiftool.NewExiftool(exiftool.SetExiftoolBinaryPath(binary))
	if err != nil {
		return nil, fmt.Errorf("cannot start exiftool: %w", err)
	}
	return &ExifTool{et: et}, nil
}

func (x *ExifTool) Close() error {
	if x == nil || x.et == nil {
		return nil
	}
	return x.et.Close()
}

// Read returns a ReadFunc that returns the first of keys holding a date. Values
// without a zone are read in loc.
func (x *ExifTool) Read(loc *time.Location, keys ...string) ReadFunc {
	return func(_ context.Context, path string) (time.Time, error) {
		if x == nil || x.et == nil {
			return time.Time{}, ErrUnavailable
		}

		infos := x.et.ExtractMetadata(path)
		if len(infos) == 0 {
			return time.Time{}, ErrNoDate
		}
		if infos[0].Err != nil {
			return time.Time{}, infos[0].Err
		}

		return firstDate(infos[0], loc, keys...)
	}
}

func firstDate(fm exiftool.FileMetadata, loc *time.Location, keys ...string) (time.Time, error) {
	for _, key := range keys {
		value, err := fm.GetString(key)
		if errors.Is(err, exiftool.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return time.Time{}, err
		}
		// QuickTime files carry zeroes when the date was never set
		if strings.HasPrefix(value, "0000:00:00") {
			continue
		}
		return parseCreationTime(value, loc)
	}

	return time.Time{}, ErrNoDate
}

// WriteCaptureTime sets DateTimeOriginal and ModifyDate (the IFD0 DateTime tag)
// in place.
func (x *ExifTool) WriteCaptureTime(_ context.Context, path string, t time.Time) error {
	if x == nil || x.et == nil {
		return ErrUnavailable
	}

	value := t.Format(exifLayout)

	fm := exiftool.EmptyFileMetadata()
	fm.File = path
	fm.SetString(dateTimeOriginal, value)
	fm.SetString("ModifyDate", value)

	batch := []exiftool.FileMetadata{fm}
	x.et.WriteMetadata(batch)

	return batch[0].Err
}
