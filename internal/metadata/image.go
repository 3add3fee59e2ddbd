package metadata

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	exif "github.com/dsoprea/go-exif/v3"
	goexif "github.com/rwcarlsen/goexif/exif"
)

const dateTimeOriginal = "DateTimeOriginal"

// ReadGoexif decodes the EXIF block with rwcarlsen/goexif and returns DateTimeOriginal.
func ReadGoexif(_ context.Context, path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := goexif.Decode(f)
	if x == nil {
		if errors.Is(err, io.EOF) {
			return time.Time{}, ErrNoDate
		}
		return time.Time{}, err
	}

	tag, err := x.Get(goexif.DateTimeOriginal)
	if err != nil {
		if goexif.IsTagNotPresentError(err) {
			return time.Time{}, ErrNoDate
		}
		return time.Time{}, err
	}

	value, err := tag.StringVal()
	if err != nil {
		return time.Time{}, err
	}

	return parseExifTime(value)
}

// ReadGoExif locates the raw EXIF block with dsoprea/go-exif and scans its flat
// tag list for DateTimeOriginal.
func ReadGoExif(_ context.Context, path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	raw, err := exif.SearchAndExtractExifWithReader(f)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return time.Time{}, ErrNoDate
		}
		return time.Time{}, err
	}

	entries, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return time.Time{}, err
	}

	for _, entry := range entries {
		if entry.TagName == dateTimeOriginal {
			return parseExifTime(entry.Formatted)
		}
	}

	return time.Time{}, ErrNoDate
}
