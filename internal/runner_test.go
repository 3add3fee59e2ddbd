package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fedragon/go-mediasort/internal/core"
	"github.com/fedragon/go-mediasort/internal/fixtures"
	"github.com/fedragon/go-mediasort/internal/metadata"
	"github.com/fedragon/go-mediasort/internal/models"

	"go.uber.org/zap/zaptest"
)

func config(t *testing.T, source, dest string) Config {
	missing := filepath.Join(t.TempDir(), "missing-binary")
	return Config{
		Source:        source,
		Dest:          dest,
		Enrich:        true,
		ImageBackends: metadata.DefaultImageBackends,
		VideoBackends: metadata.DefaultVideoBackends,
		ExifToolPath:  missing,
		FFprobePath:   missing,
	}
}

func TestRunRejectsInvalidArguments(t *testing.T) {
	dir := t.TempDir()
	file := fixtures.WriteFile(t, dir, "file.jpg", []byte("x"), time.Now())

	cases := []struct {
		name   string
		source string
		dest   string
	}{
		{"missing source", filepath.Join(dir, "missing"), filepath.Join(dir, "out")},
		{"source is a file", file, filepath.Join(dir, "out")},
		{"source equals destination", dir, dir + string(filepath.Separator) + "."},
		{"destination is a file", dir, file},
		{"empty destination", dir, ""},
	}

	for _, c := range cases {
		_, err := NewRunner(zaptest.NewLogger(t), config(t, c.source, c.dest)).Run(context.Background())
		if !errors.Is(err, core.ErrInvalidArguments) {
			t.Errorf("%v\n\tExpected %v but got %v instead", c.name, core.ErrInvalidArguments, err)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "out")); !os.IsNotExist(err) {
		t.Errorf("Expected no destination to be created, got %v", err)
	}
}

func TestRunRequiresImageBackend(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "in")
	dest := filepath.Join(dir, "out")
	path := fixtures.WriteFile(t, source, "a.jpg", fixtures.JPEG("2024:03:15 10:00:00", 0), time.Now())

	cfg := config(t, source, dest)
	cfg.ImageBackends = []string{metadata.BackendExifTool}

	_, err := NewRunner(zaptest.NewLogger(t), cfg).Run(context.Background())
	if !errors.Is(err, core.ErrMissingCapability) {
		t.Errorf("Expected %v but got %v instead", core.ErrMissingCapability, err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected source to be untouched, got %v", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("Expected no destination to be created, got %v", err)
	}
}

func TestRunRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()

	cfg := config(t, dir, filepath.Join(dir, "out"))
	cfg.VideoBackends = []string{"ffmpeg-python"}

	if _, err := NewRunner(zaptest.NewLogger(t), cfg).Run(context.Background()); !errors.Is(err, core.ErrInvalidArguments) {
		t.Errorf("Expected %v but got %v instead", core.ErrInvalidArguments, err)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "in")
	dest := filepath.Join(dir, "out")
	fixtures.WriteFile(t, source, "a.jpg", fixtures.JPEG("2024:03:15 10:00:00", 0), time.Now())
	fixtures.WriteFile(t, source, "readme.md", []byte("#"), time.Now())

	cases := []struct {
		name     string
		dryRun   bool
		copy     bool
		expected models.Report
		placed   bool
	}{
		{name: "dry run", dryRun: true, expected: models.Report{Processed: 1, Ignored: 1}},
		{name: "copy", copy: true, expected: models.Report{Processed: 1, Ignored: 1}, placed: true},
		{name: "move after copy", expected: models.Report{Skipped: 1, Ignored: 1}, placed: true},
	}

	for _, c := range cases {
		cfg := config(t, source, dest)
		cfg.DryRun = c.dryRun
		cfg.Copy = c.copy
		cfg.Verify = true

		report, err := NewRunner(zaptest.NewLogger(t), cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("%v\n\tExpected no error but got %v instead", c.name, err)
		}
		if report != c.expected {
			t.Errorf("%v\n\tExpected %+v but got %+v instead", c.name, c.expected, report)
		}

		_, err = os.Stat(filepath.Join(dest, "2024", "03 - Mar", "a.jpg"))
		if placed := err == nil; placed != c.placed {
			t.Errorf("%v\n\tExpected placed=%v", c.name, c.placed)
		}
	}
}
