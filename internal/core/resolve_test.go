package core

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/fedragon/go-mediasort/internal/fixtures"
	"github.com/fedragon/go-mediasort/internal/models"

	"go.uber.org/zap/zaptest"
)

type fakeExtractor map[string]time.Time

func (f fakeExtractor) Extract(_ context.Context, path string, _ models.Kind) (models.CaptureTimestamp, bool) {
	t, ok := f[path]
	if !ok {
		return models.CaptureTimestamp{}, false
	}
	return models.CaptureTimestamp{Time: t, Provenance: models.Metadata, Source: "fake"}, true
}

type fakeWriter struct {
	err     error
	written map[string]time.Time
}

func (w *fakeWriter) WriteCaptureTime(_ context.Context, path string, t time.Time) error {
	if w.err != nil {
		return w.err
	}
	if w.written == nil {
		w.written = make(map[string]time.Time)
	}
	w.written[path] = t
	// writing metadata bumps the modification time
	return os.Chtimes(path, time.Now(), time.Now())
}

func media(t *testing.T, path string, kind models.Kind) models.Media {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return models.Media{Path: path, Kind: kind, Size: info.Size(), ModTime: info.ModTime()}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Date(2018, 7, 1, 12, 0, 0, 0, time.Local)
	embedded := time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)

	tagged := fixtures.WriteFile(t, dir, "tagged.jpg", []byte("x"), mtime)
	untagged := fixtures.WriteFile(t, dir, "untagged.jpg", []byte("x"), mtime)
	png := fixtures.WriteFile(t, dir, "untagged.png", []byte("x"), mtime)
	video := fixtures.WriteFile(t, dir, "untagged.mp4", []byte("x"), mtime)

	cases := []struct {
		name       string
		media      models.Media
		dryRun     bool
		expected   time.Time
		provenance models.Provenance
		enriched   bool
	}{
		{
			name:       "embedded date wins and is never rewritten",
			media:      media(t, tagged, models.Image),
			expected:   embedded,
			provenance: models.Metadata,
		},
		{
			name:       "untagged jpeg falls back to modification time and is enriched",
			media:      media(t, untagged, models.Image),
			expected:   mtime,
			provenance: models.ModificationTimeFallback,
			enriched:   true,
		},
		{
			name:       "untagged jpeg is not enriched in dry-run mode",
			media:      media(t, untagged, models.Image),
			dryRun:     true,
			expected:   mtime,
			provenance: models.ModificationTimeFallback,
		},
		{
			name:       "formats that cannot be written are not enriched",
			media:      media(t, png, models.Image),
			expected:   mtime,
			provenance: models.ModificationTimeFallback,
		},
		{
			name:       "videos are never enriched",
			media:      media(t, video, models.Video),
			expected:   mtime,
			provenance: models.ModificationTimeFallback,
		},
	}

	for _, c := range cases {
		w := &fakeWriter{}
		r := &Resolver{
			Extractor: fakeExtractor{tagged: embedded},
			Writer:    w,
			DryRun:    c.dryRun,
			Logger:    zaptest.NewLogger(t),
		}

		ts := r.Resolve(context.Background(), c.media)
		r.Enrich(context.Background(), c.media, ts)
		if !ts.Time.Equal(c.expected) {
			t.Errorf("%v\n\tExpected %v but got %v instead", c.name, c.expected, ts.Time)
		}
		if ts.Provenance != c.provenance {
			t.Errorf("%v\n\tExpected %v but got %v instead", c.name, c.provenance, ts.Provenance)
		}

		written, enriched := w.written[c.media.Path]
		if enriched != c.enriched {
			t.Errorf("%v\n\tExpected enriched=%v but got %v instead", c.name, c.enriched, enriched)
		}
		if enriched {
			if !written.Equal(mtime) {
				t.Errorf("%v\n\tExpected %v to be written but got %v instead", c.name, mtime, written)
			}
			info, err := os.Stat(c.media.Path)
			if err != nil {
				t.Fatal(err)
			}
			if !info.ModTime().Equal(mtime) {
				t.Errorf("%v\n\tExpected modification time to be restored to %v but got %v instead", c.name, mtime, info.ModTime())
			}
		}
	}
}

func TestResolveIgnoresEnrichmentFailures(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Date(2018, 7, 1, 12, 0, 0, 0, time.Local)
	path := fixtures.WriteFile(t, dir, "a.jpg", []byte("x"), mtime)

	r := &Resolver{
		Extractor: fakeExtractor{},
		Writer:    &fakeWriter{err: errors.New("read-only file system")},
		Logger:    zaptest.NewLogger(t),
	}

	m := media(t, path, models.Image)
	ts := r.Resolve(context.Background(), m)
	r.Enrich(context.Background(), m, ts)
	if !ts.Time.Equal(mtime) || ts.Provenance != models.ModificationTimeFallback {
		t.Errorf("Expected %v from %v but got %v from %v instead", mtime, models.ModificationTimeFallback, ts.Time, ts.Provenance)
	}
}

func TestResolveWithoutWriter(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Date(2018, 7, 1, 12, 0, 0, 0, time.Local)
	path := fixtures.WriteFile(t, dir, "a.jpg", []byte("x"), mtime)

	r := &Resolver{Extractor: fakeExtractor{}, Logger: zaptest.NewLogger(t)}

	if ts := r.Resolve(context.Background(), media(t, path, models.Image)); !ts.Time.Equal(mtime) {
		t.Errorf("Expected %v but got %v instead", mtime, ts.Time)
	}
}
