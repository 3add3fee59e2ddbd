package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fedragon/go-mediasort/internal/metrics"
	"github.com/fedragon/go-mediasort/internal/models"

	"go.uber.org/zap"
)

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Planner maps capture timestamps to paths under Root, laid out as
// <Root>/<YYYY>/<MM> - <Mon>/<name>.
//
// In dry-run mode no directory is created, and planned placements are kept in
// memory so that later plans in the same run see them as if they had happened.
type Planner struct {
	Root    string
	DryRun  bool
	Metrics *metrics.Metrics
	Logger  *zap.Logger

	planned map[string]int64
}

func (p *Planner) Dir(ts time.Time) string {
	return filepath.Join(
		p.Root,
		fmt.Sprintf("%04d", ts.Year()),
		fmt.Sprintf("%02d - %s", int(ts.Month()), monthNames[ts.Month()-1]),
	)
}

// Canonical returns the destination of name before any conflict is resolved.
func (p *Planner) Canonical(ts time.Time, name string) string {
	return filepath.Join(p.Dir(ts), filepath.Base(name))
}

// Plan returns where a file named name, of the given size, should go. A file of the
// same size already at the canonical path is taken to be the same file, and the plan
// is to skip it. Otherwise _1, _2, ... is appended to the name until a free path, or
// one holding a file of the same size, is found.
func (p *Planner) Plan(ts time.Time, name string, size int64) (models.Plan, error) {
	stop := p.Metrics.Record("plan")
	defer stop()

	dir := p.Dir(ts)
	if !p.DryRun {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return models.Plan{}, fmt.Errorf("unable to create directory %v: %w", dir, err)
		}
	}

	candidate := filepath.Join(dir, filepath.Base(name))
	ext := filepath.Ext(candidate)
	base := strings.TrimSuffix(candidate, ext)

	for n := 0; ; n++ {
		path := candidate
		if n > 0 {
			path = fmt.Sprintf("%s_%d%s", base, n, ext)
		}

		existing, exists, err := p.stat(path)
		if err != nil {
			return models.Plan{}, err
		}

		if !exists {
			p.record(path, size)
			if n == 0 {
				return models.Plan{Path: path, Resolution: models.UseAsPlanned}, nil
			}
			p.Logger.Debug("Renaming to avoid a conflict", zap.String("canonical", candidate), zap.String("dest", path))
			return models.Plan{Path: path, Resolution: models.Renamed, Suffix: n}, nil
		}

		if existing == size {
			return models.Plan{Path: path, Resolution: models.SkipIdenticalExists, Suffix: n}, nil
		}
	}
}

// stat returns the size of the regular file at path. Anything else occupying the
// path is reported with size -1.
func (p *Planner) stat(path string) (int64, bool, error) {
	if size, ok := p.planned[path]; ok {
		return size, true, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("unable to stat %v: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return -1, true, nil
	}

	return info.Size(), true, nil
}

func (p *Planner) record(path string, size int64) {
	if !p.DryRun {
		return
	}
	if p.planned == nil {
		p.planned = make(map[string]int64)
	}
	p.planned[path] = size
}
