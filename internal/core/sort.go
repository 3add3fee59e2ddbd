package core

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/fedragon/go-mediasort/internal/fs"
	"github.com/fedragon/go-mediasort/internal/metrics"
	"github.com/fedragon/go-mediasort/internal/models"

	"go.uber.org/zap"
)

var (
	ErrInvalidArguments  = errors.New("invalid arguments")
	ErrMissingCapability = errors.New("no image metadata backend available")
)

type Sorter interface {
	Sort(ctx context.Context, source string) models.Report
}

// SequentialSorter sends every file found under the source directory through
// resolve, plan and disposit, one at a time in walk order. Each plan reads the
// destination tree as left by the files before it.
type SequentialSorter struct {
	Resolver      *Resolver
	Planner       *Planner
	Dispositioner *Dispositioner
	Metrics       *metrics.Metrics
	Logger        *zap.Logger
}

func (s *SequentialSorter) Sort(ctx context.Context, source string) models.Report {
	s.Logger.Info("Sorting files", zap.String("source", source), zap.String("dest", s.Planner.Root))

	var report models.Report
	var seen int64

	for m := range fs.Walk(ctx, s.Logger, source, s.Planner.Root) {
		if seen > 0 && seen%1000 == 0 {
			s.Logger.Info("Sorted a(nother) batch of files", zap.Int64("count", seen))
		}
		seen++

		if m.Err != nil {
			s.Logger.Error("Cannot walk directory", zap.String("path", m.Path), zap.Error(m.Err))
			report.Add(models.Failed)
			continue
		}

		if m.Kind == models.Ignored {
			s.Logger.Debug("Skipping non-media file", zap.String("path", m.Path))
			report.Ignored++
			continue
		}

		outcome := s.sort(ctx, m)
		s.Metrics.Increment(outcome.String())
		report.Add(outcome)
	}

	if err := ctx.Err(); err != nil {
		s.Logger.Warn("Sorting interrupted", zap.Error(err))
	}

	s.Logger.Info("Processing complete",
		zap.Int64("processed", report.Processed),
		zap.Int64("skipped", report.Skipped),
		zap.Int64("failed", report.Failed),
		zap.Int64("ignored", report.Ignored),
	)

	return report
}

func (s *SequentialSorter) sort(ctx context.Context, m models.Media) models.Outcome {
	ts := s.Resolver.Resolve(ctx, m)

	// planned with the size seen by the walk, so dry and real runs agree
	plan, err := s.Planner.Plan(ts.Time, filepath.Base(m.Path), m.Size)
	if err != nil {
		s.Logger.Error("Cannot plan destination", zap.String("path", m.Path), zap.Error(err))
		return models.Failed
	}

	s.Logger.Debug("Planned destination",
		zap.String("path", m.Path),
		zap.Time("date", ts.Time),
		zap.Stringer("provenance", ts.Provenance),
		zap.Stringer("plan", plan),
	)

	if plan.Resolution != models.SkipIdenticalExists {
		s.Resolver.Enrich(ctx, m, ts)
	}

	return s.Dispositioner.Disposit(m, plan)
}
