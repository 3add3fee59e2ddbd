package metrics

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

type timing struct {
	count int64
	total time.Duration
}

// Metrics collects in-process counters and timings for a single run.
// A nil or NoMetrics value records nothing.
type Metrics struct {
	mu       sync.Mutex
	enabled  bool
	counters map[string]int64
	timings  map[string]*timing
}

func NewMetrics() *Metrics {
	return &Metrics{
		enabled:  true,
		counters: make(map[string]int64),
		timings:  make(map[string]*timing),
	}
}

func NoMetrics() *Metrics {
	return &Metrics{}
}

// Record starts timing metricName; the returned func stops it.
func (x *Metrics) Record(metricName string) func() {
	if x == nil || !x.enabled {
		return func() {}
	}

	start := time.Now()
	return func() {
		elapsed := time.Since(start)

		x.mu.Lock()
		defer x.mu.Unlock()

		t, ok := x.timings[metricName]
		if !ok {
			t = &timing{}
			x.timings[metricName] = t
		}
		t.count++
		t.total += elapsed
	}
}

func (x *Metrics) Increment(metricName string) {
	if x == nil || !x.enabled {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.counters[metricName]++
}

func (x *Metrics) Count(metricName string) int64 {
	if x == nil || !x.enabled {
		return 0
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	return x.counters[metricName]
}

// Log emits one debug line per recorded counter and timing, sorted by name.
func (x *Metrics) Log(logger *zap.Logger) {
	if x == nil || !x.enabled {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	names := make([]string, 0, len(x.counters))
	for name := range x.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		logger.Debug("Counter", zap.String("name", name), zap.Int64("value", x.counters[name]))
	}

	names = names[:0]
	for name := range x.timings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := x.timings[name]
		logger.Debug("Timing",
			zap.String("name", name),
			zap.Int64("count", t.count),
			zap.Duration("total", t.total),
			zap.Duration("mean", t.total/time.Duration(t.count)),
		)
	}
}
