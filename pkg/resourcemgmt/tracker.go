// Package resourcemgmt tracks the goroutines the service starts per request
// (websocket pumps) so leaks show up in metrics and logs.
package resourcemgmt

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	goroutineCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mealplan_goroutines",
		Help: "Current number of goroutines in the process",
	})

	trackedGoroutines = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mealplan_tracked_goroutines",
		Help: "Tracked goroutines by kind",
	}, []string{"kind"})

	leakWarnings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mealplan_goroutine_leak_warnings_total",
		Help: "Checks that found the goroutine count above baseline plus threshold",
	})
)

// Config tunes the periodic check
type Config struct {
	CheckInterval time.Duration
	// LeakThreshold is how far above the startup count the total may grow
	// before a warning
	LeakThreshold int
}

// DefaultConfig checks every 30s and warns 500 goroutines above baseline
func DefaultConfig() Config {
	return Config{CheckInterval: 30 * time.Second, LeakThreshold: 500}
}

// Stats is a snapshot of the tracker
type Stats struct {
	Total    int
	Baseline int
	ByKind   map[string]int
}

// Tracker counts live goroutines by kind
type Tracker struct {
	mu       sync.Mutex
	byKind   map[string]int
	logger   *zap.Logger
	cfg      Config
	baseline int
	wg       sync.WaitGroup
	started  atomic.Int64
}

// NewTracker records the current goroutine count as the baseline
func NewTracker(logger *zap.Logger, cfg Config) *Tracker {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultConfig().CheckInterval
	}
	if cfg.LeakThreshold <= 0 {
		cfg.LeakThreshold = DefaultConfig().LeakThreshold
	}
	return &Tracker{
		byKind:   make(map[string]int),
		logger:   logger,
		cfg:      cfg,
		baseline: runtime.NumGoroutine(),
	}
}

// Go runs fn in a goroutine counted under kind until it returns
func (t *Tracker) Go(kind string, fn func()) {
	t.add(kind, 1)
	t.wg.Add(1)
	t.started.Add(1)
	go func() {
		defer func() {
			t.add(kind, -1)
			t.wg.Done()
		}()
		fn()
	}()
}

func (t *Tracker) add(kind string, delta int) {
	t.mu.Lock()
	t.byKind[kind] += delta
	if t.byKind[kind] == 0 {
		delete(t.byKind, kind)
	}
	t.mu.Unlock()
	trackedGoroutines.WithLabelValues(kind).Add(float64(delta))
}

// Count returns the live goroutines of kind
func (t *Tracker) Count(kind string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byKind[kind]
}

// Started returns how many goroutines Go has launched in total
func (t *Tracker) Started() int64 { return t.started.Load() }

// Stats snapshots the process and per-kind counts
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	byKind := make(map[string]int, len(t.byKind))
	for k, v := range t.byKind {
		byKind[k] = v
	}
	return Stats{Total: runtime.NumGoroutine(), Baseline: t.baseline, ByKind: byKind}
}

// Check updates the gauge and reports whether the count looks like a leak
func (t *Tracker) Check() bool {
	s := t.Stats()
	goroutineCount.Set(float64(s.Total))

	if s.Total-s.Baseline > t.cfg.LeakThreshold {
		leakWarnings.Inc()
		t.logger.Warn("Potential goroutine leak",
			zap.Int("current", s.Total),
			zap.Int("baseline", s.Baseline),
			zap.Int("threshold", t.cfg.LeakThreshold),
			zap.Any("tracked", s.ByKind),
		)
		return true
	}
	t.logger.Debug("Goroutine status", zap.Int("current", s.Total), zap.Any("tracked", s.ByKind))
	return false
}

// Monitor runs Check on the configured interval until ctx is done
func (t *Tracker) Monitor(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Check()
		}
	}
}

// Wait blocks until every tracked goroutine returned or ctx is done
func (t *Tracker) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
