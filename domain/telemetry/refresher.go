package telemetry

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultRefreshInterval is the pause between the end of one collection
// cycle and the start of the next.
const DefaultRefreshInterval = 5 * time.Second

const stopJoinTimeout = 2 * time.Second

// Refresher recomputes the telemetry snapshot on a fixed interval and
// publishes it atomically for readers. The next cycle is scheduled only
// after the previous one completes, so cycles never overlap; total
// cadence drifts by the cost of collection itself.
//
// A collection error stops the refresher after logging. It does not
// respawn: callers that need resilience restart collection explicitly.
type Refresher struct {
	collectors []Collector
	interval   time.Duration
	logger     *slog.Logger

	running atomic.Bool
	done    chan struct{}
	stopped chan struct{}
	latest  atomic.Pointer[Snapshot]
}

// NewRefresher builds a refresher over the given collectors. A zero
// interval selects DefaultRefreshInterval.
func NewRefresher(interval time.Duration, logger *slog.Logger, collectors ...Collector) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	r := &Refresher{collectors: collectors, interval: interval, logger: logger}
	empty := EmptySnapshot()
	r.latest.Store(&empty)
	return r
}

// Start performs one synchronous collection so the first reader already
// sees real values, then launches the background loop. An initial
// collection failure is logged and leaves the refresher stopped.
func (r *Refresher) Start() {
	if !r.running.CompareAndSwap(false, true) {
		return
	}
	if err := r.refresh(); err != nil {
		r.logger.Error("telemetry.initial_collection_failed", "error", err)
		r.running.Store(false)
		return
	}
	r.done = make(chan struct{})
	r.stopped = make(chan struct{})
	go r.loop()
}

// Stop signals the loop and waits for it with a bounded timeout. Safe to
// call twice and safe to call on a refresher that was never started.
func (r *Refresher) Stop() {
	if !r.running.CompareAndSwap(true, false) {
		return
	}
	if r.done == nil {
		return
	}
	close(r.done)
	select {
	case <-r.stopped:
	case <-time.After(stopJoinTimeout):
		r.logger.Warn("telemetry.stop_timeout", "timeout", stopJoinTimeout)
	}
}

// Running reports whether the background loop is active.
func (r *Refresher) Running() bool { return r.running.Load() }

// Snapshot returns the last published snapshot. Before the first cycle
// completes this is the empty no-value snapshot.
func (r *Refresher) Snapshot() Snapshot { return *r.latest.Load() }

func (r *Refresher) loop() {
	defer close(r.stopped)
	timer := time.NewTimer(r.interval)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			if err := r.refresh(); err != nil {
				r.logger.Error("telemetry.collection_failed", "error", err)
				r.running.Store(false)
				return
			}
			timer.Reset(r.interval)
		case <-r.done:
			return
		}
	}
}

// refresh collects all metrics into one new snapshot and swaps it in as a
// whole. The previous snapshot is never mutated in place.
func (r *Refresher) refresh() error {
	next := EmptySnapshot()
	for _, c := range r.collectors {
		m, err := c.GetAllMetrics()
		if err != nil {
			return err
		}
		merge(next, m)
	}
	r.latest.Store(&next)
	r.logger.Debug("telemetry.refreshed", "metrics", len(next))
	return nil
}
