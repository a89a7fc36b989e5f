package telemetry

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// versionedCollector tags every field of a cycle with the same version
// number, so torn reads are detectable.
type versionedCollector struct {
	mu      sync.Mutex
	version float64
	fail    error
	calls   int
}

func (c *versionedCollector) GetAllMetrics() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.fail != nil {
		return nil, c.fail
	}
	c.version++
	v := c.version
	return Snapshot{
		KeyCPUTemperature: Number(v),
		KeyCPUUsage:       Number(v),
		KeyGPUTemperature: Number(v),
		KeyGPUUsage:       Number(v),
	}, nil
}

func (c *versionedCollector) failNext(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = err
}

func TestRefresher_PublishesInitialSnapshot(t *testing.T) {
	c := &versionedCollector{}
	r := NewRefresher(time.Hour, testLogger(), c)
	r.Start()
	defer r.Stop()

	snap := r.Snapshot()
	require.True(t, snap[KeyCPUTemperature].Present(), "Start must collect synchronously once")
	assert.Equal(t, 1.0, *snap[KeyCPUTemperature].Num)
}

func TestRefresher_SnapshotNeverTorn(t *testing.T) {
	c := &versionedCollector{}
	r := NewRefresher(time.Millisecond, testLogger(), c)
	r.Start()
	defer r.Stop()

	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		snap := r.Snapshot()
		base := snap[KeyCPUTemperature]
		require.True(t, base.Present())
		for key, v := range snap {
			if !v.Present() || v.Num == nil {
				continue
			}
			require.Equal(t, *base.Num, *v.Num,
				"field %s belongs to a different collection cycle", key)
		}
	}
}

func TestRefresher_StopsOnCollectorError(t *testing.T) {
	c := &versionedCollector{}
	r := NewRefresher(time.Millisecond, testLogger(), c)
	r.Start()
	require.True(t, r.Running())

	lastGood := r.Snapshot()
	c.failNext(errors.New("sensor exploded"))

	require.Eventually(t, func() bool { return !r.Running() },
		time.Second, time.Millisecond, "refresher must stop after a collection error")

	// polling path keeps serving the last good snapshot
	snap := r.Snapshot()
	assert.True(t, snap[KeyCPUTemperature].Present())
	assert.GreaterOrEqual(t, *snap[KeyCPUTemperature].Num, *lastGood[KeyCPUTemperature].Num)

	r.Stop() // safe on an already-stopped refresher
}

func TestRefresher_StopIsIdempotent(t *testing.T) {
	r := NewRefresher(time.Millisecond, testLogger(), &versionedCollector{})
	r.Start()
	r.Stop()
	r.Stop()
	assert.False(t, r.Running())
}

func TestRefresher_NeverStartedServesEmpty(t *testing.T) {
	r := NewRefresher(time.Minute, testLogger(), &versionedCollector{})
	snap := r.Snapshot()
	require.Len(t, snap, 8)
	for key, v := range snap {
		assert.False(t, v.Present(), "key %s", key)
	}
	r.Stop() // no-op
}

func TestRefresher_InitialFailureLeavesStopped(t *testing.T) {
	c := &versionedCollector{}
	c.failNext(errors.New("cold boot failure"))
	r := NewRefresher(time.Millisecond, testLogger(), c)
	r.Start()
	assert.False(t, r.Running())
	for _, v := range r.Snapshot() {
		assert.False(t, v.Present())
	}
}

func TestRefresher_MergesMultipleCollectors(t *testing.T) {
	cpu := &versionedCollector{}
	r := NewRefresher(time.Hour, testLogger(), cpu, staticCollector{KeyGPUVendor: String("amd")})
	r.Start()
	defer r.Stop()

	snap := r.Snapshot()
	require.True(t, snap[KeyGPUVendor].Present())
	assert.Equal(t, "amd", *snap[KeyGPUVendor].Str)
	assert.True(t, snap[KeyCPUUsage].Present())
}

type staticCollector Snapshot

func (s staticCollector) GetAllMetrics() (Snapshot, error) { return Snapshot(s), nil }
