// Package telemetry collects the CPU/GPU metric snapshot rendered as
// display overlays. Collection runs on its own background cadence and
// publishes whole snapshots atomically, so a polling reader never sees a
// mix of two collection cycles.
package telemetry

// Well-known snapshot keys.
const (
	KeyCPUTemperature = "cpu_temperature"
	KeyCPUUsage       = "cpu_usage"
	KeyCPUFrequency   = "cpu_frequency"
	KeyGPUTemperature = "gpu_temperature"
	KeyGPUUsage       = "gpu_usage"
	KeyGPUFrequency   = "gpu_frequency"
	KeyGPUVendor      = "gpu_vendor"
	KeyGPUName        = "gpu_name"
)

// Value is an optional numeric-or-string metric reading. The zero Value
// means "no value": the metric was probed but nothing could be read,
// which overlay code must distinguish from a reading of zero.
type Value struct {
	Num *float64
	Str *string
}

// Number wraps a numeric reading.
func Number(v float64) Value { return Value{Num: &v} }

// String wraps a textual reading.
func String(s string) Value { return Value{Str: &s} }

// None is the explicit no-value reading.
func None() Value { return Value{} }

// Present reports whether the value carries a reading.
func (v Value) Present() bool { return v.Num != nil || v.Str != nil }

// Snapshot maps metric keys to their latest readings. A snapshot is
// immutable once published; readers must not mutate it.
type Snapshot map[string]Value

// EmptySnapshot returns a snapshot with every well-known key present but
// carrying no value, the shape served before any collection completes.
func EmptySnapshot() Snapshot {
	return Snapshot{
		KeyCPUTemperature: None(),
		KeyCPUUsage:       None(),
		KeyCPUFrequency:   None(),
		KeyGPUTemperature: None(),
		KeyGPUUsage:       None(),
		KeyGPUFrequency:   None(),
		KeyGPUVendor:      None(),
		KeyGPUName:        None(),
	}
}

// Collector produces one cycle's worth of metric readings. Implementations
// are synchronous; a returned error terminates the refresh cycle.
type Collector interface {
	GetAllMetrics() (Snapshot, error)
}

// merge folds src into dst, overwriting keys present in src.
func merge(dst, src Snapshot) {
	for k, v := range src {
		dst[k] = v
	}
}
