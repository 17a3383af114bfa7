// Package probe defines the collaborator contracts the monitor core
// consumes (latency prober, wifi/link info, throughput sampler) and the
// best-effort OS adapters shipped with the daemon.
//
// All parsing of external command output stays inside this package; the
// core only sees structured, optional-field results.
package probe

import (
	"context"
	"time"
)

// PingSample is one probe of a burst. A failed or timed-out probe has
// Success=false and LatencyMs 0.
type PingSample struct {
	LatencyMs float64
	Success   bool
}

// Prober produces raw latency samples for one burst.
//
// The returned slice length need not equal count (loss parsing may merge
// results). A sample without a latency is treated as a failure by the core.
type Prober interface {
	Ping(ctx context.Context, target string, count int, timeout time.Duration) ([]PingSample, error)
}

// WifiInfo is a best-effort radio/link reading. Every field is optional;
// a fully zero value is a valid "nothing known" result.
type WifiInfo struct {
	SSID          string
	BSSID         string
	AdapterName   string
	SignalPercent *int
	SignalDbm     *int
	Channel       *int
	LinkSpeedMbps *float64
	FrequencyGhz  *float64
	Connected     bool
}

// WifiInfoSource reads current radio/link info.
type WifiInfoSource interface {
	Read(ctx context.Context) (WifiInfo, error)
}

// ThroughputSampler reports download/upload rates in Mbit/s over the
// elapsed wall time since the previous call. The first call per process
// lifetime returns (0, 0) as a calibration baseline.
type ThroughputSampler interface {
	Sample() (downloadMbps, uploadMbps float64)
}

// PercentToDbm converts a signal percentage to an approximate dBm value
// (100% ≈ -30dBm, 0% ≈ -100dBm).
func PercentToDbm(percent int) int {
	return -100 + int(float64(percent)*0.7)
}
