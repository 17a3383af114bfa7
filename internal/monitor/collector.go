package monitor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/montanaflynn/stats"

	"wifimon/internal/eventbus"
	"wifimon/internal/probe"
	logx "wifimon/pkg/logx"
)

// Options configures a Collector.
//
// Defaults (when fields are omitted/zero):
//   - Target: "8.8.8.8"
//   - ProbeCount: 5
//   - ProbeTimeout: 1s
//   - RingSize: 300 (5 minutes at 1/sec)
//   - AlertLogSize: 100
type Options struct {
	Target       string
	ProbeCount   int
	ProbeTimeout time.Duration
	RingSize     int
	AlertLogSize int
	Thresholds   Thresholds
}

func (o *Options) applyDefaults() {
	if o.Target == "" {
		o.Target = "8.8.8.8"
	}
	if o.ProbeCount <= 0 {
		o.ProbeCount = 5
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = time.Second
	}
	if o.RingSize <= 0 {
		o.RingSize = 300
	}
	if o.AlertLogSize <= 0 {
		o.AlertLogSize = 100
	}
	if o.Thresholds == (Thresholds{}) {
		o.Thresholds = DefaultThresholds()
	}
}

// Collector orchestrates one sampling round: probe, derive, score,
// buffer, alert. The sampling loop is its only writer; readers get the
// current snapshot through an atomic pointer and copies of the ring
// contents.
type Collector struct {
	opts Options
	log  logx.Logger

	prober     probe.Prober
	wifi       probe.WifiInfoSource
	throughput probe.ThroughputSampler
	bus        eventbus.Bus

	current atomic.Pointer[Snapshot]

	mu         sync.Mutex
	history    *ring[*Snapshot]
	alerts     *ring[Alert]
	thresholds Thresholds

	now func() time.Time
}

func NewCollector(opts Options, prober probe.Prober, wifi probe.WifiInfoSource, throughput probe.ThroughputSampler, bus eventbus.Bus, log logx.Logger) *Collector {
	opts.applyDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Collector{
		opts:       opts,
		log:        log,
		prober:     prober,
		wifi:       wifi,
		throughput: throughput,
		bus:        bus,
		history:    newRing[*Snapshot](opts.RingSize),
		alerts:     newRing[Alert](opts.AlertLogSize),
		thresholds: opts.Thresholds,
		now:        time.Now,
	}
}

// SetThresholds swaps the alert cutoffs (config reload).
func (c *Collector) SetThresholds(t Thresholds) {
	c.mu.Lock()
	c.thresholds = t
	c.mu.Unlock()
}

// Current returns the most recent snapshot, or nil before the first round.
func (c *Collector) Current() *Snapshot { return c.current.Load() }

// Collect performs one sampling round and returns the resulting
// snapshot. It never returns an error: probe and info failures degrade
// to absent fields so the sampling loop survives any single round.
func (c *Collector) Collect(ctx context.Context) *Snapshot {
	snap := &Snapshot{Timestamp: c.now()}

	c.fillWifiInfo(ctx, snap)
	c.fillLatency(ctx, snap)

	if c.throughput != nil {
		snap.DownloadMbps, snap.UploadMbps = c.throughput.Sample()
	}

	snap.QualityScore, snap.QualityStatus = qualityScore(snap)

	// Publish before alerting so alert consumers can read Current().
	c.current.Store(snap)

	alerts := c.checkAlerts(snap)

	c.mu.Lock()
	c.history.Append(snap)
	for _, a := range alerts {
		c.alerts.Append(a)
	}
	c.mu.Unlock()

	if c.bus != nil {
		for _, a := range alerts {
			c.bus.Publish(eventbus.Event{Type: eventbus.TypeAlert, Time: a.Time, Data: a})
		}
	}

	return snap
}

func (c *Collector) fillWifiInfo(ctx context.Context, snap *Snapshot) {
	if c.wifi == nil {
		return
	}
	info, err := c.wifi.Read(ctx)
	if err != nil {
		c.log.Debug("wifi info read failed", logx.Err(err))
		return
	}
	snap.SSID = info.SSID
	snap.BSSID = info.BSSID
	snap.AdapterName = info.AdapterName
	snap.SignalDbm = info.SignalDbm
	snap.SignalPercent = info.SignalPercent
	snap.LinkSpeedMbps = info.LinkSpeedMbps
	snap.Channel = info.Channel
	snap.FrequencyGhz = info.FrequencyGhz
	snap.Connected = info.Connected
}

func (c *Collector) fillLatency(ctx context.Context, snap *Snapshot) {
	samples, err := c.prober.Ping(ctx, c.opts.Target, c.opts.ProbeCount, c.opts.ProbeTimeout)
	if err != nil {
		c.log.Debug("probe burst failed", logx.String("target", c.opts.Target), logx.Err(err))
		// A dead prober is still a measurement: full loss.
		samples = make([]probe.PingSample, c.opts.ProbeCount)
	}

	latencies := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.Success && s.LatencyMs > 0 {
			latencies = append(latencies, s.LatencyMs)
		}
	}

	snap.PacketsSent = len(samples)
	snap.PacketsReceived = len(latencies)
	if snap.PacketsSent > 0 {
		loss := (1 - float64(snap.PacketsReceived)/float64(snap.PacketsSent)) * 100
		snap.PacketLossPercent = math.Round(loss*10) / 10
	}

	if len(latencies) == 0 {
		return
	}

	// Most recent sample, not the mean: the dashboard tracks "right now".
	last := latencies[len(latencies)-1]
	minV, maxV, sum := latencies[0], latencies[0], 0.0
	for _, v := range latencies {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		sum += v
	}
	avg := sum / float64(len(latencies))

	snap.PingMs = &last
	snap.PingMinMs = &minV
	snap.PingMaxMs = &maxV
	snap.PingAvgMs = &avg

	if len(latencies) >= 2 {
		j := math.Round(jitter(latencies)*100) / 100
		snap.JitterMs = &j
	}
}

// jitter is the mean absolute difference between consecutive latencies
// in burst order (not sorted order). Frame-to-frame variance is what
// interactive traffic feels, so this deliberately is not a standard
// deviation.
func jitter(latencies []float64) float64 {
	if len(latencies) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(latencies); i++ {
		sum += math.Abs(latencies[i] - latencies[i-1])
	}
	return sum / float64(len(latencies)-1)
}

func (c *Collector) checkAlerts(snap *Snapshot) []Alert {
	c.mu.Lock()
	t := c.thresholds
	c.mu.Unlock()

	var out []Alert

	if snap.PingMs != nil && *snap.PingMs > t.PingCriticalMs {
		out = append(out, Alert{
			Time:     snap.Timestamp,
			Severity: "critical",
			Metric:   "ping",
			Message:  fmt.Sprintf("High ping spike: %.0fms", *snap.PingMs),
		})
	}
	if snap.JitterMs != nil && *snap.JitterMs > t.JitterCriticalMs {
		out = append(out, Alert{
			Time:     snap.Timestamp,
			Severity: "critical",
			Metric:   "jitter",
			Message:  fmt.Sprintf("High jitter: %.1fms", *snap.JitterMs),
		})
	}
	if snap.PacketLossPercent > t.LossCriticalPct {
		out = append(out, Alert{
			Time:     snap.Timestamp,
			Severity: "critical",
			Metric:   "packet_loss",
			Message:  fmt.Sprintf("Packet loss: %.1f%%", snap.PacketLossPercent),
		})
	}
	if snap.SignalDbm != nil && *snap.SignalDbm < t.SignalCriticalDbm {
		out = append(out, Alert{
			Time:     snap.Timestamp,
			Severity: "warning",
			Metric:   "signal",
			Message:  fmt.Sprintf("Weak signal: %ddBm", *snap.SignalDbm),
		})
	}
	return out
}

// Alerts returns up to limit most recent alerts, oldest-first.
func (c *Collector) Alerts(limit int) []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	if limit <= 0 {
		return c.alerts.Items()
	}
	return c.alerts.Last(limit)
}

// Statistics summarizes the recent in-memory window.
type Statistics struct {
	SampleCount   int            `json:"sample_count"`
	WindowSeconds int            `json:"window_seconds"`
	Ping          *MetricSummary `json:"ping,omitempty"`
	Jitter        *MetricSummary `json:"jitter,omitempty"`
	PacketLoss    *LossSummary   `json:"packet_loss,omitempty"`
}

type MetricSummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	Std float64 `json:"std"`
}

type LossSummary struct {
	MeanPercent float64 `json:"mean_percent"`
	Spikes      int     `json:"spikes"`
}

// RecentStatistics summarizes snapshots within the given window.
func (c *Collector) RecentStatistics(window time.Duration) Statistics {
	recent := c.recentSnapshots(window)

	out := Statistics{
		SampleCount:   len(recent),
		WindowSeconds: int(window.Seconds()),
	}
	if len(recent) == 0 {
		return out
	}

	var pings, jitters, losses []float64
	spikes := 0
	for _, s := range recent {
		if s.PingMs != nil {
			pings = append(pings, *s.PingMs)
		}
		if s.JitterMs != nil {
			jitters = append(jitters, *s.JitterMs)
		}
		losses = append(losses, s.PacketLossPercent)
		if s.PacketLossPercent > 0 {
			spikes++
		}
	}

	out.Ping = summarize(pings)
	out.Jitter = summarize(jitters)
	if len(losses) > 0 {
		mean, _ := stats.Mean(losses)
		out.PacketLoss = &LossSummary{
			MeanPercent: math.Round(mean*100) / 100,
			Spikes:      spikes,
		}
	}
	return out
}

func summarize(values []float64) *MetricSummary {
	if len(values) == 0 {
		return nil
	}
	minV, _ := stats.Min(values)
	maxV, _ := stats.Max(values)
	avg, _ := stats.Mean(values)
	std := 0.0
	if len(values) > 1 {
		std, _ = stats.StandardDeviationSample(values)
	}
	round1 := func(v float64) float64 { return math.Round(v*10) / 10 }
	return &MetricSummary{
		Min: round1(minV),
		Max: round1(maxV),
		Avg: round1(avg),
		Std: round1(std),
	}
}

// Series holds parallel per-sample sequences for charting, aligned by
// index. Absent values render as 0 (neutral placeholder).
type Series struct {
	Timestamps []string  `json:"timestamps"`
	Ping       []float64 `json:"ping"`
	Jitter     []float64 `json:"jitter"`
	PacketLoss []float64 `json:"packet_loss"`
	Signal     []float64 `json:"signal"`
	Quality    []float64 `json:"quality"`
}

// RecentSeries returns the in-memory series for snapshots within the window.
func (c *Collector) RecentSeries(window time.Duration) Series {
	recent := c.recentSnapshots(window)

	s := Series{
		Timestamps: make([]string, 0, len(recent)),
		Ping:       make([]float64, 0, len(recent)),
		Jitter:     make([]float64, 0, len(recent)),
		PacketLoss: make([]float64, 0, len(recent)),
		Signal:     make([]float64, 0, len(recent)),
		Quality:    make([]float64, 0, len(recent)),
	}
	for _, m := range recent {
		s.Timestamps = append(s.Timestamps, m.Timestamp.Format("15:04:05"))
		s.Ping = append(s.Ping, deref(m.PingMs))
		s.Jitter = append(s.Jitter, deref(m.JitterMs))
		s.PacketLoss = append(s.PacketLoss, m.PacketLossPercent)
		if m.SignalPercent != nil {
			s.Signal = append(s.Signal, float64(*m.SignalPercent))
		} else {
			s.Signal = append(s.Signal, 0)
		}
		s.Quality = append(s.Quality, float64(m.QualityScore))
	}
	return s
}

func (c *Collector) recentSnapshots(window time.Duration) []*Snapshot {
	cutoff := c.now().Add(-window)

	c.mu.Lock()
	items := c.history.Items()
	c.mu.Unlock()

	out := make([]*Snapshot, 0, len(items))
	for _, s := range items {
		if s.Timestamp.After(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
