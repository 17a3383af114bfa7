package monitor

import (
	"context"
	"testing"
	"time"

	"wifimon/internal/probe"
	logx "wifimon/pkg/logx"
)

type fakeProber struct {
	samples []probe.PingSample
	err     error
}

func (p *fakeProber) Ping(_ context.Context, _ string, _ int, _ time.Duration) ([]probe.PingSample, error) {
	return p.samples, p.err
}

type fakeWifi struct {
	info probe.WifiInfo
	err  error
}

func (w *fakeWifi) Read(context.Context) (probe.WifiInfo, error) { return w.info, w.err }

type fakeThroughput struct{ down, up float64 }

func (t *fakeThroughput) Sample() (float64, float64) { return t.down, t.up }

func ok(latency float64) probe.PingSample {
	return probe.PingSample{LatencyMs: latency, Success: true}
}

func newTestCollector(p probe.Prober, w probe.WifiInfoSource) *Collector {
	return NewCollector(Options{ProbeCount: 5}, p, w, &fakeThroughput{down: 10, up: 2}, nil, logx.Nop())
}

func TestCollectDerivedMetrics(t *testing.T) {
	prober := &fakeProber{samples: []probe.PingSample{
		ok(10), ok(15), ok(12), {Success: false}, ok(11),
	}}
	pct := 72
	wifi := &fakeWifi{info: probe.WifiInfo{Connected: true, SignalPercent: &pct}}

	c := newTestCollector(prober, wifi)
	snap := c.Collect(context.Background())

	if snap.PacketsSent != 5 || snap.PacketsReceived != 4 {
		t.Fatalf("packets = %d/%d", snap.PacketsReceived, snap.PacketsSent)
	}
	if snap.PacketLossPercent != 20.0 {
		t.Errorf("loss = %v, want 20.0", snap.PacketLossPercent)
	}
	if snap.PingMs == nil || *snap.PingMs != 11 {
		t.Errorf("ping = %v, want most recent (11)", snap.PingMs)
	}
	if snap.PingMinMs == nil || *snap.PingMinMs != 10 {
		t.Errorf("ping min = %v", snap.PingMinMs)
	}
	if snap.PingMaxMs == nil || *snap.PingMaxMs != 15 {
		t.Errorf("ping max = %v", snap.PingMaxMs)
	}
	if snap.PingAvgMs == nil || *snap.PingAvgMs != 12 {
		t.Errorf("ping avg = %v, want 12", snap.PingAvgMs)
	}
	// |15-10|, |12-15|, |11-12| -> mean(5,3,1) = 3.0 in burst order.
	if snap.JitterMs == nil || *snap.JitterMs != 3.0 {
		t.Errorf("jitter = %v, want 3.0", snap.JitterMs)
	}
	if snap.DownloadMbps != 10 || snap.UploadMbps != 2 {
		t.Errorf("throughput = %v/%v", snap.DownloadMbps, snap.UploadMbps)
	}
	if !snap.Connected || snap.SignalPercent == nil {
		t.Error("wifi info not applied")
	}
	if c.Current() != snap {
		t.Error("Current() must return the just-collected snapshot")
	}
}

func TestJitterConsecutiveDeltas(t *testing.T) {
	// mean(|15-10|, |12-15|) = mean(5, 3) = 4.0
	if got := jitter([]float64{10, 15, 12}); got != 4.0 {
		t.Errorf("jitter = %v, want 4.0", got)
	}
	if got := jitter([]float64{10}); got != 0 {
		t.Errorf("jitter of one sample = %v, want 0", got)
	}
}

func TestCollectProberError(t *testing.T) {
	c := newTestCollector(&fakeProber{err: context.DeadlineExceeded}, &fakeWifi{})
	snap := c.Collect(context.Background())

	if snap.PacketsReceived != 0 {
		t.Errorf("received = %d", snap.PacketsReceived)
	}
	if snap.PacketLossPercent != 100 {
		t.Errorf("loss = %v, want 100", snap.PacketLossPercent)
	}
	if snap.PingMs != nil || snap.JitterMs != nil {
		t.Error("ping/jitter must be absent on total failure")
	}
	if snap.QualityScore < 0 || snap.QualityScore > 100 {
		t.Errorf("score out of range: %d", snap.QualityScore)
	}
}

func TestCollectWifiErrorDegrades(t *testing.T) {
	c := newTestCollector(
		&fakeProber{samples: []probe.PingSample{ok(10), ok(11), ok(12), ok(13), ok(14)}},
		&fakeWifi{err: context.DeadlineExceeded},
	)
	snap := c.Collect(context.Background())
	if snap.SignalPercent != nil || snap.Connected {
		t.Error("wifi failure must yield an info-less snapshot")
	}
	if snap.PingMs == nil {
		t.Error("latency must still be measured")
	}
}

func TestAlertLogBounded(t *testing.T) {
	prober := &fakeProber{samples: []probe.PingSample{ok(500), ok(500), ok(500), ok(500), ok(500)}}
	c := NewCollector(Options{ProbeCount: 5, AlertLogSize: 3}, prober, &fakeWifi{}, nil, nil, logx.Nop())

	for range 10 {
		c.Collect(context.Background())
	}
	alerts := c.Alerts(0)
	if len(alerts) != 3 {
		t.Fatalf("alert log = %d entries, want 3", len(alerts))
	}
	for _, a := range alerts {
		if a.Metric != "ping" || a.Severity != "critical" {
			t.Errorf("unexpected alert: %+v", a)
		}
	}
}

func TestRecentStatisticsAndSeries(t *testing.T) {
	prober := &fakeProber{samples: []probe.PingSample{ok(10), ok(20), ok(30), ok(40), ok(50)}}
	c := newTestCollector(prober, &fakeWifi{})

	for range 5 {
		c.Collect(context.Background())
	}

	stats := c.RecentStatistics(time.Minute)
	if stats.SampleCount != 5 {
		t.Fatalf("sample count = %d", stats.SampleCount)
	}
	if stats.Ping == nil || stats.Ping.Min != 50 || stats.Ping.Max != 50 {
		t.Errorf("ping summary = %+v", stats.Ping)
	}
	if stats.PacketLoss == nil || stats.PacketLoss.Spikes != 0 {
		t.Errorf("loss summary = %+v", stats.PacketLoss)
	}

	series := c.RecentSeries(time.Minute)
	if len(series.Timestamps) != 5 || len(series.Ping) != 5 || len(series.Quality) != 5 {
		t.Errorf("series lengths = %d/%d/%d", len(series.Timestamps), len(series.Ping), len(series.Quality))
	}
}

func TestRingEviction(t *testing.T) {
	r := newRing[int](3)
	for v := 1; v <= 5; v++ {
		r.Append(v)
	}
	items := r.Items()
	if len(items) != 3 || items[0] != 3 || items[2] != 5 {
		t.Errorf("ring items = %v, want [3 4 5]", items)
	}
	if last := r.Last(2); len(last) != 2 || last[0] != 4 {
		t.Errorf("ring last = %v, want [4 5]", last)
	}
}
