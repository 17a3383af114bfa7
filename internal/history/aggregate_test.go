package history

import (
	"testing"
	"time"
)

func rec(ts time.Time, loss float64, signal int, download float64) Record {
	return Record{
		Timestamp:         ts,
		PacketLossPercent: loss,
		SignalPercent:     &signal,
		QualityScore:      signal, // convenient second "min" metric
		DownloadMbps:      download,
	}
}

func TestReduceBucketPerMetricReducers(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ping1, ping2 := 10.0, 80.0

	bucket := []Record{
		{Timestamp: base, PacketLossPercent: 0, PingMs: &ping1, DownloadMbps: 10},
		{Timestamp: base.Add(time.Minute), PacketLossPercent: 0, PingMs: &ping2, DownloadMbps: 12},
		{Timestamp: base.Add(2 * time.Minute), PacketLossPercent: 8},
		{Timestamp: base.Add(3 * time.Minute), PacketLossPercent: 1},
	}
	out := reduceBucket(bucket)

	// Risk metrics keep the spike.
	if out.PacketLossPercent != 8 {
		t.Errorf("loss = %v, want max 8", out.PacketLossPercent)
	}
	if out.PingMs == nil || *out.PingMs != 80 {
		t.Errorf("ping = %v, want max 80", out.PingMs)
	}
	// Throughput averages; records without a value don't count.
	// Download has values 10, 12, 0, 0 (defaults count as values here).
	if out.DownloadMbps != 5.5 {
		t.Errorf("download = %v, want 5.5", out.DownloadMbps)
	}
	// Middle record's literal timestamp (index 2 of 4).
	if !out.Timestamp.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("timestamp = %v, want middle record's", out.Timestamp)
	}
}

func TestReduceBucketMinForQualityMetrics(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	bucket := []Record{
		rec(base, 0, 80, 10),
		rec(base.Add(time.Minute), 0, 60, 12),
		rec(base.Add(2*time.Minute), 0, 75, 11),
	}
	out := reduceBucket(bucket)

	if out.SignalPercent == nil || *out.SignalPercent != 60 {
		t.Errorf("signal = %v, want min 60", out.SignalPercent)
	}
	if out.QualityScore != 60 {
		t.Errorf("quality = %d, want min 60", out.QualityScore)
	}
	if out.DownloadMbps != 11 {
		t.Errorf("download = %v, want avg 11", out.DownloadMbps)
	}
}

func TestReduceBucketMissingValuesExcluded(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	j := 4.0
	bucket := []Record{
		{Timestamp: base},
		{Timestamp: base.Add(time.Minute), JitterMs: &j},
	}
	out := reduceBucket(bucket)
	if out.JitterMs == nil || *out.JitterMs != 4.0 {
		t.Errorf("jitter = %v, want 4.0 (absent values excluded)", out.JitterMs)
	}

	// No valid jitter at all reduces to 0, not absent.
	out = reduceBucket([]Record{{Timestamp: base}})
	if out.JitterMs == nil || *out.JitterMs != 0 {
		t.Errorf("jitter with no values = %v, want 0", out.JitterMs)
	}
}

func TestAggregateBucketBoundaries(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	interval := 5 * time.Minute

	var recs []Record
	// First bucket: 0m, 2m, 4m. Second: 5m, 9m. Third: 10m.
	for _, off := range []time.Duration{0, 2 * time.Minute, 4 * time.Minute, 5 * time.Minute, 9 * time.Minute, 10 * time.Minute} {
		recs = append(recs, rec(base.Add(off), 0, 70, 0))
	}

	out := aggregate(recs, interval)
	if len(out) != 3 {
		t.Fatalf("bucket count = %d, want 3", len(out))
	}
	// Buckets key off their first record, not calendar alignment.
	if !out[0].Timestamp.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("bucket 0 timestamp = %v (middle of 3)", out[0].Timestamp)
	}
	if !out[1].Timestamp.Equal(base.Add(9 * time.Minute)) {
		t.Errorf("bucket 1 timestamp = %v (middle index 1 of 2)", out[1].Timestamp)
	}
}

func TestAggregateSparseBucketsRunLong(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// 0m and 4m59s fall in one 5m bucket even though the next record is
	// far away; 12m starts a fresh bucket.
	recs := []Record{
		rec(base, 0, 70, 0),
		rec(base.Add(4*time.Minute+59*time.Second), 0, 70, 0),
		rec(base.Add(12*time.Minute), 0, 70, 0),
	}
	out := aggregate(recs, 5*time.Minute)
	if len(out) != 2 {
		t.Fatalf("bucket count = %d, want 2", len(out))
	}
}

func TestAggregateEmpty(t *testing.T) {
	if out := aggregate(nil, time.Minute); out != nil {
		t.Errorf("aggregate(nil) = %v", out)
	}
}
