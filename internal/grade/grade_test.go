package grade

import (
	"testing"
	"time"

	"wifimon/internal/history"
	"wifimon/internal/monitor"
)

func recordAt(ts time.Time, reason monitor.Reason, ping, jitter, loss float64) history.Record {
	return history.Record{
		Timestamp:         ts,
		Reason:            reason,
		Connected:         true,
		PingMs:            &ping,
		JitterMs:          &jitter,
		PacketLossPercent: loss,
	}
}

// steadyWindow builds hours of clean 15ms/2ms records.
func steadyWindow(hours int) []history.Record {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	var recs []history.Record
	for i := 0; i < hours*60; i++ {
		recs = append(recs, recordAt(base.Add(time.Duration(i)*time.Minute), monitor.ReasonRegular, 15, 2, 0))
	}
	return recs
}

type sliceSource []history.Record

func (s sliceSource) Records(history.Period) []history.Record { return s }

func TestScoreEmptyWindow(t *testing.T) {
	res := NewScorer(sliceSource(nil)).Score(history.PeriodDay)
	if res.Score != 0 || res.Grade != "N/A" {
		t.Errorf("empty window = %d %q, want 0 N/A", res.Score, res.Grade)
	}
	if res.RecordCount != 0 {
		t.Errorf("record count = %d", res.RecordCount)
	}
}

func TestScorePerfectWindow(t *testing.T) {
	res := scoreRecords(steadyWindow(24))
	if res.Score != 100 {
		t.Errorf("score = %d, want 100", res.Score)
	}
	if res.Grade != "A+" || res.Label != "Outstanding" {
		t.Errorf("grade = %q %q", res.Grade, res.Label)
	}
	if res.WindowHours < 23 || res.WindowHours > 24 {
		t.Errorf("window hours = %v", res.WindowHours)
	}
}

func TestLossEventsDragScore(t *testing.T) {
	recs := steadyWindow(24)
	// Twelve loss onsets in 24 hours lands in the <=10/day band minus
	// margin, well below the clean-window score.
	for i := 0; i < 12; i++ {
		recs[i*100].Reason = monitor.ReasonPacketLossStart
		recs[i*100].PacketLossPercent = 6
	}
	res := scoreRecords(recs)
	if res.Breakdown.PacketLoss >= 100 {
		t.Errorf("loss sub-score = %d, want reduced", res.Breakdown.PacketLoss)
	}
	if res.Score >= 100 {
		t.Errorf("composite = %d, want reduced", res.Score)
	}
}

func TestMeanLossCapOnlyLowers(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// No loss events at all, but every record carries 3% loss: the
	// band gives 100 and the mean-loss cap pulls it to 50.
	var recs []history.Record
	for i := 0; i < 120; i++ {
		recs = append(recs, recordAt(base.Add(time.Duration(i)*time.Minute), monitor.ReasonRegular, 15, 2, 3))
	}
	res := scoreRecords(recs)
	if res.Breakdown.PacketLoss != 50 {
		t.Errorf("loss sub-score = %d, want capped at 50", res.Breakdown.PacketLoss)
	}
}

func TestDisconnectsLowerConnectionScore(t *testing.T) {
	recs := steadyWindow(25)
	recs[10].Reason = monitor.ReasonDisconnected
	recs[300].Reason = monitor.ReasonDisconnected
	res := scoreRecords(recs)
	// 2 disconnects over ~25h lands in the <=2/day band.
	if res.Breakdown.Connection != 60 {
		t.Errorf("connection sub-score = %d, want 60", res.Breakdown.Connection)
	}
}

func TestPingSpikesPenalize(t *testing.T) {
	recs := steadyWindow(10)
	// >5% of records tagged as spikes.
	for i := 0; i < len(recs)/10; i++ {
		recs[i*10].Reason = monitor.ReasonPingSpike
	}
	withSpikes := scoreRecords(recs).Breakdown.Ping
	clean := scoreRecords(steadyWindow(10)).Breakdown.Ping
	if withSpikes != clean-25 {
		t.Errorf("ping sub-score = %d, want %d", withSpikes, clean-25)
	}
}

func TestHighLatencyBand(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	var recs []history.Record
	for i := 0; i < 60; i++ {
		recs = append(recs, recordAt(base.Add(time.Duration(i)*time.Minute), monitor.ReasonRegular, 200, 2, 0))
	}
	res := scoreRecords(recs)
	// mean 200ms: max(0, 40-(200-100)/5) = 20, no stddev or spike penalty.
	if res.Breakdown.Ping != 20 {
		t.Errorf("ping sub-score = %d, want 20", res.Breakdown.Ping)
	}
}

func TestJitterMaxPenalty(t *testing.T) {
	recs := steadyWindow(2)
	spike := 120.0
	recs[5].JitterMs = &spike
	res := scoreRecords(recs)
	// Mean stays in the lowest band but the 120ms worst case costs 20.
	if res.Breakdown.Jitter != 80 {
		t.Errorf("jitter sub-score = %d, want 80", res.Breakdown.Jitter)
	}
}

func TestWindowFlooredAtOneHour(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	recs := []history.Record{
		recordAt(base, monitor.ReasonInitial, 15, 2, 0),
		recordAt(base.Add(time.Minute), monitor.ReasonRegular, 15, 2, 0),
	}
	if h := windowHours(recs); h != 1 {
		t.Errorf("window hours = %v, want floor of 1", h)
	}
}

func TestGradeThresholds(t *testing.T) {
	cases := []struct {
		score int
		grade string
	}{
		{100, "A+"}, {95, "A+"}, {94, "A"}, {90, "A"},
		{87, "B+"}, {82, "B"}, {75, "C+"}, {65, "C"},
		{55, "D"}, {40, "E"}, {10, "F"},
	}
	for _, c := range cases {
		if g, _ := gradeFor(c.score); g != c.grade {
			t.Errorf("gradeFor(%d) = %q, want %q", c.score, g, c.grade)
		}
	}
}
