package monitor

import "testing"

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func TestQualityScoreAllAbsent(t *testing.T) {
	score, status := qualityScore(&Snapshot{})
	if score != 100 {
		t.Errorf("score = %d, want 100", score)
	}
	if status != "Excellent" {
		t.Errorf("status = %q, want Excellent", status)
	}
}

func TestQualityScoreWorstCaseClamps(t *testing.T) {
	s := &Snapshot{
		PingMs:            f(200),
		JitterMs:          f(60),
		PacketLossPercent: 12,
		SignalDbm:         i(-90),
	}
	// 100 - 40 - 40 - 50 - 25 clamps to 0.
	score, status := qualityScore(s)
	if score != 0 {
		t.Errorf("score = %d, want 0", score)
	}
	if status != "Critical" {
		t.Errorf("status = %q, want Critical", status)
	}
}

func TestQualityScoreSingleTierPerMetric(t *testing.T) {
	// ping 160 is in the >150 band only; no stacking with >100/>50/>30.
	score, _ := qualityScore(&Snapshot{PingMs: f(160)})
	if score != 60 {
		t.Errorf("score = %d, want 60", score)
	}
}

func TestQualityScoreBands(t *testing.T) {
	cases := []struct {
		name string
		snap Snapshot
		want int
	}{
		{"ping 40", Snapshot{PingMs: f(40)}, 95},
		{"ping 60", Snapshot{PingMs: f(60)}, 90},
		{"ping 120", Snapshot{PingMs: f(120)}, 75},
		{"jitter 6", Snapshot{JitterMs: f(6)}, 90},
		{"jitter 20", Snapshot{JitterMs: f(20)}, 80},
		{"loss 1", Snapshot{PacketLossPercent: 1}, 85},
		{"loss 3", Snapshot{PacketLossPercent: 3}, 75},
		{"loss 8", Snapshot{PacketLossPercent: 8}, 65},
		{"signal -65", Snapshot{SignalDbm: i(-65)}, 95},
		{"signal -75", Snapshot{SignalDbm: i(-75)}, 85},
		{"signal -85", Snapshot{SignalDbm: i(-85)}, 75},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := qualityScore(&tc.snap)
			if got != tc.want {
				t.Errorf("score = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestStatusLabels(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, "Excellent"}, {90, "Excellent"}, {89, "Good"}, {75, "Good"},
		{74, "Fair"}, {50, "Fair"}, {49, "Poor"}, {25, "Poor"}, {24, "Critical"}, {0, "Critical"},
	}
	for _, tc := range cases {
		if got := statusLabel(tc.score); got != tc.want {
			t.Errorf("statusLabel(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
