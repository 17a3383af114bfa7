// Package monitor implements the live sampling core: one collection
// round per tick, derived latency metrics, quality scoring, transition
// detection and a bounded alert log.
package monitor

import "time"

// Snapshot is the result of one sampling round. It is built once at the
// end of the round and never mutated afterwards; readers always see
// either a fully formed snapshot or the previous one.
//
// Pointer fields are absent when the round could not measure them
// (fewer than 1 successful probe for the ping fields, fewer than 2 for
// jitter, no radio info). Absence is not an error state.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	// Radio / link
	SSID          string   `json:"ssid,omitempty"`
	BSSID         string   `json:"bssid,omitempty"`
	AdapterName   string   `json:"adapter_name,omitempty"`
	SignalDbm     *int     `json:"signal_dbm,omitempty"`
	SignalPercent *int     `json:"signal_percent,omitempty"`
	LinkSpeedMbps *float64 `json:"link_speed_mbps,omitempty"`
	Channel       *int     `json:"channel,omitempty"`
	FrequencyGhz  *float64 `json:"frequency_ghz,omitempty"`
	Connected     bool     `json:"connected"`

	// Latency (per burst)
	PingMs    *float64 `json:"ping_ms,omitempty"`     // most recent successful sample
	PingMinMs *float64 `json:"ping_min_ms,omitempty"`
	PingMaxMs *float64 `json:"ping_max_ms,omitempty"`
	PingAvgMs *float64 `json:"ping_avg_ms,omitempty"`
	JitterMs  *float64 `json:"jitter_ms,omitempty"` // mean |consecutive latency delta|

	// Packet loss
	PacketLossPercent float64 `json:"packet_loss_percent"`
	PacketsSent       int     `json:"packets_sent"`
	PacketsReceived   int     `json:"packets_received"`

	// Throughput
	DownloadMbps float64 `json:"download_mbps"`
	UploadMbps   float64 `json:"upload_mbps"`

	// Composite quality
	QualityScore  int    `json:"quality_score"`
	QualityStatus string `json:"quality_status"`
}

// HasPing reports whether the burst produced at least one successful probe.
func (s *Snapshot) HasPing() bool { return s != nil && s.PingMs != nil }

// Reason tags why a snapshot was persisted: either a detected critical
// transition, or the regular save cadence.
type Reason string

const (
	ReasonInitial         Reason = "initial"
	ReasonRegular         Reason = "regular"
	ReasonDisconnected    Reason = "disconnected"
	ReasonReconnected     Reason = "reconnected"
	ReasonPacketLossStart Reason = "packet_loss_start"
	ReasonPacketLossEnd   Reason = "packet_loss_end"
	ReasonPingTimeout     Reason = "ping_timeout"
	ReasonPingRecovered   Reason = "ping_recovered"
	ReasonHighPacketLoss  Reason = "high_packet_loss"
	ReasonPingSpike       Reason = "ping_spike"
)

// IsEvent reports whether the reason marks a critical transition rather
// than a cadence write.
func (r Reason) IsEvent() bool {
	return r != ReasonInitial && r != ReasonRegular && r != ""
}

// Thresholds holds the alert cutoffs. Read-only during a round; swapped
// wholesale on config reload.
type Thresholds struct {
	PingWarningMs     float64
	PingCriticalMs    float64
	JitterWarningMs   float64
	JitterCriticalMs  float64
	LossWarningPct    float64
	LossCriticalPct   float64
	SignalWarningDbm  int
	SignalCriticalDbm int
}

// DefaultThresholds mirrors the values the daemon ships with.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PingWarningMs:     50,
		PingCriticalMs:    100,
		JitterWarningMs:   10,
		JitterCriticalMs:  30,
		LossWarningPct:    1,
		LossCriticalPct:   5,
		SignalWarningDbm:  -70,
		SignalCriticalDbm: -80,
	}
}

// Alert is one threshold crossing observed during a round.
type Alert struct {
	Time     time.Time `json:"time"`
	Severity string    `json:"severity"` // "warning" | "critical"
	Metric   string    `json:"metric"`
	Message  string    `json:"message"`
}
