// Package history persists snapshot records with a dual-cadence write
// policy (critical event OR regular interval) and serves period-scoped
// queries with cadence-appropriate aggregation.
package history

import (
	"strings"
	"time"

	"wifimon/internal/monitor"
)

// Record is the persisted form of a snapshot: the charted metrics plus
// the save reason and connectivity at save time. Records are strictly
// ordered by timestamp and append-only; only capacity trimming ever
// removes them (oldest first).
type Record struct {
	Timestamp         time.Time      `json:"timestamp"`
	Reason            monitor.Reason `json:"reason"`
	Connected         bool           `json:"connected"`
	PingMs            *float64       `json:"ping_ms,omitempty"`
	JitterMs          *float64       `json:"jitter_ms,omitempty"`
	PacketLossPercent float64        `json:"packet_loss_percent"`
	SignalPercent     *int           `json:"signal_percent,omitempty"`
	SignalDbm         *int           `json:"signal_dbm,omitempty"`
	QualityScore      int            `json:"quality_score"`
	DownloadMbps      float64        `json:"download_mbps"`
	UploadMbps        float64        `json:"upload_mbps"`
}

func recordFromSnapshot(snap *monitor.Snapshot, reason monitor.Reason) Record {
	return Record{
		Timestamp:         snap.Timestamp,
		Reason:            reason,
		Connected:         snap.Connected,
		PingMs:            snap.PingMs,
		JitterMs:          snap.JitterMs,
		PacketLossPercent: snap.PacketLossPercent,
		SignalPercent:     snap.SignalPercent,
		SignalDbm:         snap.SignalDbm,
		QualityScore:      snap.QualityScore,
		DownloadMbps:      snap.DownloadMbps,
		UploadMbps:        snap.UploadMbps,
	}
}

// Period selects a query window.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod normalizes user input; anything unknown falls back to
// "day" rather than failing.
func ParsePeriod(s string) Period {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case PeriodWeek:
		return PeriodWeek
	case PeriodMonth:
		return PeriodMonth
	default:
		return PeriodDay
	}
}

// Window returns the lookback length for the period.
func (p Period) Window() time.Duration {
	switch p {
	case PeriodWeek:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// bucketInterval returns the aggregation interval; zero means the
// period is served unaggregated.
func (p Period) bucketInterval() time.Duration {
	switch p {
	case PeriodWeek:
		return 5 * time.Minute
	case PeriodMonth:
		return 30 * time.Minute
	default:
		return 0
	}
}

// timestampFormat returns the display format used for the period's
// series labels: second precision for the raw day view, coarser labels
// once records are bucketed.
func (p Period) timestampFormat() string {
	switch p {
	case PeriodWeek:
		return "Mon 15:04"
	case PeriodMonth:
		return "02.01 15:04"
	default:
		return "15:04:05"
	}
}
