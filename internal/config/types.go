package config

import "time"

type Config struct {
	Logging LoggingConfig `json:"logging"`

	// Monitor controls the live sampling loop (collector + probing).
	Monitor MonitorConfig `json:"monitor"`

	// History controls the persisted snapshot log.
	History HistoryConfig `json:"history"`

	// Notify controls Telegram alert delivery. Disabled unless token and
	// chat_id are both set.
	Notify *NotifyConfig `json:"notify,omitempty"`

	// Speedtest controls scheduled active throughput tests.
	Speedtest *SpeedtestConfig `json:"speedtest,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// MonitorConfig configures one sampling round and the in-memory windows.
//
// All durations are Go duration strings (e.g. "500ms", "1s").
//
// Defaults (when fields are omitted/zero):
//   - target: "8.8.8.8"
//   - probe_count: 5
//   - probe_timeout: "1s"
//   - sample_interval: "1s"
//   - ring_size: 300 (5 minutes at 1/sec)
//   - alert_log_size: 100
type MonitorConfig struct {
	Target         string `json:"target,omitempty"`
	ProbeCount     int    `json:"probe_count,omitempty"`
	ProbeTimeout   string `json:"probe_timeout,omitempty"`
	SampleInterval string `json:"sample_interval,omitempty"`
	RingSize       int    `json:"ring_size,omitempty"`
	AlertLogSize   int    `json:"alert_log_size,omitempty"`

	Thresholds *ThresholdsConfig `json:"thresholds,omitempty"`
}

// ThresholdsConfig holds the alert cutoffs, read-only at scoring time.
type ThresholdsConfig struct {
	PingWarningMs     float64 `json:"ping_warning_ms,omitempty"`
	PingCriticalMs    float64 `json:"ping_critical_ms,omitempty"`
	JitterWarningMs   float64 `json:"jitter_warning_ms,omitempty"`
	JitterCriticalMs  float64 `json:"jitter_critical_ms,omitempty"`
	LossWarningPct    float64 `json:"loss_warning_pct,omitempty"`
	LossCriticalPct   float64 `json:"loss_critical_pct,omitempty"`
	SignalWarningDbm  int     `json:"signal_warning_dbm,omitempty"`
	SignalCriticalDbm int     `json:"signal_critical_dbm,omitempty"`
}

// HistoryConfig controls the persisted snapshot log.
//
// Driver values:
//   - "file": JSON container file (default)
//   - "sqlite": SQLite database file
//
// SaveInterval is the regular-cadence write interval; critical events
// always force an immediate write regardless of it.
type HistoryConfig struct {
	Driver       string `json:"driver,omitempty"`
	Path         string `json:"path,omitempty"`
	SaveInterval string `json:"save_interval,omitempty"`
	MaxRecords   int    `json:"max_records,omitempty"`
	BusyTimeout  string `json:"busy_timeout,omitempty"` // sqlite only
}

// NotifyConfig controls the Telegram alert notifier.
type NotifyConfig struct {
	Enabled    bool   `json:"enabled"`
	Token      string `json:"token,omitempty"`
	ChatID     int64  `json:"chat_id,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
	// DailyReport is a cron expression for the long-term grade report
	// (e.g. "0 8 * * *"). Empty disables the report job.
	DailyReport string `json:"daily_report,omitempty"`
}

// SpeedtestConfig controls scheduled speedtest-go runs.
type SpeedtestConfig struct {
	Enabled     bool   `json:"enabled"`
	Schedule    string `json:"schedule,omitempty"` // cron expression, default "0 */6 * * *"
	HistoryFile string `json:"history_file,omitempty"`
	ServerCount int    `json:"server_count,omitempty"`
}

// Durations returns the parsed monitor durations with defaults applied.
func (m MonitorConfig) Durations() (probeTimeout, sampleInterval time.Duration, err error) {
	probeTimeout, err = ParseDurationOrDefault("monitor.probe_timeout", m.ProbeTimeout, time.Second)
	if err != nil {
		return 0, 0, err
	}
	sampleInterval, err = ParseDurationOrDefault("monitor.sample_interval", m.SampleInterval, time.Second)
	if err != nil {
		return 0, 0, err
	}
	return probeTimeout, sampleInterval, nil
}
