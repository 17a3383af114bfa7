// Package app wires the daemon together: config, logging, the sampling
// loop, the history store, scheduled speedtests, and notifications.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"wifimon/internal/config"
	"wifimon/internal/eventbus"
	"wifimon/internal/grade"
	"wifimon/internal/history"
	"wifimon/internal/monitor"
	"wifimon/internal/notify"
	"wifimon/internal/probe"
	"wifimon/internal/speedtest"
	logx "wifimon/pkg/logx"
)

const stopTimeout = 10 * time.Second

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	bus       eventbus.Bus
	store     *history.Store
	collector *monitor.Collector
	runner    *monitor.Runner
	notifier  *notify.Service
	scorer    *grade.Scorer
	speed     *speedtest.Runner
	cron      *cron.Cron

	watchCancel context.CancelFunc
}

// New loads the config and constructs every component. Nothing runs
// until Start.
func New(cfgPath string) (*App, error) {
	cfgMgr := config.NewManager(cfgPath)
	cfg, err := cfgMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	cfgMgr.SetLogger(log.With(logx.String("comp", "config")))

	probeTimeout, sampleInterval, err := cfg.Monitor.Durations()
	if err != nil {
		return nil, err
	}
	saveInterval, err := config.ParseDurationOrDefault("history.save_interval", cfg.History.SaveInterval, 5*time.Second)
	if err != nil {
		return nil, err
	}
	busyTimeout, err := config.ParseDurationOrDefault("history.busy_timeout", cfg.History.BusyTimeout, 0)
	if err != nil {
		return nil, err
	}

	store, err := history.Open(history.Config{
		Driver:       cfg.History.Driver,
		Path:         cfg.History.Path,
		SaveInterval: saveInterval,
		MaxRecords:   cfg.History.MaxRecords,
		BusyTimeout:  busyTimeout,
	}, log.With(logx.String("comp", "history")))
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	bus := eventbus.New()

	collector := monitor.NewCollector(monitor.Options{
		Target:       cfg.Monitor.Target,
		ProbeCount:   cfg.Monitor.ProbeCount,
		ProbeTimeout: probeTimeout,
		RingSize:     cfg.Monitor.RingSize,
		AlertLogSize: cfg.Monitor.AlertLogSize,
		Thresholds:   thresholdsFromConfig(cfg.Monitor.Thresholds),
	},
		probe.NewPingCommand(),
		probe.NewNmcliWifi(),
		probe.NewNetThroughput(),
		bus,
		log.With(logx.String("comp", "monitor")),
	)

	record := func(ctx context.Context, snap *monitor.Snapshot) error {
		reason, saved, err := store.Save(ctx, snap)
		if err == nil && saved && reason.IsEvent() {
			bus.Publish(eventbus.Event{Type: eventbus.TypeHistoryRecord, Time: snap.Timestamp, Data: reason})
		}
		return err
	}
	runner := monitor.NewRunner(collector, record, sampleInterval, log.With(logx.String("comp", "monitor")))

	a := &App{
		cfgMgr:    cfgMgr,
		logSvc:    logSvc,
		log:       log,
		bus:       bus,
		store:     store,
		collector: collector,
		runner:    runner,
		scorer:    grade.NewScorer(store),
		cron:      cron.New(),
	}

	a.notifier = a.buildNotifier(cfg)
	if err := a.scheduleJobs(cfg); err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) buildNotifier(cfg *config.Config) *notify.Service {
	nc := cfg.Notify
	if nc == nil || !nc.Enabled {
		return notify.New(notify.Config{}, nil, a.bus, a.log)
	}
	sender, err := notify.NewTelegramSender(nc.Token, nc.ChatID)
	if err != nil {
		a.log.Warn("telegram notifier disabled", logx.Err(err))
		return notify.New(notify.Config{}, nil, a.bus, a.log)
	}
	return notify.New(notify.Config{
		Enabled:    true,
		RatePerSec: nc.RatePerSec,
	}, sender, a.bus, a.log.With(logx.String("comp", "notify")))
}

func (a *App) scheduleJobs(cfg *config.Config) error {
	if sc := cfg.Speedtest; sc != nil && sc.Enabled {
		a.speed = speedtest.NewRunner(speedtest.Config{
			HistoryFile: sc.HistoryFile,
			ServerCount: sc.ServerCount,
		}, a.bus, a.log.With(logx.String("comp", "speedtest")))

		if _, err := a.cron.AddFunc(sc.Schedule, a.runSpeedtest); err != nil {
			return fmt.Errorf("speedtest schedule %q: %w", sc.Schedule, err)
		}
	}

	if nc := cfg.Notify; nc != nil && nc.Enabled && nc.DailyReport != "" {
		if _, err := a.cron.AddFunc(nc.DailyReport, a.sendDailyReport); err != nil {
			return fmt.Errorf("daily report schedule %q: %w", nc.DailyReport, err)
		}
	}
	return nil
}

func (a *App) runSpeedtest() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// The runner publishes the result on the bus; the notifier picks it
	// up from there like any other event.
	if _, err := a.speed.Run(ctx); err != nil {
		a.log.Warn("speedtest run failed", logx.Err(err))
	}
}

func (a *App) sendDailyReport() {
	res := a.scorer.Score(history.PeriodDay)
	if err := a.notifier.Announce(formatDailyReport(res)); err != nil && err != notify.ErrDisabled {
		a.log.Warn("daily report announce failed", logx.Err(err))
	}
}

func formatDailyReport(res grade.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Connection report (%d records over %.0fh)\n", res.RecordCount, res.WindowHours)
	fmt.Fprintf(&b, "Grade: %s (%s), score %d/100", res.Grade, res.Label, res.Score)
	if res.RecordCount > 0 {
		fmt.Fprintf(&b, "\nLoss %d | Ping %d | Stability %d | Jitter %d",
			res.Breakdown.PacketLoss, res.Breakdown.Ping, res.Breakdown.Connection, res.Breakdown.Jitter)
	}
	return b.String()
}

// Start launches the sampling loop, the notifier, the cron jobs and
// the config watcher, then signals readiness to systemd.
func (a *App) Start(ctx context.Context) error {
	a.notifier.Start(ctx)
	a.runner.Start(ctx)
	a.cron.Start()

	watchCtx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	a.cfgMgr.OnChange(a.onConfigChange)
	go func() {
		if err := a.cfgMgr.Watch(watchCtx); err != nil && watchCtx.Err() == nil {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify failed", logx.Err(err))
	} else if sent {
		a.log.Debug("sd_notify ready")
	}

	a.log.Info("started")
	return nil
}

// onConfigChange applies hot-reloadable settings: log level and
// destinations, alert thresholds, notifier rate. Structural settings
// (history driver, probe target, schedules) need a restart.
func (a *App) onConfigChange(cfg *config.Config) {
	a.logSvc.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	a.collector.SetThresholds(thresholdsFromConfig(cfg.Monitor.Thresholds))
	if nc := cfg.Notify; nc != nil {
		a.notifier.Apply(notify.Config{Enabled: nc.Enabled, RatePerSec: nc.RatePerSec})
	}
	a.log.Info("config reloaded")
}

// Stop shuts the pipeline down in dependency order: stop producing
// samples first, then drain consumers, then close the store.
func (a *App) Stop() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if a.watchCancel != nil {
		a.watchCancel()
	}

	a.runner.Stop(stopTimeout)

	cronCtx := a.cron.Stop()
	select {
	case <-cronCtx.Done():
	case <-time.After(stopTimeout):
	}

	a.notifier.Stop()

	if err := a.store.Close(); err != nil {
		a.log.Warn("history close failed", logx.Err(err))
	}
	a.log.Info("stopped")
	_ = a.logSvc.Close()
}

// Collector exposes the live collector to embedding surfaces.
func (a *App) Collector() *monitor.Collector { return a.collector }

// Store exposes the history store to embedding surfaces.
func (a *App) Store() *history.Store { return a.store }

// Scorer exposes the long-term grader to embedding surfaces.
func (a *App) Scorer() *grade.Scorer { return a.scorer }

func thresholdsFromConfig(tc *config.ThresholdsConfig) monitor.Thresholds {
	t := monitor.DefaultThresholds()
	if tc == nil {
		return t
	}
	if tc.PingWarningMs > 0 {
		t.PingWarningMs = tc.PingWarningMs
	}
	if tc.PingCriticalMs > 0 {
		t.PingCriticalMs = tc.PingCriticalMs
	}
	if tc.JitterWarningMs > 0 {
		t.JitterWarningMs = tc.JitterWarningMs
	}
	if tc.JitterCriticalMs > 0 {
		t.JitterCriticalMs = tc.JitterCriticalMs
	}
	if tc.LossWarningPct > 0 {
		t.LossWarningPct = tc.LossWarningPct
	}
	if tc.LossCriticalPct > 0 {
		t.LossCriticalPct = tc.LossCriticalPct
	}
	if tc.SignalWarningDbm != 0 {
		t.SignalWarningDbm = tc.SignalWarningDbm
	}
	if tc.SignalCriticalDbm != 0 {
		t.SignalCriticalDbm = tc.SignalCriticalDbm
	}
	return t
}
