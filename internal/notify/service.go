// Package notify forwards monitor alerts and periodic reports to a
// Telegram chat through a rate-limited queue, so an alert storm never
// trips the Telegram API limits or blocks the sampling loop.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"wifimon/internal/eventbus"
	"wifimon/internal/monitor"
	"wifimon/internal/speedtest"
	logx "wifimon/pkg/logx"
)

var (
	ErrDisabled  = errors.New("notifier disabled")
	ErrQueueFull = errors.New("notifier queue full")
)

type Config struct {
	Enabled    bool
	RatePerSec int
	QueueSize  int
}

// Service consumes alert events from the bus and pushes formatted
// messages through the Sender. It is safe for concurrent use.
type Service struct {
	mu sync.Mutex

	log    logx.Logger
	sender Sender
	bus    eventbus.Bus

	cfg     Config
	limiter *rate.Limiter

	queue  chan string
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config, sender Sender, bus eventbus.Bus, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{log: log, sender: sender, bus: bus}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled && s.sender != nil
}

// Apply swaps the config at runtime. Rate changes take effect on the
// next send; enabling or disabling takes effect on the next Start/Stop.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	s.cfg = cfg
	// Burst = rate so short spikes drain without blocking.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Start subscribes to alert events and launches the send worker.
// Idempotent; a no-op when disabled or already running.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cfg.Enabled || s.sender == nil || s.queue != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.queue = make(chan string, s.cfg.QueueSize)
	s.cancel = cancel
	s.done = make(chan struct{})

	events, unsubscribe := s.bus.Subscribe(s.cfg.QueueSize)
	q := s.queue
	done := s.done

	go s.pumpAlerts(runCtx, events, unsubscribe)
	go s.sendLoop(runCtx, q, done)
}

// Stop cancels the worker and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.queue = nil
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Announce queues an out-of-band message such as a daily report.
// Fails fast instead of blocking the caller.
func (s *Service) Announce(text string) error {
	s.mu.Lock()
	q := s.queue
	enabled := s.cfg.Enabled && s.sender != nil
	s.mu.Unlock()

	if !enabled || q == nil {
		return ErrDisabled
	}
	select {
	case q <- text:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Service) pumpAlerts(ctx context.Context, events <-chan eventbus.Event, unsubscribe func()) {
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			switch ev.Type {
			case eventbus.TypeAlert:
				alert, ok := ev.Data.(monitor.Alert)
				if !ok {
					continue
				}
				if err := s.Announce(formatAlert(alert)); err != nil {
					s.log.Warn("alert notification dropped", logx.Err(err), logx.String("metric", alert.Metric))
				}
			case eventbus.TypeHistoryRecord:
				reason, ok := ev.Data.(monitor.Reason)
				if !ok || !reason.IsEvent() {
					continue
				}
				if err := s.Announce(formatTransition(reason)); err != nil {
					s.log.Warn("transition notification dropped", logx.Err(err), logx.String("reason", string(reason)))
				}
			case eventbus.TypeSpeedtest:
				res, ok := ev.Data.(speedtest.Result)
				if !ok {
					continue
				}
				if err := s.Announce(speedtest.Summary(&res)); err != nil {
					s.log.Warn("speedtest notification dropped", logx.Err(err))
				}
			}
		}
	}
}

func (s *Service) sendLoop(ctx context.Context, q <-chan string, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-q:
			s.mu.Lock()
			limiter := s.limiter
			s.mu.Unlock()
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			err := s.sender.Send(sendCtx, text)
			cancel()
			if err != nil {
				s.log.Warn("notification send failed", logx.Err(err))
			}
		}
	}
}

func formatTransition(r monitor.Reason) string {
	switch r {
	case monitor.ReasonDisconnected:
		return "\U0001f534 Connection lost"
	case monitor.ReasonReconnected:
		return "\U0001f7e2 Connection restored"
	case monitor.ReasonPacketLossStart:
		return "⚠️ Packet loss started"
	case monitor.ReasonPacketLossEnd:
		return "✅ Packet loss ended"
	case monitor.ReasonPingTimeout:
		return "⚠️ Ping timeout"
	case monitor.ReasonPingRecovered:
		return "✅ Ping recovered"
	default:
		return fmt.Sprintf("⚠️ Network event: %s", r)
	}
}

func formatAlert(a monitor.Alert) string {
	icon := "⚠️"
	if a.Severity == "critical" {
		icon = "\U0001f6a8"
	}
	return fmt.Sprintf("%s %s\n%s", icon, a.Severity, a.Message)
}
