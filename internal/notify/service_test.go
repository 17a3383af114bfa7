package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"wifimon/internal/eventbus"
	"wifimon/internal/monitor"
	"wifimon/internal/speedtest"
	logx "wifimon/pkg/logx"
)

type chanSender struct{ sent chan string }

func (c *chanSender) Send(_ context.Context, text string) error {
	c.sent <- text
	return nil
}

func TestAnnounceWhenDisabled(t *testing.T) {
	s := New(Config{Enabled: false}, &chanSender{sent: make(chan string, 1)}, eventbus.New(), logx.Nop())
	if err := s.Announce("hello"); err != ErrDisabled {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}

func TestAnnounceBeforeStart(t *testing.T) {
	s := New(Config{Enabled: true}, &chanSender{sent: make(chan string, 1)}, eventbus.New(), logx.Nop())
	if err := s.Announce("hello"); err != ErrDisabled {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}

func TestAlertFlowsToSender(t *testing.T) {
	sender := &chanSender{sent: make(chan string, 4)}
	bus := eventbus.New()
	s := New(Config{Enabled: true, RatePerSec: 100}, sender, bus, logx.Nop())

	s.Start(context.Background())
	defer s.Stop()

	alert := monitor.Alert{
		Time:     time.Now(),
		Severity: "critical",
		Metric:   "packet_loss",
		Message:  "High packet loss: 12.0%",
	}
	bus.Publish(eventbus.Event{Type: eventbus.TypeAlert, Time: alert.Time, Data: alert})

	select {
	case text := <-sender.sent:
		if !strings.Contains(text, "High packet loss: 12.0%") {
			t.Errorf("message = %q", text)
		}
		if !strings.Contains(text, "critical") {
			t.Errorf("message missing severity: %q", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}
}

func TestTransitionFlowsToSender(t *testing.T) {
	sender := &chanSender{sent: make(chan string, 4)}
	bus := eventbus.New()
	s := New(Config{Enabled: true, RatePerSec: 100}, sender, bus, logx.Nop())

	s.Start(context.Background())
	defer s.Stop()

	bus.Publish(eventbus.Event{Type: eventbus.TypeHistoryRecord, Data: monitor.ReasonDisconnected})

	select {
	case text := <-sender.sent:
		if !strings.Contains(text, "Connection lost") {
			t.Errorf("message = %q", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}
}

func TestSpeedtestResultFlowsToSender(t *testing.T) {
	sender := &chanSender{sent: make(chan string, 4)}
	bus := eventbus.New()
	s := New(Config{Enabled: true, RatePerSec: 100}, sender, bus, logx.Nop())

	s.Start(context.Background())
	defer s.Stop()

	res := speedtest.Result{
		Timestamp:     time.Now(),
		DownloadMbps:  87.3,
		UploadMbps:    23.1,
		PingMs:        14,
		ServerName:    "Amsterdam",
		ServerCountry: "NL",
	}
	bus.Publish(eventbus.Event{Type: eventbus.TypeSpeedtest, Time: res.Timestamp, Data: res})

	select {
	case text := <-sender.sent:
		if !strings.Contains(text, "Amsterdam") || !strings.Contains(text, "87.3") {
			t.Errorf("message = %q", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}
}

func TestAnnounceDelivers(t *testing.T) {
	sender := &chanSender{sent: make(chan string, 1)}
	s := New(Config{Enabled: true, RatePerSec: 100}, sender, eventbus.New(), logx.Nop())

	s.Start(context.Background())
	defer s.Stop()

	if err := s.Announce("daily report"); err != nil {
		t.Fatalf("Announce: %v", err)
	}
	select {
	case text := <-sender.sent:
		if text != "daily report" {
			t.Errorf("message = %q", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := New(Config{Enabled: true}, &chanSender{sent: make(chan string, 1)}, eventbus.New(), logx.Nop())
	s.Start(context.Background())
	s.Stop()
	s.Stop()
}
