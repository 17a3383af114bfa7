// Package speedtest runs scheduled bandwidth measurements against the
// nearest speedtest.net servers and keeps a bounded on-disk history.
// Results feed the event bus so other components (notifications, the
// throughput context of reports) can pick them up.
package speedtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/showwin/speedtest-go/speedtest"

	"wifimon/internal/eventbus"
	logx "wifimon/pkg/logx"
)

type Config struct {
	HistoryFile string
	ServerCount int
	Timeout     time.Duration
}

// Result is one completed measurement.
type Result struct {
	Timestamp     time.Time `json:"timestamp"`
	DownloadMbps  float64   `json:"download_mbps"`
	UploadMbps    float64   `json:"upload_mbps"`
	PingMs        float64   `json:"ping_ms"`
	ServerName    string    `json:"server_name"`
	ServerCountry string    `json:"server_country"`
	ISP           string    `json:"isp"`
}

// Runner performs measurements. Safe for use from a single scheduler
// goroutine; history file access is serialized internally.
type Runner struct {
	cfg Config
	log logx.Logger
	bus eventbus.Bus

	hist *historyFile
}

func NewRunner(cfg Config, bus eventbus.Bus, log logx.Logger) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.ServerCount <= 0 {
		cfg.ServerCount = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Runner{cfg: cfg, log: log, bus: bus, hist: &historyFile{path: cfg.HistoryFile}}
}

// Run measures against the lowest-latency nearby server, persists the
// result, and publishes it on the bus.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()

	// A fresh client per run; the package-level default client retains
	// large buffers between runs.
	st := speedtest.New()
	defer func() {
		st.Snapshots().Clean()
		st.Reset()
	}()

	user, err := st.FetchUserInfoContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}

	servers, err := st.FetchServerListContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch server list: %w", err)
	}
	if a := servers.Available(); a != nil {
		servers = *a
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("no servers available")
	}

	sort.Slice(servers, func(i, j int) bool {
		return servers[i].Distance < servers[j].Distance
	})
	n := r.cfg.ServerCount
	if n > len(servers) {
		n = len(servers)
	}

	best, err := r.pickByLatency(ctx, servers[:n])
	if err != nil {
		return nil, err
	}

	if err := best.DownloadTestContext(ctx); err != nil {
		return nil, fmt.Errorf("download test: %w", err)
	}
	if err := best.UploadTestContext(ctx); err != nil {
		return nil, fmt.Errorf("upload test: %w", err)
	}

	res := &Result{
		Timestamp:     time.Now(),
		DownloadMbps:  best.DLSpeed.Mbps(),
		UploadMbps:    best.ULSpeed.Mbps(),
		PingMs:        float64(best.Latency.Milliseconds()),
		ServerName:    best.Sponsor,
		ServerCountry: best.Country,
		ISP:           user.Isp,
	}

	r.log.Info("speedtest complete",
		logx.Float64("download_mbps", res.DownloadMbps),
		logx.Float64("upload_mbps", res.UploadMbps),
		logx.Float64("ping_ms", res.PingMs),
		logx.String("server", res.ServerName),
		logx.Duration("took", time.Since(start)),
	)

	if err := r.hist.append(*res); err != nil {
		r.log.Warn("speedtest history write failed", logx.Err(err))
	}
	if r.bus != nil {
		r.bus.Publish(eventbus.Event{Type: eventbus.TypeSpeedtest, Time: res.Timestamp, Data: *res})
	}
	return res, nil
}

// pickByLatency pings the candidates sequentially and returns the one
// with the lowest round-trip. A candidate whose ping fails is skipped.
func (r *Runner) pickByLatency(ctx context.Context, candidates speedtest.Servers) (*speedtest.Server, error) {
	var best *speedtest.Server
	for _, s := range candidates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if err := s.PingTestContext(ctx, nil); err != nil {
			r.log.Debug("server ping failed",
				logx.String("server", s.Sponsor),
				logx.Err(err),
			)
			continue
		}
		if best == nil || s.Latency < best.Latency {
			best = s
		}
	}
	if best == nil {
		return nil, fmt.Errorf("all latency tests failed")
	}
	return best, nil
}

// History returns the persisted results, oldest first.
func (r *Runner) History() ([]Result, error) {
	return r.hist.read()
}

// Summary formats a result for a notification message.
func Summary(res *Result) string {
	return fmt.Sprintf("Speedtest via %s (%s)\n⬇ %.1f Mbps  ⬆ %.1f Mbps  ping %.0f ms",
		res.ServerName, res.ServerCountry, res.DownloadMbps, res.UploadMbps, res.PingMs)
}
