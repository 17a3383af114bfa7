package probe

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"time"
)

// PingCommand runs the system ping binary for one burst. It is the
// default Prober; anything that implements Prober (ICMP sockets, a test
// fake) can replace it.
type PingCommand struct{}

func NewPingCommand() *PingCommand { return &PingCommand{} }

var (
	// "time=12.3 ms" (iputils) / "time=12 ms"; localized variants use "Zeit=".
	rePingTime = regexp.MustCompile(`(?i)(?:time|Zeit)[=<]([\d.]+)\s*ms`)
	// "20% packet loss" / "20% Verlust"
	rePingLoss = regexp.MustCompile(`(?i)([\d.]+)%\s*(?:packet\s+)?(?:loss|Verlust)`)
)

// Ping sends count echo requests with a per-probe timeout and parses the
// command output into per-probe samples. A wholly failed run yields one
// failed sample per requested probe, never an error: unreachable targets
// are a measurement, not a fault.
func (p *PingCommand) Ping(ctx context.Context, target string, count int, timeout time.Duration) ([]PingSample, error) {
	if count <= 0 {
		count = 1
	}
	timeoutSec := int(timeout.Seconds())
	if timeoutSec <= 0 {
		timeoutSec = 1
	}

	// Bound the whole run: per-probe timeout x count, plus slack for setup.
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(count)*timeout+2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "ping",
		"-n",
		"-c", strconv.Itoa(count),
		"-W", strconv.Itoa(timeoutSec),
		target,
	)

	out, err := cmd.Output()
	if err != nil && len(out) == 0 {
		// Command unavailable or hard failure: report total loss.
		return failedBurst(count), nil
	}

	return parsePingOutput(string(out), count), nil
}

// parsePingOutput extracts per-probe latencies in output order and fills
// in failed samples from the reported loss percentage.
func parsePingOutput(out string, count int) []PingSample {
	samples := make([]PingSample, 0, count)

	for _, m := range rePingTime.FindAllStringSubmatch(out, -1) {
		latency, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		samples = append(samples, PingSample{LatencyMs: latency, Success: true})
	}

	lost := 0
	if m := rePingLoss.FindStringSubmatch(out); m != nil {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
			lost = int(float64(count)*pct/100 + 0.5)
		}
	} else if len(samples) < count {
		// No loss summary (truncated output): infer from missing replies.
		lost = count - len(samples)
	}
	for i := 0; i < lost; i++ {
		samples = append(samples, PingSample{Success: false})
	}

	if len(samples) == 0 {
		return failedBurst(count)
	}
	return samples
}

func failedBurst(count int) []PingSample {
	samples := make([]PingSample, count)
	return samples
}

var _ Prober = (*PingCommand)(nil)
