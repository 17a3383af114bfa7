package probe

import (
	"math"
	"sync"
	"time"

	psnet "github.com/shirou/gopsutil/v4/net"
)

// NetThroughput measures actual interface throughput from the OS byte
// counters (delta-based, like the collector agents it is modeled on).
type NetThroughput struct {
	mu          sync.Mutex
	prevRecv    uint64
	prevSent    uint64
	prevTime    time.Time
	initialized bool
}

func NewNetThroughput() *NetThroughput {
	return &NetThroughput{}
}

// Sample returns download/upload rates in Mbit/s since the previous call.
// The first call only records the baseline and returns (0, 0).
func (t *NetThroughput) Sample() (float64, float64) {
	counters, err := psnet.IOCounters(false)
	if err != nil || len(counters) == 0 {
		return 0, 0
	}
	recv := counters[0].BytesRecv
	sent := counters[0].BytesSent
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized {
		t.prevRecv = recv
		t.prevSent = sent
		t.prevTime = now
		t.initialized = true
		return 0, 0
	}

	elapsed := now.Sub(t.prevTime).Seconds()
	if elapsed <= 0 {
		return 0, 0
	}

	// Counters can reset (interface bounce); treat a backwards jump as zero.
	var recvDelta, sentDelta uint64
	if recv >= t.prevRecv {
		recvDelta = recv - t.prevRecv
	}
	if sent >= t.prevSent {
		sentDelta = sent - t.prevSent
	}

	t.prevRecv = recv
	t.prevSent = sent
	t.prevTime = now

	download := float64(recvDelta) * 8 / (elapsed * 1_000_000)
	upload := float64(sentDelta) * 8 / (elapsed * 1_000_000)
	return math.Round(download*100) / 100, math.Round(upload*100) / 100
}
