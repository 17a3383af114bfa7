package monitor

import (
	"context"
	"sync"
	"time"

	logx "wifimon/pkg/logx"
)

// RecordFunc persists one snapshot. The history store decides whether
// the snapshot is actually written (event or cadence trigger).
type RecordFunc func(ctx context.Context, snap *Snapshot) error

// Runner drives the collector on a fixed interval from a single
// goroutine, the only writer of the in-memory buffers and the only
// caller of the record sink.
type Runner struct {
	collector *Collector
	record    RecordFunc
	interval  time.Duration
	log       logx.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewRunner(collector *Collector, record RecordFunc, interval time.Duration, log logx.Logger) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{
		collector: collector,
		record:    record,
		interval:  interval,
		log:       log,
		done:      make(chan struct{}),
	}
}

// Start launches the sampling loop. The first round runs immediately so
// consumers have a snapshot (and the history an "initial" record) right
// after startup.
func (r *Runner) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		loopCtx, cancel := context.WithCancel(ctx)
		r.cancel = cancel

		go func() {
			defer close(r.done)
			r.log.Info("sampling started", logx.Duration("interval", r.interval))

			ticker := time.NewTicker(r.interval)
			defer ticker.Stop()

			r.round(loopCtx)
			for {
				select {
				case <-loopCtx.Done():
					r.log.Info("sampling stopped")
					return
				case <-ticker.C:
					r.round(loopCtx)
				}
			}
		}()
	})
}

func (r *Runner) round(ctx context.Context) {
	snap := r.collector.Collect(ctx)
	if r.record == nil {
		return
	}
	if err := r.record(ctx, snap); err != nil {
		// Persistence failure must not stall sampling; next tick retries.
		r.log.Warn("history write failed", logx.Err(err))
	}
}

// Stop signals the loop to finish and waits up to the given timeout for
// the round in flight to complete. It never kills a round mid-probe.
func (r *Runner) Stop(timeout time.Duration) {
	r.stopOnce.Do(func() {
		if r.cancel == nil {
			return
		}
		r.cancel()
		select {
		case <-r.done:
		case <-time.After(timeout):
			r.log.Warn("sampling loop did not stop in time", logx.Duration("timeout", timeout))
		}
	})
}
