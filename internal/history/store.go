package history

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"wifimon/internal/monitor"
	logx "wifimon/pkg/logx"
)

// backend is the raw persistence API. All calls happen under the
// Store's lock; backends only need to be consistent, not concurrent.
type backend interface {
	Append(rec Record) error
	Query(since time.Time) ([]Record, error)
	Trim(max int) error
	Close() error
}

// Config configures the store.
//
// Driver values:
//   - "file": JSON container file (default, re-creatable if corrupt)
//   - "sqlite": SQLite database file
type Config struct {
	Driver       string
	Path         string
	SaveInterval time.Duration // regular-cadence write interval; default 5s
	MaxRecords   int           // FIFO trim bound; default 100000
	BusyTimeout  time.Duration // sqlite only; 0 means default
}

const (
	defaultSaveInterval = 5 * time.Second
	defaultMaxRecords   = 100000
)

// Store is the persisted snapshot log. Save applies the dual-cadence
// policy; readers get period-scoped series. A single lock protects the
// read-modify-write of the backing log, so readers never see a torn log.
type Store struct {
	log logx.Logger

	mu      sync.Mutex
	backend backend

	saveInterval time.Duration
	maxRecords   int

	// Dual-cadence state. lastSaved is the last *persisted* snapshot:
	// transition detection compares against it, not against the last
	// collected one.
	lastSaved   *monitor.Snapshot
	lastRegular time.Time
	hasSaved    bool

	now func() time.Time
}

// Open initializes the configured backend. A missing or corrupt file
// store is treated as empty, never as a fatal error.
func Open(cfg Config, log logx.Logger) (*Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.SaveInterval <= 0 {
		cfg.SaveInterval = defaultSaveInterval
	}
	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = defaultMaxRecords
	}

	var (
		b   backend
		err error
	)
	switch driver := strings.ToLower(strings.TrimSpace(cfg.Driver)); driver {
	case "", "file":
		b, err = openFileBackend(cfg.Path, log)
	case "sqlite", "sqlite3":
		b, err = openSQLiteBackend(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
	if err != nil {
		return nil, err
	}

	return &Store{
		log:          log,
		backend:      b,
		saveInterval: cfg.SaveInterval,
		maxRecords:   cfg.MaxRecords,
		now:          time.Now,
	}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	err := s.backend.Close()
	s.backend = nil
	return err
}

// Save decides whether the snapshot is persisted and with which reason:
// a detected critical transition forces an immediate write; otherwise a
// write happens when the regular interval has elapsed (or nothing has
// been saved yet, reason "initial"). Any write resets the regular
// cadence clock, including event-triggered ones.
//
// Returns the reason and whether a record was written. A backend write
// failure is returned but leaves the cadence state untouched, so the
// next round retries.
func (s *Store) Save(ctx context.Context, snap *monitor.Snapshot) (monitor.Reason, bool, error) {
	if snap == nil {
		return "", false, nil
	}
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return "", false, errors.New("history store closed")
	}

	now := s.now()

	reason, fired := monitor.DetectTransition(s.lastSaved, snap)
	due := !s.hasSaved || now.Sub(s.lastRegular) >= s.saveInterval

	switch {
	case fired:
		// keep the event reason
	case !s.hasSaved:
		reason = monitor.ReasonInitial
	case due:
		reason = monitor.ReasonRegular
	default:
		return "", false, nil
	}

	rec := recordFromSnapshot(snap, reason)
	if err := s.backend.Append(rec); err != nil {
		return reason, false, err
	}
	if err := s.backend.Trim(s.maxRecords); err != nil {
		s.log.Warn("history trim failed", logx.Err(err))
	}

	s.lastSaved = snap
	s.lastRegular = now
	s.hasSaved = true

	if reason.IsEvent() {
		s.log.Info("critical event recorded", logx.String("reason", string(reason)))
	}
	return reason, true, nil
}

// Records returns the records inside the period's window, oldest-first.
// A read failure degrades to an empty log.
func (s *Store) Records(period Period) []Record {
	since := s.now().Add(-period.Window())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	recs, err := s.backend.Query(since)
	if err != nil {
		s.log.Warn("history read failed", logx.Err(err))
		return nil
	}
	return recs
}

// History returns the period's parallel chart series. Week and month
// views are aggregated into 5-minute and 30-minute buckets; the day
// view returns every record.
func (s *Store) History(period Period) Series {
	recs := s.Records(period)
	if interval := period.bucketInterval(); interval > 0 {
		recs = aggregate(recs, interval)
	}
	return buildSeries(recs, period.timestampFormat())
}
