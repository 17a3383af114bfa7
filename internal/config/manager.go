package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "wifimon/pkg/logx"
)

// Manager loads the config file and republishes it on change.
//
// Reload notes:
//   - Parse rejects unknown fields so stale keys are caught early.
//   - Reloads are debounced (editors often emit several write events).
//   - A reload with unchanged content is not republished.
type Manager struct {
	path string

	mu  sync.RWMutex
	cfg *Config

	log logx.Logger

	// lastHash tracks the last successfully committed config content.
	lastHash uint64

	onChange func(*Config)
}

func NewManager(path string) *Manager {
	return &Manager{path: path}
}

func (m *Manager) SetLogger(log logx.Logger) { m.log = log }

// OnChange installs the reload callback invoked by Watch after a commit.
func (m *Manager) OnChange(fn func(*Config)) { m.onChange = fn }

func (m *Manager) Parse() (*Config, error) {
	b, err := os.ReadFile(m.path)
	if err != nil {
		return nil, err
	}
	jb, _, err := coerceToJSONBytes(m.path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func (m *Manager) Commit(cfg *Config) {
	m.mu.Lock()
	m.cfg = cfg
	m.lastHash = hashConfig(cfg)
	m.mu.Unlock()
}

func (m *Manager) Load() (*Config, error) {
	cfg, err := m.Parse()
	if err != nil {
		return nil, err
	}
	m.Commit(cfg)
	return cfg, nil
}

func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Watch blocks until ctx is done, reloading the config file on writes.
func (m *Manager) Watch(ctx context.Context) error {
	dir := filepath.Dir(m.path)
	file := filepath.Base(m.path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch init: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("config watch %s: %w", dir, err)
	}

	// debounce to avoid partial writes
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(250*time.Millisecond, func() {
			m.reload()
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if !m.log.IsZero() {
				m.log.Warn("config watch error", logx.Err(err))
			}
		}
	}
}

func (m *Manager) reload() {
	cfg, err := m.Parse()
	if err != nil {
		if !m.log.IsZero() {
			m.log.Warn("config parse failed", logx.String("path", m.path), logx.Err(err))
		}
		return
	}

	// Skip redundant reloads when content is unchanged.
	h := hashConfig(cfg)
	m.mu.RLock()
	unchanged := h != 0 && h == m.lastHash
	m.mu.RUnlock()
	if unchanged {
		return
	}

	m.Commit(cfg)
	if m.onChange != nil {
		m.onChange(cfg)
	}
	if !m.log.IsZero() {
		m.log.Info("config reloaded", logx.String("path", m.path))
	}
}

func hashConfig(cfg *Config) uint64 {
	if cfg == nil {
		return 0
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}

// applyDefaults fills zero-valued fields with the documented defaults.
func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "INFO"
	}

	if strings.TrimSpace(cfg.Monitor.Target) == "" {
		cfg.Monitor.Target = "8.8.8.8"
	}
	if cfg.Monitor.ProbeCount <= 0 {
		cfg.Monitor.ProbeCount = 5
	}
	if cfg.Monitor.RingSize <= 0 {
		cfg.Monitor.RingSize = 300
	}
	if cfg.Monitor.AlertLogSize <= 0 {
		cfg.Monitor.AlertLogSize = 100
	}

	if strings.TrimSpace(cfg.History.Driver) == "" {
		cfg.History.Driver = "file"
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "./network_history.json"
	}
	if cfg.History.MaxRecords <= 0 {
		cfg.History.MaxRecords = 100000
	}

	if cfg.Notify != nil && cfg.Notify.RatePerSec <= 0 {
		cfg.Notify.RatePerSec = 1
	}
	if cfg.Speedtest != nil {
		if strings.TrimSpace(cfg.Speedtest.Schedule) == "" {
			cfg.Speedtest.Schedule = "0 */6 * * *"
		}
		if cfg.Speedtest.ServerCount <= 0 {
			cfg.Speedtest.ServerCount = 3
		}
	}
}
