package speedtest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Trim by age and count so the history file never grows unbounded.
const (
	historyMaxRecords = 500
	historyMaxAge     = 90 * 24 * time.Hour
)

type historyFile struct {
	mu   sync.Mutex
	path string
}

func (h *historyFile) append(res Result) error {
	if h.path == "" {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	results, err := h.readLocked()
	if err != nil {
		return err
	}
	results = append(results, res)
	return h.writeLocked(results)
}

func (h *historyFile) read() ([]Result, error) {
	if h.path == "" {
		return nil, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.readLocked()
}

func (h *historyFile) readLocked() ([]Result, error) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Result{}, nil
		}
		return nil, fmt.Errorf("read history file: %w", err)
	}
	if len(data) == 0 {
		return []Result{}, nil
	}

	var results []Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return compactHistory(results), nil
}

func (h *historyFile) writeLocked(results []Result) error {
	results = compactHistory(results)

	if dir := filepath.Dir(h.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}

	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0o644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}

func compactHistory(results []Result) []Result {
	if len(results) == 0 {
		return results
	}

	cutoff := time.Now().Add(-historyMaxAge)
	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Timestamp.IsZero() || r.Timestamp.Before(cutoff) {
			continue
		}
		filtered = append(filtered, r)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})
	if len(filtered) > historyMaxRecords {
		filtered = filtered[len(filtered)-historyMaxRecords:]
	}
	return filtered
}
