package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	logx "wifimon/pkg/logx"
)

// container is the top-level shape of the JSON file. Wrapping the
// record list keeps the format extensible and makes a corrupt file
// trivially re-creatable.
type container struct {
	Records []Record `json:"records"`
}

// fileBackend keeps the whole log in memory and rewrites the container
// file on every append. Fine for the bounded record counts this store
// holds; the sqlite backend covers larger deployments.
type fileBackend struct {
	path string
	log  logx.Logger
	recs []Record
}

func openFileBackend(path string, log logx.Logger) (*fileBackend, error) {
	if path == "" {
		path = "./network_history.json"
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	b := &fileBackend{path: path, log: log}
	b.recs = b.load()
	return b, nil
}

// load reads the container; a missing, empty or corrupt file is an
// empty store, never an error.
func (b *fileBackend) load() []Record {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if !os.IsNotExist(err) {
			b.log.Warn("history file unreadable; starting empty", logx.String("path", b.path), logx.Err(err))
		}
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	var c container
	if err := json.Unmarshal(data, &c); err != nil {
		b.log.Warn("history file corrupt; starting empty", logx.String("path", b.path), logx.Err(err))
		return nil
	}
	return c.Records
}

func (b *fileBackend) flush() error {
	data, err := json.Marshal(container{Records: b.recs})
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := os.WriteFile(b.path, data, 0o644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}

func (b *fileBackend) Append(rec Record) error {
	b.recs = append(b.recs, rec)
	return b.flush()
}

func (b *fileBackend) Query(since time.Time) ([]Record, error) {
	out := make([]Record, 0, len(b.recs))
	for _, r := range b.recs {
		if !r.Timestamp.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *fileBackend) Trim(max int) error {
	if max <= 0 || len(b.recs) <= max {
		return nil
	}
	b.recs = append([]Record(nil), b.recs[len(b.recs)-max:]...)
	return b.flush()
}

func (b *fileBackend) Close() error { return nil }
