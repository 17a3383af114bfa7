package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"wifimon/internal/monitor"
	logx "wifimon/pkg/logx"
)

// Timestamps are stored as UnixNano integers: TEXT encodings with
// variable-width fractional seconds do not sort chronologically, and
// both the window filter and the aggregator depend on timestamp order.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	at       INTEGER NOT NULL,
	reason   TEXT    NOT NULL,
	connected INTEGER NOT NULL,
	ping_ms   REAL,
	jitter_ms REAL,
	loss_pct  REAL NOT NULL,
	signal_pct INTEGER,
	signal_dbm INTEGER,
	quality    INTEGER NOT NULL,
	download_mbps REAL NOT NULL,
	upload_mbps   REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_at ON records(at);
`

type sqliteBackend struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLiteBackend(cfg Config, log logx.Logger) (*sqliteBackend, error) {
	path := cfg.Path
	if path == "" {
		path = "./network_history.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history schema: %w", err)
	}
	return &sqliteBackend{db: db, log: log}, nil
}

func (b *sqliteBackend) Append(rec Record) error {
	_, err := b.db.Exec(
		`INSERT INTO records(at, reason, connected, ping_ms, jitter_ms, loss_pct, signal_pct, signal_dbm, quality, download_mbps, upload_mbps)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		rec.Timestamp.UnixNano(), string(rec.Reason), boolInt(rec.Connected),
		nullFloat(rec.PingMs), nullFloat(rec.JitterMs), rec.PacketLossPercent,
		nullInt(rec.SignalPercent), nullInt(rec.SignalDbm),
		rec.QualityScore, rec.DownloadMbps, rec.UploadMbps,
	)
	return err
}

func (b *sqliteBackend) Query(since time.Time) ([]Record, error) {
	rows, err := b.db.Query(
		`SELECT at, reason, connected, ping_ms, jitter_ms, loss_pct, signal_pct, signal_dbm, quality, download_mbps, upload_mbps
		 FROM records WHERE at >= ? ORDER BY at ASC, id ASC`,
		since.UnixNano(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec       Record
			at        int64
			reason    string
			connected int
			ping      sql.NullFloat64
			jitter    sql.NullFloat64
			signalPct sql.NullInt64
			signalDbm sql.NullInt64
		)
		if err := rows.Scan(&at, &reason, &connected, &ping, &jitter, &rec.PacketLossPercent,
			&signalPct, &signalDbm, &rec.QualityScore, &rec.DownloadMbps, &rec.UploadMbps); err != nil {
			return nil, err
		}
		rec.Timestamp = time.Unix(0, at).UTC()
		rec.Reason = monitor.Reason(reason)
		rec.Connected = connected != 0
		if ping.Valid {
			v := ping.Float64
			rec.PingMs = &v
		}
		if jitter.Valid {
			v := jitter.Float64
			rec.JitterMs = &v
		}
		if signalPct.Valid {
			v := int(signalPct.Int64)
			rec.SignalPercent = &v
		}
		if signalDbm.Valid {
			v := int(signalDbm.Int64)
			rec.SignalDbm = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (b *sqliteBackend) Trim(max int) error {
	if max <= 0 {
		return nil
	}
	_, err := b.db.Exec(
		`DELETE FROM records WHERE id NOT IN (SELECT id FROM records ORDER BY id DESC LIMIT ?)`,
		max,
	)
	return err
}

func (b *sqliteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
