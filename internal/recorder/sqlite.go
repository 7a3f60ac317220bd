package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"RiskSentinel/internal/model"
)

// SQLiteRecorder persists runs, factor scores and alerts to SQLite.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at      INTEGER NOT NULL,
			finished_at     INTEGER NOT NULL,
			as_of           TEXT NOT NULL,
			model_version   TEXT,
			composite_score REAL,
			band_key        TEXT,
			band_label      TEXT,
			total_weight    REAL,
			fallback        INTEGER,
			price_usd       REAL,
			alerts_added    INTEGER,
			failed_sources  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_as_of ON runs(as_of)`,

		`CREATE TABLE IF NOT EXISTS factor_scores (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id  INTEGER NOT NULL REFERENCES runs(id),
			factor  TEXT NOT NULL,
			pillar  TEXT,
			weight  REAL,
			score   REAL,
			status  TEXT,
			reason  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_factor_scores_run ON factor_scores(run_id)`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id         TEXT PRIMARY KEY,
			type       TEXT NOT NULL,
			severity   TEXT NOT NULL,
			timestamp  INTEGER NOT NULL,
			factor     TEXT,
			magnitude  REAL,
			message    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun inserts the run and its factor rows in one transaction.
func (r *SQLiteRecorder) RecordRun(rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	comp := rec.Composite
	res, err := tx.Exec(`INSERT INTO runs
		(started_at, finished_at, as_of, model_version, composite_score, band_key, band_label,
		 total_weight, fallback, price_usd, alerts_added, failed_sources)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.StartedAt.Unix(), rec.FinishedAt.Unix(), comp.Date.Format("2006-01-02"), rec.ModelVersion,
		comp.Score, comp.Band.Key, comp.Band.Label, comp.TotalWeight, comp.Fallback,
		rec.PriceUSD, rec.AlertsAdded, strings.Join(rec.Failed, ","),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	for _, f := range rec.Factors {
		var score sql.NullFloat64
		if f.Score != nil {
			score = sql.NullFloat64{Float64: *f.Score, Valid: true}
		}
		if _, err := tx.Exec(`INSERT INTO factor_scores
			(run_id, factor, pillar, weight, score, status, reason)
			VALUES (?,?,?,?,?,?,?)`,
			runID, f.Key, string(f.Pillar), f.Weight, score, string(f.Status), f.Reason,
		); err != nil {
			return fmt.Errorf("insert factor %s: %w", f.Key, err)
		}
	}
	return tx.Commit()
}

// RecordAlerts stores alerts, ignoring ids already present.
func (r *SQLiteRecorder) RecordAlerts(alerts []model.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range alerts {
		if _, err := r.db.Exec(`INSERT OR IGNORE INTO alerts
			(id, type, severity, timestamp, factor, magnitude, message)
			VALUES (?,?,?,?,?,?,?)`,
			a.ID, string(a.Type), string(a.Severity), a.Timestamp.Unix(),
			a.Data.Factor, a.Data.Magnitude, a.Data.Message,
		); err != nil {
			return fmt.Errorf("insert alert %s: %w", a.ID, err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
