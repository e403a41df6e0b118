// Package store persists evaluation runs and per-claim outcomes in
// SQLite, so results survive the process and runs can be compared without
// reparsing output files.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/evidentia/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	dataset     TEXT NOT NULL,
	backend     TEXT NOT NULL,
	planner     TEXT NOT NULL,
	ranker      TEXT NOT NULL,
	config_json TEXT,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	total       INTEGER NOT NULL DEFAULT 0,
	passed      INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	errors      INTEGER NOT NULL DEFAULT 0,
	pass_rate   REAL NOT NULL DEFAULT 0,
	mean_recall REAL NOT NULL DEFAULT 0,
	mrr         REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS outcomes (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	claim_id     TEXT NOT NULL,
	claim_text   TEXT NOT NULL,
	passed       INTEGER NOT NULL,
	recall       REAL NOT NULL,
	hops         INTEGER NOT NULL,
	queries      INTEGER NOT NULL,
	elapsed_ms   INTEGER NOT NULL,
	titles_json  TEXT,
	missing_json TEXT,
	error        TEXT,
	created_at   TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
`

// Store persists runs and their outcomes
type Store struct {
	db *sql.DB
}

// Open opens the results database, creating it and its schema if needed
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun records the start of an evaluation run and returns its ID
func (s *Store) BeginRun(dataset, backendName, plannerName, rankerName string, cfg *model.Config) (string, error) {
	id := uuid.New().String()

	var cfgJSON []byte
	if cfg != nil {
		b, err := json.Marshal(cfg)
		if err != nil {
			return "", fmt.Errorf("marshal config: %w", err)
		}
		cfgJSON = b
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, dataset, backend, planner, ranker, config_json, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, dataset, backendName, plannerName, rankerName, string(cfgJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// SaveOutcomes persists a batch of per-claim outcomes in one transaction
func (s *Store) SaveOutcomes(runID string, outcomes []model.Outcome) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO outcomes (run_id, claim_id, claim_text, passed, recall, hops, queries,
		                       elapsed_ms, titles_json, missing_json, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, o := range outcomes {
		titles, err := json.Marshal(o.Titles)
		if err != nil {
			return fmt.Errorf("marshal titles: %w", err)
		}
		missing, err := json.Marshal(o.Missing)
		if err != nil {
			return fmt.Errorf("marshal missing: %w", err)
		}

		if _, err := stmt.Exec(
			runID, o.Claim.ID, o.Claim.Text, o.Passed, o.Recall, o.Hops, o.Queries,
			o.Elapsed.Milliseconds(), string(titles), string(missing), o.Error, now,
		); err != nil {
			return fmt.Errorf("insert outcome %s: %w", o.Claim.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FinishRun stamps the end time and the aggregate metrics on a run
func (s *Store) FinishRun(runID string, summary model.Summary) error {
	_, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, total = ?, passed = ?, failed = ?, errors = ?,
		                 pass_rate = ?, mean_recall = ?, mrr = ?
		 WHERE run_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		summary.Total, summary.Passed, summary.Failed, summary.Errors,
		summary.PassRate, summary.MeanRecall, summary.MRR, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RunRecord is one stored evaluation run
type RunRecord struct {
	ID         string
	Dataset    string
	Backend    string
	Planner    string
	Ranker     string
	StartedAt  time.Time
	FinishedAt time.Time // Zero when the run never finished
	Summary    model.Summary
}

// ListRuns returns stored runs, most recent first
func (s *Store) ListRuns() ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, dataset, backend, planner, ranker, started_at, finished_at,
		        total, passed, failed, errors, pass_rate, mean_recall, mrr
		 FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var started string
		var finished sql.NullString
		if err := rows.Scan(
			&r.ID, &r.Dataset, &r.Backend, &r.Planner, &r.Ranker, &started, &finished,
			&r.Summary.Total, &r.Summary.Passed, &r.Summary.Failed, &r.Summary.Errors,
			&r.Summary.PassRate, &r.Summary.MeanRecall, &r.Summary.MRR,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if finished.Valid && finished.String != "" {
			if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished.String); err != nil {
				return nil, fmt.Errorf("parse finished_at: %w", err)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Outcomes returns a run's stored outcomes in insertion order
func (s *Store) Outcomes(runID string) ([]model.Outcome, error) {
	rows, err := s.db.Query(
		`SELECT claim_id, claim_text, passed, recall, hops, queries, elapsed_ms,
		        titles_json, missing_json, error
		 FROM outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []model.Outcome
	for rows.Next() {
		var o model.Outcome
		var elapsedMS int64
		var titlesJSON, missingJSON string
		if err := rows.Scan(
			&o.Claim.ID, &o.Claim.Text, &o.Passed, &o.Recall, &o.Hops, &o.Queries,
			&elapsedMS, &titlesJSON, &missingJSON, &o.Error,
		); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if err := json.Unmarshal([]byte(titlesJSON), &o.Titles); err != nil {
			return nil, fmt.Errorf("unmarshal titles: %w", err)
		}
		if err := json.Unmarshal([]byte(missingJSON), &o.Missing); err != nil {
			return nil, fmt.Errorf("unmarshal missing: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
