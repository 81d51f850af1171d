package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	star_name TEXT NOT NULL,
	constellation TEXT,
	model_name TEXT,
	event_kind TEXT,
	event_hjd REAL,
	event_hjd_err REAL,
	amplitude REAL,
	amplitude_err REAL,
	period_days REAL,
	period_err REAL,
	band TEXT,
	observer_code TEXT,
	points INTEGER,
	output_dir TEXT,
	started_at TIMESTAMP,
	finished_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_star ON runs(star_name);
`

// SQLiteStore archives runs in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the archive database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening SQLite archive %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating archive schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
		(id, star_name, constellation, model_name, event_kind,
		 event_hjd, event_hjd_err, amplitude, amplitude_err,
		 period_days, period_err, band, observer_code, points,
		 output_dir, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StarName, run.Constellation, run.ModelName, run.EventKind,
		run.EventHJD, run.EventHJDErr, run.Amplitude, run.AmplitudeErr,
		run.PeriodDays, run.PeriodErr, run.Band, run.ObserverCode, run.Points,
		run.OutputDir, run.StartedAt.UTC(), run.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("error saving run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, star_name, constellation, model_name, event_kind,
		       event_hjd, event_hjd_err, amplitude, amplitude_err,
		       period_days, period_err, band, observer_code, points,
		       output_dir, started_at, finished_at
		FROM runs ORDER BY finished_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("error listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, star_name, constellation, model_name, event_kind,
		       event_hjd, event_hjd_err, amplitude, amplitude_err,
		       period_days, period_err, band, observer_code, points,
		       output_dir, started_at, finished_at
		FROM runs WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("error fetching run %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanRun(rows)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var run Run
	var started, finished time.Time
	err := rows.Scan(&run.ID, &run.StarName, &run.Constellation, &run.ModelName,
		&run.EventKind, &run.EventHJD, &run.EventHJDErr, &run.Amplitude,
		&run.AmplitudeErr, &run.PeriodDays, &run.PeriodErr, &run.Band,
		&run.ObserverCode, &run.Points, &run.OutputDir, &started, &finished)
	if err != nil {
		return nil, fmt.Errorf("error scanning run row: %w", err)
	}
	run.StartedAt = started
	run.FinishedAt = finished
	return &run, nil
}
