package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"storyreel/internal/config"
	"storyreel/internal/job"
)

// Store persists the append-only attempt log in SQLite. It is diagnostic
// history only: resume decisions come from the filesystem, never from here.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the attempt-log database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "attempts.db")
	return OpenPath(dbPath)
}

// OpenPath opens a store at an explicit database path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS attempts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    stage TEXT NOT NULL,
    unit_identity TEXT NOT NULL,
    unit_kind TEXT NOT NULL,
    attempt_number INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    error_message TEXT,
    escalated INTEGER NOT NULL DEFAULT 0,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempts_run ON attempts(run_id);
CREATE INDEX IF NOT EXISTS idx_attempts_unit ON attempts(unit_identity);
`

func (s *Store) applySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record is one persisted attempt row.
type Record struct {
	ID         int64
	RunID      string
	Stage      string
	Identity   string
	Kind       job.Kind
	Number     int
	Outcome    job.Outcome
	Error      string
	Escalated  bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Append writes one attempt for a unit. Every attempt is recorded, not
// just the terminal one, so flakiness is visible across runs.
func (s *Store) Append(ctx context.Context, runID, stage string, unit job.Unit, attempt job.Attempt) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO attempts (
            run_id, stage, unit_identity, unit_kind, attempt_number,
            outcome, error_message, escalated, started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		stage,
		attempt.Identity,
		string(unit.Kind),
		attempt.Number,
		string(attempt.Outcome),
		nullableString(attempt.Error),
		boolToInt(attempt.Escalated),
		attempt.StartedAt.UTC().Format(time.RFC3339Nano),
		attempt.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

// ListRun returns all attempts for a run in insertion order.
func (s *Store) ListRun(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM attempts WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list run attempts: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ListUnit returns the attempt history for one identity across runs,
// newest first.
func (s *Store) ListUnit(ctx context.Context, identity string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM attempts WHERE unit_identity = ? ORDER BY id DESC LIMIT ?`,
		identity,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list unit attempts: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// LastRunID returns the most recently recorded run identifier, or empty
// when the log is empty.
func (s *Store) LastRunID(ctx context.Context) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT run_id FROM attempts ORDER BY id DESC LIMIT 1`)
	var runID string
	if err := row.Scan(&runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("last run id: %w", err)
	}
	return runID, nil
}

// Stats returns attempt counts grouped by outcome for one run.
func (s *Store) Stats(ctx context.Context, runID string) (map[job.Outcome]int, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT outcome, COUNT(1) FROM attempts WHERE run_id = ? GROUP BY outcome`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("attempt stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[job.Outcome]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		stats[job.Outcome(outcome)] = count
	}
	return stats, rows.Err()
}

// Prune removes attempt history older than the cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM attempts WHERE finished_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune attempts: %w", err)
	}
	return res.RowsAffected()
}

const recordColumns = "id, run_id, stage, unit_identity, unit_kind, attempt_number, outcome, error_message, escalated, started_at, finished_at"

func collectRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var (
			rec         Record
			kind        string
			outcome     string
			errMsg      sql.NullString
			escalated   sql.NullInt64
			startedRaw  string
			finishedRaw string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.Stage,
			&rec.Identity,
			&kind,
			&rec.Number,
			&outcome,
			&errMsg,
			&escalated,
			&startedRaw,
			&finishedRaw,
		); err != nil {
			return nil, err
		}
		rec.Kind = job.Kind(kind)
		rec.Outcome = job.Outcome(outcome)
		rec.Error = errMsg.String
		if escalated.Valid {
			rec.Escalated = escalated.Int64 != 0
		}
		if started, err := parseTimeString(startedRaw); err == nil {
			rec.StartedAt = started
		}
		if finished, err := parseTimeString(finishedRaw); err == nil {
			rec.FinishedAt = finished
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
