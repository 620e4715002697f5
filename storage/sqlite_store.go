package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

var ErrRunNotFound = errors.New("run not found")

// Run is one report invocation. Only run metadata is journaled, never the
// fetched timesheets.
type Run struct {
	ID          int64
	StartedAt   time.Time
	Year        int
	Week        int
	PeriodStart string
	PeriodEnd   string
	OutputPath  string
	Format      string
	UsersTotal  int
	UsersFailed int
	Users       []RunUser
}

// RunUser is the per-user outcome of a run in configured order.
type RunUser struct {
	Position int
	User     string
	Status   string
	Error    string
	Entries  int
	Hours    float64
}

type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	year INTEGER NOT NULL,
	week INTEGER NOT NULL CHECK(week BETWEEN 1 AND 53),
	period_start TEXT NOT NULL,
	period_end TEXT NOT NULL,
	output_path TEXT NOT NULL,
	format TEXT NOT NULL,
	users_total INTEGER NOT NULL CHECK(users_total >= 0),
	users_failed INTEGER NOT NULL CHECK(users_failed >= 0)
);

CREATE TABLE IF NOT EXISTS run_users (
	run_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	user TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('ok', 'failed')),
	error TEXT NOT NULL DEFAULT '',
	entries INTEGER NOT NULL DEFAULT 0,
	hours REAL NOT NULL DEFAULT 0,
	PRIMARY KEY(run_id, position)
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// RecordRun stores the run and its user outcomes in one transaction and
// returns the new run ID.
func (s *SQLiteStore) RecordRun(run Run) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	res, err := tx.Exec(`
INSERT INTO runs (
	started_at,
	year,
	week,
	period_start,
	period_end,
	output_path,
	format,
	users_total,
	users_failed
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.Year,
		run.Week,
		run.PeriodStart,
		run.PeriodEnd,
		run.OutputPath,
		run.Format,
		run.UsersTotal,
		run.UsersFailed,
	)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("read inserted run id: %w", err)
	}

	stmt, err := tx.Prepare(`
INSERT INTO run_users (run_id, position, user, status, error, entries, hours)
VALUES (?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare run user statement: %w", err)
	}
	defer stmt.Close()

	for _, user := range run.Users {
		if _, err := stmt.Exec(id, user.Position, user.User, user.Status, user.Error, user.Entries, user.Hours); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert run user %s: %w", user.User, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return id, nil
}

// ListRuns returns the newest runs first without their user rows. limit <= 0
// returns every run.
func (s *SQLiteStore) ListRuns(limit int) ([]Run, error) {
	query := `
SELECT
	id,
	started_at,
	year,
	week,
	period_start,
	period_end,
	output_path,
	format,
	users_total,
	users_failed
FROM runs
ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query+";", args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0, 16)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run including its user rows in configured order.
func (s *SQLiteStore) GetRun(id int64) (Run, error) {
	if id <= 0 {
		return Run{}, fmt.Errorf("run id must be > 0")
	}

	row := s.db.QueryRow(`
SELECT
	id,
	started_at,
	year,
	week,
	period_start,
	period_end,
	output_path,
	format,
	users_total,
	users_failed
FROM runs
WHERE id = ?;`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, err
	}

	users, err := s.listRunUsers(id)
	if err != nil {
		return Run{}, err
	}
	run.Users = users
	return run, nil
}

func (s *SQLiteStore) listRunUsers(runID int64) ([]RunUser, error) {
	rows, err := s.db.Query(`
SELECT position, user, status, error, entries, hours
FROM run_users
WHERE run_id = ?
ORDER BY position;`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run users: %w", err)
	}
	defer rows.Close()

	var users []RunUser
	for rows.Next() {
		var user RunUser
		if err := rows.Scan(&user.Position, &user.User, &user.Status, &user.Error, &user.Entries, &user.Hours); err != nil {
			return nil, fmt.Errorf("scan run user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run users: %w", err)
	}
	return users, nil
}

// DeleteRunsBefore removes runs started before cutoff and returns how many were removed.
func (s *SQLiteStore) DeleteRunsBefore(cutoff time.Time) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	value := cutoff.UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`DELETE FROM run_users WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?);`, value); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete run users: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM runs WHERE started_at < ?;`, value)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete runs: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("read deleted row count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		startedRaw string
	)
	if err := row.Scan(
		&run.ID,
		&startedRaw,
		&run.Year,
		&run.Week,
		&run.PeriodStart,
		&run.PeriodEnd,
		&run.OutputPath,
		&run.Format,
		&run.UsersTotal,
		&run.UsersFailed,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	startedAt, err := time.Parse(time.RFC3339, startedRaw)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at %q: %w", startedRaw, err)
	}
	run.StartedAt = startedAt
	return run, nil
}
