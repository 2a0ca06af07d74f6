// Package store persists check runs and their per-sentence verdicts in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	chkerr "github.com/msto63/chomsky/pkg/core/error"
)

// Run is one recorded batch
type Run struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Total      int        `json:"total"`
	Passed     int        `json:"passed"`
	Failed     int        `json:"failed"`
}

// Result is the stored verdict of one sentence
type Result struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Seq       int       `json:"seq"`
	Line      int       `json:"line"`
	Sentence  string    `json:"sentence"`
	Accepted  bool      `json:"accepted"`
	Expected  string    `json:"expected,omitempty"`
	Found     string    `json:"found,omitempty"`
	Tree      string    `json:"tree,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats summarizes the store contents
type Stats struct {
	Runs     int `json:"runs"`
	Results  int `json:"results"`
	Accepted int `json:"accepted"`
}

// Store defines result persistence
type Store interface {
	CreateRun(ctx context.Context, source string) (*Run, error)
	SaveResult(ctx context.Context, result *Result) error
	FinishRun(ctx context.Context, runID string, total, passed, failed int) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	ListResults(ctx context.Context, runID string) ([]*Result, error)
	Stats(ctx context.Context) (*Stats, error)
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Config holds configuration for the SQLite store
type Config struct {
	Path string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Path: "./data/chomsky.db",
	}
}

// NewSQLiteStore opens (and creates if needed) the database at cfg.Path
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, storeError(err, "failed to create directory").WithDetail("dir", dir)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, storeError(err, "failed to open database")
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, storeError(err, "failed to initialize schema").WithDetail("path", cfg.Path)
	}

	return store, nil
}

// initSchema creates the necessary tables
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		total INTEGER NOT NULL DEFAULT 0,
		passed INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		line INTEGER NOT NULL,
		sentence TEXT NOT NULL,
		accepted INTEGER NOT NULL,
		expected TEXT,
		found TEXT,
		tree TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_results_run_seq ON results(run_id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateRun starts a new run record
func (s *SQLiteStore) CreateRun(ctx context.Context, source string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := &Run{
		ID:        uuid.New().String(),
		Source:    source,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source, started_at) VALUES (?, ?, ?)
	`, run.ID, run.Source, run.StartedAt)
	if err != nil {
		return nil, storeError(err, "failed to insert run")
	}

	return run, nil
}

// SaveResult stores one verdict. Empty ID and CreatedAt are filled in.
func (s *SQLiteStore) SaveResult(ctx context.Context, result *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results (id, run_id, seq, line, sentence, accepted, expected, found, tree, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.ID, result.RunID, result.Seq, result.Line, result.Sentence, result.Accepted,
		nullString(result.Expected), nullString(result.Found), nullString(result.Tree), result.CreatedAt)
	if err != nil {
		return storeError(err, "failed to insert result").WithDetail("run_id", result.RunID)
	}

	return nil
}

// FinishRun stores the final counts of a run
func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, total, passed, failed int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, total = ?, passed = ?, failed = ? WHERE id = ?
	`, time.Now().UTC(), total, passed, failed, runID)
	if err != nil {
		return storeError(err, "failed to finish run")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(runID)
	}
	return nil
}

// GetRun returns a run by id
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, started_at, finished_at, total, passed, failed FROM runs WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(runID)
	}
	if err != nil {
		return nil, storeError(err, "failed to read run")
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, source, started_at, finished_at, total, passed, failed FROM runs ORDER BY started_at DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, storeError(err, "failed to scan run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "failed to iterate runs")
	}
	return runs, nil
}

// ListResults returns the results of a run in input order
func (s *SQLiteStore) ListResults(ctx context.Context, runID string) ([]*Result, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, seq, line, sentence, accepted, expected, found, tree, created_at
		FROM results WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, storeError(err, "failed to query results")
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		var r Result
		var expected, found, tree sql.NullString
		if err := rows.Scan(&r.ID, &r.RunID, &r.Seq, &r.Line, &r.Sentence, &r.Accepted,
			&expected, &found, &tree, &r.CreatedAt); err != nil {
			return nil, storeError(err, "failed to scan result")
		}
		r.Expected = expected.String
		r.Found = found.String
		r.Tree = tree.String
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "failed to iterate results")
	}
	return results, nil
}

// Stats returns counts over all runs
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM runs),
			(SELECT COUNT(*) FROM results),
			(SELECT COUNT(*) FROM results WHERE accepted = 1)
	`).Scan(&stats.Runs, &stats.Results, &stats.Accepted)
	if err != nil {
		return nil, storeError(err, "failed to read stats")
	}
	return &stats, nil
}

// Prune deletes runs started before now minus olderThan, with their results
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE started_at < ?", cutoff)
	if err != nil {
		return 0, storeError(err, "failed to prune runs")
	}
	return res.RowsAffected()
}

// Ping verifies the database is reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storeError(err, "database unreachable")
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var finished sql.NullTime
	if err := row.Scan(&run.ID, &run.Source, &run.StartedAt, &finished,
		&run.Total, &run.Passed, &run.Failed); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func storeError(err error, message string) *chkerr.Error {
	return chkerr.Wrap(err, message).WithCode(chkerr.CodeStoreError)
}

func notFound(runID string) error {
	return chkerr.Newf("run not found: %s", runID).
		WithCode(chkerr.CodeNotFound).
		WithDetail("run_id", runID)
}
