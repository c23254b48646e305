// Package runlog keeps a history of generation runs in a local SQLite database.
package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/ahrav/go-instructgen/internal/domain"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

const schema = `CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	requested   INTEGER NOT NULL,
	produced    INTEGER NOT NULL,
	dropped     INTEGER NOT NULL,
	output_path TEXT NOT NULL,
	model       TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	cancelled   INTEGER NOT NULL DEFAULT 0
)`

// Store records run summaries.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts a validated run summary.
func (s *Store) Record(ctx context.Context, r domain.RunSummary) error {
	if err := r.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, requested, produced, dropped, output_path, model,
			started_at, finished_at, duration_ms, cancelled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		r.Requested,
		r.Produced,
		r.Dropped,
		r.OutputPath,
		r.Model,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.FinishedAt.UTC().Format(time.RFC3339Nano),
		r.Duration.Milliseconds(),
		r.Cancelled,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.RunID, err)
	}
	return nil
}

const selectColumns = `SELECT run_id, requested, produced, dropped, output_path, model,
	started_at, finished_at, duration_ms, cancelled FROM runs`

// List returns up to limit runs, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []domain.RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns one run by ID.
func (s *Store) Get(ctx context.Context, runID string) (domain.RunSummary, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RunSummary{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (domain.RunSummary, error) {
	var (
		r                 domain.RunSummary
		started, finished string
		durationMS        int64
	)
	if err := sc.Scan(&r.RunID, &r.Requested, &r.Produced, &r.Dropped, &r.OutputPath, &r.Model,
		&started, &finished, &durationMS, &r.Cancelled); err != nil {
		return domain.RunSummary{}, err
	}

	var err error
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return domain.RunSummary{}, fmt.Errorf("parse started_at: %w", err)
	}
	if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return domain.RunSummary{}, fmt.Errorf("parse finished_at: %w", err)
	}
	r.Duration = time.Duration(durationMS) * time.Millisecond
	return r, nil
}
