// Package runlog keeps a local history of training runs in SQLite.
package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS training_runs (
	id            TEXT PRIMARY KEY,
	version       TEXT NOT NULL,
	data_path     TEXT NOT NULL,
	bundle_path   TEXT NOT NULL,
	rows          INTEGER NOT NULL,
	seed          INTEGER NOT NULL,
	mean_accuracy REAL NOT NULL,
	accuracy_json TEXT NOT NULL,
	flagged_json  TEXT NOT NULL,
	started_at    TEXT NOT NULL,
	finished_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS training_runs_finished_idx ON training_runs (finished_at);
`

var ErrNotFound = errors.New("training run not found")

// timeLayout has fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Run is one completed training run.
type Run struct {
	ID           string
	Version      string
	DataPath     string
	BundlePath   string
	Rows         int
	Seed         uint64
	MeanAccuracy float64
	Accuracy     map[string]float64
	Flagged      []string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration is how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

type Log struct {
	db *sql.DB
}

// Open opens (creating if needed) the run history at dsn.
func Open(dsn string) (*Log, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Log{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// EnsureDir creates the parent directory of a database path.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (l *Log) Close() error {
	return l.db.Close()
}

// Record stores r, assigning an id if it has none.
func (l *Log) Record(ctx context.Context, r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	acc, err := json.Marshal(r.Accuracy)
	if err != nil {
		return "", fmt.Errorf("encode accuracy: %w", err)
	}
	flagged := r.Flagged
	if flagged == nil {
		flagged = []string{}
	}
	fl, err := json.Marshal(flagged)
	if err != nil {
		return "", fmt.Errorf("encode flagged: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO training_runs
			(id, version, data_path, bundle_path, rows, seed, mean_accuracy, accuracy_json, flagged_json, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Version, r.DataPath, r.BundlePath, r.Rows, int64(r.Seed), r.MeanAccuracy,
		string(acc), string(fl),
		r.StartedAt.UTC().Format(timeLayout), r.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return r.ID, nil
}

const selectRun = `
	SELECT id, version, data_path, bundle_path, rows, seed, mean_accuracy, accuracy_json, flagged_json, started_at, finished_at
	FROM training_runs`

// List returns up to limit runs, most recent first.
func (l *Log) List(ctx context.Context, limit int) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx, selectRun+` ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns the run with the given id.
func (l *Log) Get(ctx context.Context, id string) (Run, error) {
	r, err := scanRun(l.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r                 Run
		seed              int64
		acc, fl           string
		started, finished string
	)
	if err := s.Scan(&r.ID, &r.Version, &r.DataPath, &r.BundlePath, &r.Rows, &seed,
		&r.MeanAccuracy, &acc, &fl, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	r.Seed = uint64(seed)
	if err := json.Unmarshal([]byte(acc), &r.Accuracy); err != nil {
		return Run{}, fmt.Errorf("decode accuracy: %w", err)
	}
	if err := json.Unmarshal([]byte(fl), &r.Flagged); err != nil {
		return Run{}, fmt.Errorf("decode flagged: %w", err)
	}
	var err error
	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return Run{}, fmt.Errorf("decode started_at: %w", err)
	}
	if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return Run{}, fmt.Errorf("decode finished_at: %w", err)
	}
	return r, nil
}
