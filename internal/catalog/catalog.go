// Package catalog persists a record of every generation run in a SQLite
// database, so repeated runs of the same definitions can be audited and
// compared by content hash.
package catalog

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SchemaVersion is the current catalog schema version.
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    dataset TEXT NOT NULL,
    seed INTEGER NOT NULL,
    rows INTEGER NOT NULL,
    columns INTEGER NOT NULL,
    content_hash TEXT NOT NULL,
    output_path TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset, created_at);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// InitSchema creates the catalog tables if they do not exist.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// Run is one recorded generation.
type Run struct {
	ID          int64     `json:"id"`
	Dataset     string    `json:"dataset"`
	Seed        int64     `json:"seed"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	ContentHash string    `json:"content_hash"`
	OutputPath  string    `json:"output_path"`
	CreatedAt   time.Time `json:"created_at"`
}

// Catalog is a handle on the run database.
type Catalog struct {
	db   *sql.DB
	path string
}

// Open opens or creates the catalog database at path, creating parent
// directories as needed.
func Open(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return &Catalog{db: db, path: path}, nil
}

// Close releases the database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record inserts a run and fills in its ID. A zero CreatedAt is set to now.
func (c *Catalog) Record(ctx context.Context, run *Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	res, err := c.db.ExecContext(ctx, `
		INSERT INTO runs (dataset, seed, rows, columns, content_hash, output_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Dataset, run.Seed, run.Rows, run.Columns, run.ContentHash, run.OutputPath,
		run.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read run id: %w", err)
	}
	run.ID = id
	return nil
}

// List returns every recorded run, newest first. A non-empty dataset filters
// to that dataset's runs.
func (c *Catalog) List(ctx context.Context, dataset string) ([]Run, error) {
	query := `
		SELECT id, dataset, seed, rows, columns, content_hash, output_path, created_at
		FROM runs`
	var args []any
	if dataset != "" {
		query += ` WHERE dataset = ?`
		args = append(args, dataset)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Latest returns the most recent run for a dataset, or nil if none exists.
func (c *Catalog) Latest(ctx context.Context, dataset string) (*Run, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, dataset, seed, rows, columns, content_hash, output_path, created_at
		FROM runs WHERE dataset = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`, dataset)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var run Run
	var createdAt string
	if err := s.Scan(&run.ID, &run.Dataset, &run.Seed, &run.Rows, &run.Columns,
		&run.ContentHash, &run.OutputPath, &createdAt); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	run.CreatedAt = t
	return run, nil
}

// Hash returns the hex SHA-256 of generated output bytes.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
