// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog keeps a SQLite log of generation runs: what was requested,
// where the document went, and how the run ended. Generated text is never
// stored; the rendered file is the only copy of the content.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperforge/pkg/types"
)

// DBFile is the catalog file name inside the output directory.
const DBFile = "paperforge.db"

const defaultListLimit = 50

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Run is one row of the catalog.
type Run struct {
	ID          string        `json:"id" yaml:"id"`
	CreatedAt   time.Time     `json:"created_at" yaml:"created_at"`
	Format      string        `json:"format" yaml:"format"`
	PageCount   int           `json:"page_count" yaml:"page_count"`
	Sections    []string      `json:"sections" yaml:"sections"`
	Title       string        `json:"title,omitempty" yaml:"title,omitempty"`
	File        string        `json:"file,omitempty" yaml:"file,omitempty"`
	URI         string        `json:"uri,omitempty" yaml:"uri,omitempty"`
	Status      string        `json:"status" yaml:"status"`
	FailedStage types.Stage   `json:"failed_stage,omitempty" yaml:"failed_stage,omitempty"`
	Message     string        `json:"message,omitempty" yaml:"message,omitempty"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// Store manages the catalog database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and creates the schema.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			format TEXT NOT NULL,
			page_count INTEGER NOT NULL,
			sections TEXT NOT NULL,
			title TEXT,
			file TEXT,
			uri TEXT,
			status TEXT NOT NULL,
			failed_stage TEXT,
			message TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts a run, replacing any previous row with the same ID.
func (s *Store) Record(ctx context.Context, r Run) error {
	sections, err := json.Marshal(r.Sections)
	if err != nil {
		return fmt.Errorf("encoding sections: %w", err)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs
			(id, created_at, format, page_count, sections, title, file, uri, status, failed_stage, message, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(time.RFC3339Nano), r.Format, r.PageCount, string(sections),
		r.Title, r.File, r.URI, r.Status, string(r.FailedStage), r.Message, r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run %s: %w", r.ID, err)
	}
	return nil
}

// ListOptions filters List results.
type ListOptions struct {
	// Status keeps only runs with this status when set.
	Status string
	// Limit caps the number of rows (default 50).
	Limit int
}

const selectColumns = `SELECT id, created_at, format, page_count, sections, title, file, uri, status, failed_stage, message, duration_ms FROM runs`

// List returns runs, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Run, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		where []string
		args  []any
	)
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, opts.Status)
	}
	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Get returns the run with the given ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r                                      Run
		created, sections                      string
		title, file, uri, failedStage, message sql.NullString
		durationMS                             sql.NullInt64
	)
	if err := sc.Scan(&r.ID, &created, &r.Format, &r.PageCount, &sections,
		&title, &file, &uri, &r.Status, &failedStage, &message, &durationMS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, fmt.Errorf("parsing created_at of %s: %w", r.ID, err)
	}
	r.CreatedAt = t
	if err := json.Unmarshal([]byte(sections), &r.Sections); err != nil {
		return Run{}, fmt.Errorf("decoding sections of %s: %w", r.ID, err)
	}
	r.Title = title.String
	r.File = file.String
	r.URI = uri.String
	r.FailedStage = types.Stage(failedStage.String)
	r.Message = message.String
	r.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	return r, nil
}

// Export writes runs to w as YAML or JSON.
func Export(w io.Writer, runs []Run, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	case "yaml", "yml", "":
		data, err := yaml.Marshal(runs)
		if err != nil {
			return fmt.Errorf("marshaling runs: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
