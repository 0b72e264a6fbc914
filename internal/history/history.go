// Package history keeps a SQLite log of extraction runs: when they ran,
// where the input came from and how many assets survived. Asset URLs other
// than the top-ranked one are not stored.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Input sources.
const (
	SourceHTTP = "http"
	SourceCLI  = "cli"
)

// Entry is one recorded extraction run.
type Entry struct {
	ID         string
	CreatedAt  time.Time
	Source     string
	InputBytes int
	TotalFound int
	Returned   int
	DurationMS int64
	TopURL     string
}

// Store persists entries in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS extractions (
	id          TEXT PRIMARY KEY,
	created_at  INTEGER NOT NULL,
	source      TEXT NOT NULL,
	input_bytes INTEGER NOT NULL,
	total_found INTEGER NOT NULL,
	returned    INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	top_url     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_extractions_created_at ON extractions(created_at);
`

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores e. A missing ID or timestamp is filled in.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	switch e.Source {
	case SourceHTTP, SourceCLI:
	default:
		return Entry{}, fmt.Errorf("unknown history source %q", e.Source)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extractions (id, created_at, source, input_bytes, total_found, returned, duration_ms, top_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.UnixNano(), e.Source, e.InputBytes, e.TotalFound, e.Returned, e.DurationMS, e.TopURL,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("recording extraction: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, input_bytes, total_found, returned, duration_ms, top_url
		 FROM extractions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			created int64
		)
		if err := rows.Scan(&e.ID, &created, &e.Source, &e.InputBytes, &e.TotalFound, &e.Returned, &e.DurationMS, &e.TopURL); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.CreatedAt = time.Unix(0, created).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// Get returns the entry with the given ID, or an error wrapping sql.ErrNoRows.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	var (
		e       Entry
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, source, input_bytes, total_found, returned, duration_ms, top_url
		 FROM extractions WHERE id = ?`, strings.TrimSpace(id),
	).Scan(&e.ID, &created, &e.Source, &e.InputBytes, &e.TotalFound, &e.Returned, &e.DurationMS, &e.TopURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, fmt.Errorf("history entry %q: %w", id, err)
		}
		return Entry{}, fmt.Errorf("querying history entry: %w", err)
	}
	e.CreatedAt = time.Unix(0, created).UTC()
	return e, nil
}

// Prune deletes all but the newest keep entries and reports how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must not be negative, got %d", keep)
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM extractions WHERE id NOT IN (
			SELECT id FROM extractions ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	return n, nil
}
