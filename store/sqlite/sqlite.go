/*
Package sqlite provides a SQLite-backed cashbook.BlobStore.

PURPOSE:
  Durable key/value storage for the two cashbook snapshots. Each key holds
  exactly one document; Save replaces the whole document.

KEY TABLE:
  blobs: key TEXT PRIMARY KEY, value BLOB, updated_at TEXT (RFC 3339, UTC)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Writes for the same key are ordered
  by the caller (the cashbook Saver); the mutex only keeps statements from
  interleaving.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Single writer at a time
  - A crash mid-save leaves the previous document intact

USAGE:
  store, err := sqlite.New("./data/cashbook.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  eng := cashbook.Open(ctx, store)

MIGRATION:
  The schema is a single table and is created on New().

SEE ALSO:
  - cashbook/store.go:        The BlobStore interface
  - cashbook/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store implements cashbook.BlobStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BLOB STORE
// =============================================================================

// Load returns the document stored under key, or nil if there is none.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM blobs WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return value, nil
}

// Save replaces the document stored under key.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO blobs (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if data == nil {
		data = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, query, key, data, now); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Entry describes one stored document.
type Entry struct {
	Key       string
	Size      int
	UpdatedAt time.Time
}

// Entries lists stored documents ordered by key.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT key, length(value), updated_at FROM blobs ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var updatedAt string
		if err := rows.Scan(&e.Key, &e.Size, &updatedAt); err != nil {
			return nil, err
		}
		e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
