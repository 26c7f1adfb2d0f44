// Package journal records the outcome of every presentation-tree refresh in a
// SQLite database, so a session's refresh history can be inspected after the
// fact.
package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the refresh journal.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Open opens the database at dbPath and migrates it.
func Open(dbPath string) (*Store, error) {
	s, err := NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the journal tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("journal: migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS refreshes (
  id              INTEGER PRIMARY KEY,
  session_id      TEXT NOT NULL,
  uri             TEXT NOT NULL,
  seq             INTEGER NOT NULL,
  mode            TEXT NOT NULL,
  outcome         TEXT NOT NULL,
  node_count      INTEGER NOT NULL DEFAULT 0,
  duration_ms     INTEGER NOT NULL DEFAULT 0,
  error           TEXT,
  recorded_at     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_refreshes_uri ON refreshes(uri);
CREATE INDEX IF NOT EXISTS idx_refreshes_session ON refreshes(session_id, seq);
`
