package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite scan history.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the scans, packages and package_languages tables. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS scans (
  id              INTEGER PRIMARY KEY,
  root            TEXT NOT NULL,
  counter         TEXT NOT NULL,
  started_at      TIMESTAMP NOT NULL,
  duration_ns     INTEGER NOT NULL,
  app_blank       INTEGER NOT NULL,
  app_comment     INTEGER NOT NULL,
  app_code        INTEGER NOT NULL,
  app_files       INTEGER NOT NULL,
  dep_blank       INTEGER NOT NULL,
  dep_comment     INTEGER NOT NULL,
  dep_code        INTEGER NOT NULL,
  dep_files       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS packages (
  id              INTEGER PRIMARY KEY,
  scan_id         INTEGER NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
  parent_id       INTEGER REFERENCES packages(id) ON DELETE CASCADE,
  name            TEXT NOT NULL,
  version         TEXT NOT NULL,
  path            TEXT NOT NULL,
  real_path       TEXT NOT NULL,
  depth           INTEGER NOT NULL,
  blank           INTEGER NOT NULL,
  comment         INTEGER NOT NULL,
  code            INTEGER NOT NULL,
  num_files       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS package_languages (
  package_id      INTEGER NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
  language        TEXT NOT NULL,
  blank           INTEGER NOT NULL,
  comment         INTEGER NOT NULL,
  code            INTEGER NOT NULL,
  num_files       INTEGER NOT NULL,
  PRIMARY KEY (package_id, language)
);

CREATE INDEX IF NOT EXISTS idx_packages_scan ON packages(scan_id);
CREATE INDEX IF NOT EXISTS idx_packages_real_path ON packages(real_path);
`
