package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stamped into PRAGMA user_version. Bump it together with
// a step in upgrades when schema.sql changes shape.
const schemaVersion = 0

// upgrades[v] moves a database at user_version v to v+1.
var upgrades []func(*sql.Tx) error

var (
	// ErrNotFound is returned when a blob or record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrNewerSchema is returned by Open for a database written by a
	// newer release than this one.
	ErrNewerSchema = errors.New("store: database schema is newer than this build")
)

// Store keeps the rewards blobs and publisher records of one profile in a
// single SQLite file.
type Store struct {
	db *sql.DB
}

// dsn turns a file path into a go-sqlite3 connection string carrying the
// per-connection settings: WAL journal, relaxed fsync and a busy wait.
func dsn(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_synchronous", "NORMAL")
	q.Set("_busy_timeout", "5000")
	return "file:" + path + "?" + q.Encode()
}

// Open creates or opens the profile database at path and brings its
// schema up to date. Reopening an existing database is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// Host storage calls are serialized already; one connection keeps
	// SQLite from contending with itself.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", path, err)
	}
	if err := prepare(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func prepare(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("%w: found %d, know %d", ErrNewerSchema, version, schemaVersion)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	for v := version; v < schemaVersion; v++ {
		if err := upgrades[v](tx); err != nil {
			return fmt.Errorf("upgrade schema to %d: %w", v+1, err)
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return tx.Commit()
}
