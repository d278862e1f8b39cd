// Package store handles SQLite persistence for engine snapshots and
// session records.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store wraps SQLite access.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dsn, applies the recommended
// pragmas and runs migrations.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// applyPragmas configures SQLite for single-user desktop use.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version TEXT NOT NULL,
			saved_at TEXT NOT NULL,
			data TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_saved_at ON snapshots(saved_at);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			keystrokes INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			wpm REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SessionRecord is one completed drill session.
type SessionRecord struct {
	ID         string
	StartedAt  time.Time
	EndedAt    time.Time
	Keystrokes int
	Errors     int
	WPM        float64
}

// InsertSession stores a completed session.
func (s *Store) InsertSession(ctx context.Context, rec SessionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, ended_at, keystrokes, errors, wpm)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Format(time.RFC3339Nano),
		rec.Keystrokes,
		rec.Errors,
		rec.WPM,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// BaselineWPM returns the mean WPM over the last n sessions, 0 when no
// sessions exist.
func (s *Store) BaselineWPM(ctx context.Context, n int) (float64, error) {
	if n <= 0 {
		n = 10
	}
	var wpm sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT AVG(wpm) FROM (
			SELECT wpm FROM sessions ORDER BY ended_at DESC LIMIT ?
		)`, n).Scan(&wpm)
	if err != nil {
		return 0, fmt.Errorf("baseline wpm: %w", err)
	}
	if !wpm.Valid {
		return 0, nil
	}
	return wpm.Float64, nil
}

// Wipe removes all persisted state in one transaction. This backs the
// privacy-driven full reset: either everything goes or nothing does.
func (s *Store) Wipe(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin wipe: %w", err)
	}
	for _, stmt := range []string{`DELETE FROM snapshots`, `DELETE FROM sessions`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("wipe: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit wipe: %w", err)
	}
	return nil
}
