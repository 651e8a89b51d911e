// store.go persists attempts across sessions in a local SQLite file
// (~/.sqlsage/history.db) so past analyses stay inspectable.
//
// Schema changes are tracked in a schema_migrations table; each
// migration runs inside a transaction together with its version row.
package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/DachengChen/sqlsage/engine"
)

var migrations = []string{
	// v1: the attempt log.
	`CREATE TABLE attempts (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT    NOT NULL,
		seq        INTEGER NOT NULL,
		engine     TEXT    NOT NULL,
		sql_text   TEXT    NOT NULL,
		success    INTEGER NOT NULL,
		kind       TEXT    NOT NULL DEFAULT '',
		message    TEXT    NOT NULL DEFAULT '',
		row_count  INTEGER NOT NULL DEFAULT 0,
		started_at TEXT    NOT NULL,
		elapsed_ms INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX idx_attempts_session ON attempts(session_id, seq);`,
}

// Store is a persistent attempt sink backed by SQLite.
type Store struct {
	db *sql.DB
}

var _ Sink = (*Store)(nil)

// OpenStore opens (or creates) the history database at path and brings
// its schema up to date.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow(
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for v := current; v < len(migrations); v++ {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", v+1, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			v+1, time.Now().UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Record persists one attempt under its session id.
func (s *Store) Record(sessionID string, a Attempt) error {
	success := 0
	if a.Success {
		success = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO attempts
			(session_id, seq, engine, sql_text, success, kind, message, row_count, started_at, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, a.Seq, a.Engine, a.SQL, success,
		string(a.Kind), a.Message, a.RowCount,
		a.StartedAt.UTC().Format(time.RFC3339Nano), a.Elapsed.Milliseconds())
	return err
}

// StoredAttempt is an attempt row joined with its session id.
type StoredAttempt struct {
	SessionID string
	Attempt
}

// Recent returns the newest attempts across all sessions, newest first.
func (s *Store) Recent(limit int) ([]StoredAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT session_id, seq, engine, sql_text, success, kind, message, row_count, started_at, elapsed_ms
		 FROM attempts ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttempts(rows)
}

// Session returns every attempt of one session in sequence order.
func (s *Store) Session(sessionID string) ([]StoredAttempt, error) {
	rows, err := s.db.Query(
		`SELECT session_id, seq, engine, sql_text, success, kind, message, row_count, started_at, elapsed_ms
		 FROM attempts WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttempts(rows)
}

func scanAttempts(rows *sql.Rows) ([]StoredAttempt, error) {
	var out []StoredAttempt
	for rows.Next() {
		var (
			sa        StoredAttempt
			success   int
			kind      string
			startedAt string
			elapsedMs int64
		)
		if err := rows.Scan(&sa.SessionID, &sa.Seq, &sa.Engine, &sa.SQL,
			&success, &kind, &sa.Message, &sa.RowCount, &startedAt, &elapsedMs); err != nil {
			return nil, err
		}
		sa.Success = success == 1
		sa.Kind = engine.ErrorKind(kind)
		if ts, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			sa.StartedAt = ts
		}
		sa.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		out = append(out, sa)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
