// sqlite.go is the embedded engine adapter, backed by the pure-Go
// modernc.org/sqlite driver through database/sql.
//
// Design decisions:
//   - One open connection. In-memory databases exist per connection, so
//     pooling would silently hand later queries an empty database.
//   - Failures are classified by message text; the driver exposes no
//     stable error codes for the cases the taxonomy needs.
//   - Results are capped at MaxRows with Truncated set, never an error.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DachengChen/sqlsage/config"
	_ "modernc.org/sqlite"
)

const defaultMaxRows = 1000

// SQLite executes statements against a local SQLite database file.
type SQLite struct {
	name    string
	db      *sql.DB
	maxRows int
}

var _ Engine = (*SQLite)(nil)

// NewSQLite opens (or creates) the database file named in cfg.
func NewSQLite(cfg config.EngineConfig) (*SQLite, error) {
	path := cfg.Path
	if path == "" {
		return nil, fmt.Errorf("engine %s: sqlite path not configured", cfg.Name)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("engine %s: create data dir: %w", cfg.Name, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("engine %s: open %s: %w", cfg.Name, path, err)
	}
	db.SetMaxOpenConns(1)

	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}
	return &SQLite{name: cfg.Name, db: db, maxRows: maxRows}, nil
}

func (s *SQLite) Name() string { return s.name }

// Execute runs one read-only statement and collects up to maxRows rows.
func (s *SQLite) Execute(ctx context.Context, query string) (*RowSet, error) {
	if gerr := CheckStatement(s.name, query); gerr != nil {
		return nil, gerr
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, s.classify(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, s.classify(err)
	}

	result := &RowSet{Columns: cols}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if result.RowCount >= s.maxRows {
			result.Truncated = true
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, s.classify(err)
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, row)
		result.RowCount++
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify(err)
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// Schema lists user tables with columns and exact row counts.
func (s *SQLite) Schema(ctx context.Context) (*Schema, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		 ORDER BY name`)
	if err != nil {
		return nil, s.classify(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, s.classify(err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify(err)
	}

	schema := &Schema{Engine: s.name}
	for _, name := range names {
		t, err := s.describeTable(ctx, name)
		if err != nil {
			return nil, err
		}
		schema.Tables = append(schema.Tables, t)
	}
	return schema, nil
}

func (s *SQLite) describeTable(ctx context.Context, name string) (Table, error) {
	t := Table{Name: name}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", name))
	if err != nil {
		return t, s.classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			colName string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dflt, &pk); err != nil {
			return t, s.classify(err)
		}
		t.Columns = append(t.Columns, Column{
			Name:       colName,
			DataType:   strings.ToLower(colType),
			Nullable:   notNull == 0,
			PrimaryKey: pk > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return t, s.classify(err)
	}

	// Embedded data is small enough for exact counts.
	var count int64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT count(*) FROM %q", name)).Scan(&count); err == nil {
		t.RowEstimate = count
	}
	return t, nil
}

func (s *SQLite) Close() {
	s.db.Close()
}

// classify maps a driver error onto the taxonomy by message text.
func (s *SQLite) classify(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapError(KindTimeout, s.name, "query exceeded attempt deadline", err)
	}
	if errors.Is(err, context.Canceled) {
		return WrapError(KindTimeout, s.name, "query cancelled", err)
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "syntax error"),
		strings.Contains(lower, "unrecognized token"),
		strings.Contains(lower, "incomplete input"),
		strings.Contains(lower, "no such function"):
		return WrapError(KindSyntax, s.name, msg, err)
	case strings.Contains(lower, "no such table"),
		strings.Contains(lower, "no such column"),
		strings.Contains(lower, "ambiguous column name"):
		return WrapError(KindResource, s.name, msg, err)
	case strings.Contains(lower, "database is locked"),
		strings.Contains(lower, "unable to open database"):
		return WrapError(KindUnavailable, s.name, msg, err)
	default:
		return WrapError(KindResource, s.name, msg, err)
	}
}
