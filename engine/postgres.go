// postgres.go is the warehouse engine adapter, backed by a pgx
// connection pool, optionally reached through an SSH tunnel.
//
// Design decisions:
//   - No eager ping: an unreachable warehouse surfaces per attempt as
//     KindUnavailable, so a later attempt can still succeed once the
//     server is back.
//   - Statements must be analytical (aggregation or LIMIT) and pass an
//     EXPLAIN preflight before the real scan runs. Full-table scans are
//     what a warehouse serves worst interactively.
//   - Failures map onto the taxonomy by SQLSTATE.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DachengChen/sqlsage/config"
	sshpkg "github.com/DachengChen/sqlsage/ssh"
)

// Postgres executes statements against a PostgreSQL warehouse.
type Postgres struct {
	name    string
	pool    *pgxpool.Pool
	tunnel  *sshpkg.Tunnel
	maxRows int
}

var _ Engine = (*Postgres)(nil)

// NewPostgres builds the pool (and tunnel, if configured). The first
// real connection is established lazily on the first query.
func NewPostgres(ctx context.Context, cfg config.EngineConfig) (*Postgres, error) {
	dsn := cfg.DSN()

	var tunnel *sshpkg.Tunnel
	if cfg.SSH.Enabled {
		t, err := sshpkg.NewTunnel(cfg.SSH, cfg.Host, cfg.Port)
		if err != nil {
			return nil, fmt.Errorf("engine %s: %w", cfg.Name, err)
		}
		addr, err := t.Start(ctx)
		if err != nil {
			return nil, fmt.Errorf("engine %s: start tunnel: %w", cfg.Name, err)
		}
		localCfg := cfg
		localCfg.Host = addr.Host
		localCfg.Port = addr.Port
		dsn = localCfg.DSN()
		tunnel = t
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		if tunnel != nil {
			tunnel.Stop()
		}
		return nil, fmt.Errorf("engine %s: parse dsn: %w", cfg.Name, err)
	}
	poolCfg.MaxConns = 4
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		if tunnel != nil {
			tunnel.Stop()
		}
		return nil, fmt.Errorf("engine %s: create pool: %w", cfg.Name, err)
	}

	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}
	return &Postgres{name: cfg.Name, pool: pool, tunnel: tunnel, maxRows: maxRows}, nil
}

func (p *Postgres) Name() string { return p.name }

// Execute guards, preflights with EXPLAIN, then runs the statement and
// collects up to maxRows rows.
func (p *Postgres) Execute(ctx context.Context, query string) (*RowSet, error) {
	if gerr := CheckStatement(p.name, query); gerr != nil {
		return nil, gerr
	}
	if gerr := CheckAnalytical(p.name, query); gerr != nil {
		return nil, gerr
	}

	// EXPLAIN catches syntax and missing relations without a scan.
	if _, err := p.pool.Exec(ctx, "EXPLAIN "+query); err != nil {
		return nil, p.classify(err)
	}

	start := time.Now()
	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, p.classify(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	result := &RowSet{Columns: cols}
	for rows.Next() {
		if result.RowCount >= p.maxRows {
			result.Truncated = true
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, p.classify(err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, row)
		result.RowCount++
	}
	if err := rows.Err(); err != nil {
		return nil, p.classify(err)
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// Schema snapshots public tables with columns, primary keys, and
// planner row estimates.
func (p *Postgres) Schema(ctx context.Context) (*Schema, error) {
	tables, err := p.listTables(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*Table, len(tables))
	order := make([]string, 0, len(tables))
	for i := range tables {
		byName[tables[i].Name] = &tables[i]
		order = append(order, tables[i].Name)
	}

	rows, err := p.pool.Query(ctx,
		`SELECT table_name, column_name, data_type, is_nullable = 'YES'
		 FROM information_schema.columns
		 WHERE table_schema = 'public'
		 ORDER BY table_name, ordinal_position`)
	if err != nil {
		return nil, p.classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName string
		var col Column
		if err := rows.Scan(&tableName, &col.Name, &col.DataType, &col.Nullable); err != nil {
			return nil, p.classify(err)
		}
		if t, ok := byName[tableName]; ok {
			t.Columns = append(t.Columns, col)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, p.classify(err)
	}

	if err := p.markPrimaryKeys(ctx, byName); err != nil {
		return nil, err
	}

	schema := &Schema{Engine: p.name}
	for _, name := range order {
		schema.Tables = append(schema.Tables, *byName[name])
	}
	return schema, nil
}

func (p *Postgres) listTables(ctx context.Context) ([]Table, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT t.table_name, GREATEST(COALESCE(c.reltuples, 0), 0)::bigint
		 FROM information_schema.tables t
		 LEFT JOIN pg_class c
		   ON c.relname = t.table_name
		  AND c.relnamespace = (SELECT oid FROM pg_namespace WHERE nspname = t.table_schema)
		 WHERE t.table_schema = 'public' AND t.table_type = 'BASE TABLE'
		 ORDER BY t.table_name`)
	if err != nil {
		return nil, p.classify(err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Name, &t.RowEstimate); err != nil {
			return nil, p.classify(err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, p.classify(err)
	}
	return tables, nil
}

func (p *Postgres) markPrimaryKeys(ctx context.Context, byName map[string]*Table) error {
	rows, err := p.pool.Query(ctx,
		`SELECT kcu.table_name, kcu.column_name
		 FROM information_schema.table_constraints tc
		 JOIN information_schema.key_column_usage kcu
		   ON kcu.constraint_name = tc.constraint_name
		  AND kcu.table_schema = tc.table_schema
		 WHERE tc.table_schema = 'public' AND tc.constraint_type = 'PRIMARY KEY'`)
	if err != nil {
		return p.classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, colName string
		if err := rows.Scan(&tableName, &colName); err != nil {
			return p.classify(err)
		}
		t, ok := byName[tableName]
		if !ok {
			continue
		}
		for i := range t.Columns {
			if t.Columns[i].Name == colName {
				t.Columns[i].PrimaryKey = true
			}
		}
	}
	return rows.Err()
}

func (p *Postgres) Close() {
	p.pool.Close()
	if p.tunnel != nil {
		p.tunnel.Stop()
	}
}

// classify maps a pgx error onto the taxonomy, primarily by SQLSTATE.
func (p *Postgres) classify(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapError(KindTimeout, p.name, "query exceeded attempt deadline", err)
	}
	if errors.Is(err, context.Canceled) {
		return WrapError(KindTimeout, p.name, "query cancelled", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return WrapError(classifySQLState(pgErr.Code), p.name, pgErr.Message, err)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return WrapError(KindUnavailable, p.name, "cannot reach server", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return WrapError(KindUnavailable, p.name, "network failure", err)
	}
	if strings.Contains(err.Error(), "closed pool") {
		return WrapError(KindUnavailable, p.name, "connection pool closed", err)
	}

	return WrapError(KindResource, p.name, err.Error(), err)
}

// classifySQLState buckets a PostgreSQL error code.
//
// Class 42 is mostly malformed SQL, but the undefined-object and
// privilege codes inside it describe missing resources the corrector
// cannot conjure up, so those prefer fallback instead.
func classifySQLState(code string) ErrorKind {
	switch code {
	case "42P01", "42703", "42704", "42501":
		return KindResource
	case "57014":
		return KindTimeout
	case "53300":
		return KindUnavailable
	}
	switch {
	case strings.HasPrefix(code, "42"):
		return KindSyntax
	case strings.HasPrefix(code, "08"):
		return KindUnavailable
	case strings.HasPrefix(code, "57"):
		return KindUnavailable
	case strings.HasPrefix(code, "53"):
		return KindResource
	default:
		return KindResource
	}
}
