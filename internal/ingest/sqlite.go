// Package ingest imports rows from an existing SQLite database into store
// tables. It is a one-shot, read-only bridge: the store never writes back.
package ingest

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/quiltdb/quilt/internal/schema"
	"github.com/quiltdb/quilt/internal/store"
)

// Source wraps a SQLite database opened for import.
type Source struct {
	db  *sql.DB
	log *zap.Logger
}

// Option configures a Source at construction time.
type Option func(*Source)

// WithLogger attaches a logger for import diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(s *Source) {
		s.log = log
	}
}

// Open opens a SQLite database at the given path for reading.
//
// The connection is configured read-only with a busy timeout, and the pool
// is limited to a single connection since imports are sequential scans.
func Open(path string, opts ...Option) (*Source, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA query_only = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	s := &Source{db: db, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Source) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load reads one table per named entity into store tables keyed by the
// entity's declared primary key. Each entity must be registered and its
// SQLite table must carry a column named after the primary key.
func (s *Source) Load(ctx context.Context, reg *schema.Registry, entities ...string) (map[string]store.Table, error) {
	out := make(map[string]store.Table, len(entities))
	for _, name := range entities {
		ent, err := reg.Entity(name)
		if err != nil {
			return nil, err
		}
		table, err := s.loadTable(ctx, ent)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", name, err)
		}
		out[name] = table
	}
	return out, nil
}

// loadTable scans every row of the entity's table into records. Row order
// does not matter; the store's canonical ordering is derived from keys.
func (s *Source) loadTable(ctx context.Context, ent *schema.Entity) (store.Table, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT * FROM %s`, quoteIdent(ent.Name)))
	if err != nil {
		return nil, fmt.Errorf("query table: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	keyColumn := -1
	for i, col := range columns {
		if col == ent.Key() {
			keyColumn = i
		}
	}
	if keyColumn < 0 {
		return nil, fmt.Errorf("table has no primary key column %q", ent.Key())
	}

	table := make(store.Table)
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		rec := make(schema.Record, len(columns))
		for i, col := range columns {
			rec[col] = fromSQLite(values[i])
		}
		pk := rec[ent.Key()]
		if pk == nil {
			return nil, fmt.Errorf("row has NULL primary key %q", ent.Key())
		}
		table[schema.KeyString(pk)] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	s.log.Debug("table imported",
		zap.String("entity", ent.Name),
		zap.Int("records", len(table)))
	return table, nil
}

// fromSQLite converts driver values into record values: TEXT columns may
// scan as byte slices and are normalized to strings.
func fromSQLite(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// quoteIdent quotes a SQL identifier. Entity names come from declared
// schemas, never user input, but quoting keeps unusual names valid.
func quoteIdent(name string) string {
	quoted := make([]byte, 0, len(name)+2)
	quoted = append(quoted, '"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			quoted = append(quoted, '"')
		}
		quoted = append(quoted, name[i])
	}
	return string(append(quoted, '"'))
}
