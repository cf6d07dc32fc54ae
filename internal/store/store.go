package store

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/quiltdb/quilt/internal/schema"
)

// Table maps stringified primary-key values to flat records for one entity.
// Keys are unique by construction (upsert semantics).
type Table map[string]schema.Record

// Clone returns a shallow table copy sharing record references.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, r := range t {
		out[k] = r
	}
	return out
}

// Store owns the table set for one registry. Tables are created implicitly
// on first write to an entity.
type Store struct {
	reg    *schema.Registry
	tables map[string]Table
	log    *zap.Logger
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithLogger attaches a logger for mutation diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// New creates an empty store over the given registry.
func New(reg *schema.Registry, opts ...Option) *Store {
	s := &Store{
		reg:    reg,
		tables: make(map[string]Table),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TableFor returns the live table for an entity, creating it on first
// access. Callers must not mutate the returned table; mutations go through
// the write operations.
func (s *Store) TableFor(entity string) (Table, error) {
	return s.table(entity)
}

// Size returns the number of records in an entity's table.
func (s *Store) Size(entity string) (int, error) {
	t, err := s.table(entity)
	if err != nil {
		return 0, err
	}
	return len(t), nil
}

func (s *Store) table(entity string) (Table, error) {
	if _, err := s.reg.Entity(entity); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	t, ok := s.tables[entity]
	if !ok {
		t = make(Table)
		s.tables[entity] = t
	}
	return t, nil
}
