package store

import (
	"go.uber.org/zap"

	"github.com/quiltdb/quilt/internal/schema"
)

// UpdateTarget selects which records an Update applies to.
//
// This is a sealed interface - only ByKey and Matching implement it.
type UpdateTarget interface {
	updateTarget() // Marker method - seals interface to this package
}

// ByKey targets exactly one record by primary-key value.
type ByKey struct {
	Value any
}

func (ByKey) updateTarget() {}

// Matching targets every record satisfying the predicate.
type Matching struct {
	Predicate func(schema.Record) bool
}

func (Matching) updateTarget() {}

// Compute is an update value computed from the old record. A field in the
// update payload whose value is a Compute is evaluated against the matched
// record instead of being assigned directly.
type Compute func(old schema.Record) any

// Create replaces the entity's entire table with records. An empty map
// clears the table - "create with no data" is a valid clear-all, distinct
// from a no-op.
func (s *Store) Create(entity string, records Table) error {
	if _, err := s.table(entity); err != nil {
		return err
	}
	fresh := make(Table, len(records))
	for key, rec := range records {
		fresh[key] = rec
	}
	s.tables[entity] = fresh
	s.log.Debug("table replaced",
		zap.String("entity", entity),
		zap.Int("records", len(fresh)))
	return nil
}

// Insert upserts records into the entity's table. Each record fully
// replaces whatever was stored at its key; this is normalized-write
// semantics, not a field-level merge.
func (s *Store) Insert(entity string, records Table) error {
	t, err := s.table(entity)
	if err != nil {
		return err
	}
	for key, rec := range records {
		t[key] = rec
	}
	s.log.Debug("records inserted",
		zap.String("entity", entity),
		zap.Int("records", len(records)))
	return nil
}

// Update shallow-merges data onto the records selected by target, returning
// how many records changed. A ByKey target with no matching record is a
// no-op. Compute values in data are evaluated against the old record.
func (s *Store) Update(entity string, data schema.Record, target UpdateTarget) (int, error) {
	t, err := s.table(entity)
	if err != nil {
		return 0, err
	}

	updated := 0
	switch sel := target.(type) {
	case ByKey:
		key := schema.KeyString(sel.Value)
		rec, ok := t[key]
		if !ok {
			return 0, nil
		}
		mergeUpdate(rec, data)
		updated = 1
	case Matching:
		for _, rec := range t {
			if sel.Predicate(rec) {
				mergeUpdate(rec, data)
				updated++
			}
		}
	}

	s.log.Debug("records updated",
		zap.String("entity", entity),
		zap.Int("records", updated))
	return updated, nil
}

// Delete removes every record matching the predicate, returning the number
// removed.
func (s *Store) Delete(entity string, match func(schema.Record) bool) (int, error) {
	t, err := s.table(entity)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for key, rec := range t {
		if match(rec) {
			delete(t, key)
			deleted++
		}
	}

	s.log.Debug("records deleted",
		zap.String("entity", entity),
		zap.Int("records", deleted))
	return deleted, nil
}

// DeleteAll empties the entity's table.
func (s *Store) DeleteAll(entity string) error {
	if _, err := s.table(entity); err != nil {
		return err
	}
	s.tables[entity] = make(Table)
	s.log.Debug("table cleared", zap.String("entity", entity))
	return nil
}

// Reset empties every table in the store.
func (s *Store) Reset() {
	s.tables = make(map[string]Table)
	s.log.Debug("store reset")
}

func mergeUpdate(rec schema.Record, data schema.Record) {
	for field, value := range data {
		if compute, ok := value.(Compute); ok {
			rec[field] = compute(rec)
			continue
		}
		rec[field] = value
	}
}
