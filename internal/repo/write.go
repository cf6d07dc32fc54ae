package repo

import (
	"sort"

	"go.uber.org/zap"

	"github.com/quiltdb/quilt/internal/normalize"
	"github.com/quiltdb/quilt/internal/schema"
	"github.com/quiltdb/quilt/internal/store"
)

// Create normalizes nested input and replaces the table of every entity
// present in the normalized output. Empty input still issues the
// table-level create for this entity: "create with no data" intentionally
// clears the table rather than doing nothing.
func (r *Repository) Create(data any) error {
	tables, err := r.normalized(data)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		return r.store.Create(r.entity.Name, store.Table{})
	}
	for _, entity := range sortedEntityNames(tables) {
		if err := r.store.Create(entity, tables[entity]); err != nil {
			return err
		}
	}
	return nil
}

// Insert normalizes nested input and upserts each entity's slice into its
// own table. Empty input is a no-op.
func (r *Repository) Insert(data any) error {
	tables, err := r.normalized(data)
	if err != nil {
		return err
	}
	for _, entity := range sortedEntityNames(tables) {
		if err := r.store.Insert(entity, tables[entity]); err != nil {
			return err
		}
	}
	return nil
}

// Update shallow-merges data onto matching records. An explicit target
// wins; otherwise the primary key carried in data selects the record.
// With neither, the call is a documented no-op - callers are expected to
// check intent before calling.
func (r *Repository) Update(data schema.Record, target ...store.UpdateTarget) error {
	var sel store.UpdateTarget
	switch {
	case len(target) > 0:
		sel = target[0]
	default:
		key, ok := data[r.entity.Key()]
		if !ok || key == nil {
			r.log.Debug("update skipped: no condition and no primary key",
				zap.String("entity", r.entity.Name))
			return nil
		}
		sel = store.ByKey{Value: key}
	}
	_, err := r.store.Update(r.entity.Name, data, sel)
	return err
}

// Delete removes every record matching the predicate.
func (r *Repository) Delete(match func(schema.Record) bool) error {
	_, err := r.store.Delete(r.entity.Name, match)
	return err
}

// DeleteByKey removes the record with the given primary key, if present.
func (r *Repository) DeleteByKey(id any) error {
	want := schema.KeyString(id)
	key := r.entity.Key()
	_, err := r.store.Delete(r.entity.Name, func(rec schema.Record) bool {
		v, ok := rec[key]
		return ok && v != nil && schema.KeyString(v) == want
	})
	return err
}

// DeleteAll empties this entity's table.
func (r *Repository) DeleteAll() error {
	return r.store.DeleteAll(r.entity.Name)
}

// normalized flattens input and fills schema defaults on every record of
// every entity slice, so stored records always carry the complete field
// set.
func (r *Repository) normalized(data any) (map[string]store.Table, error) {
	tables, err := normalize.Normalize(r.reg, r.entity.Name, data)
	if err != nil {
		return nil, err
	}
	for entity, table := range tables {
		ent, err := r.reg.Entity(entity)
		if err != nil {
			return nil, err
		}
		for key, rec := range table {
			table[key] = schema.FillDefaults(r.reg, ent, rec)
		}
	}
	return tables, nil
}

func sortedEntityNames(tables map[string]store.Table) []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
