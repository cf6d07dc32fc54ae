package repo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quiltdb/quilt/internal/query"
	"github.com/quiltdb/quilt/internal/schema"
)

// loadRelations returns a copy of rec with every requested relation path
// resolved into nested records. Resolution is a recursive descent over
// (record, remaining path segments, related entity schema): a path "a.b"
// loads relation a here, then loads b on a's entity applied to the loaded
// value. Reads are pure projections - the store is never mutated.
func (r *Repository) loadRelations(ent *schema.Entity, rec schema.Record, rels []Relation) (schema.Record, error) {
	out := rec.Clone()
	if len(rels) == 0 {
		return out, nil
	}

	for _, head := range relationHeads(rels) {
		constraints, nested := splitByHead(rels, head)

		f, ok := ent.Field(head)
		if !ok {
			return nil, fmt.Errorf("entity %q has no relation %q", ent.Name, head)
		}

		cfg := query.Config{}
		for _, c := range constraints {
			cfg = c(cfg)
		}

		switch field := f.(type) {
		case schema.HasOne:
			loaded, err := r.loadSingle(field.Entity, cfg.Where(query.Eq{
				Field: field.ForeignKey,
				Value: out[ent.Key()],
			}), nested)
			if err != nil {
				return nil, fmt.Errorf("relation %q: %w", head, err)
			}
			out[head] = anyRecord(loaded)

		case schema.BelongsTo:
			fk := out[field.ForeignKey]
			if fk == nil {
				out[head] = nil
				continue
			}
			related, err := r.reg.Entity(field.Entity)
			if err != nil {
				return nil, fmt.Errorf("relation %q: %w", head, err)
			}
			loaded, err := r.loadSingle(field.Entity, cfg.Where(query.Eq{
				Field: related.Key(),
				Value: fk,
			}), nested)
			if err != nil {
				return nil, fmt.Errorf("relation %q: %w", head, err)
			}
			out[head] = anyRecord(loaded)

		case schema.HasMany:
			loaded, err := r.loadMany(field.Entity, cfg.Where(query.Eq{
				Field: field.ForeignKey,
				Value: out[ent.Key()],
			}), nested)
			if err != nil {
				return nil, fmt.Errorf("relation %q: %w", head, err)
			}
			out[head] = loaded

		case schema.HasManyBy:
			loaded, err := r.loadManyBy(field, out, cfg, nested)
			if err != nil {
				return nil, fmt.Errorf("relation %q: %w", head, err)
			}
			out[head] = loaded

		default:
			return nil, fmt.Errorf("entity %q field %q is not a relation", ent.Name, head)
		}
	}
	return out, nil
}

// loadSingle resolves a single-record relation and recurses into the
// remaining path segments. Returns nil when nothing matches.
func (r *Repository) loadSingle(entity string, cfg query.Config, nested []Relation) (schema.Record, error) {
	related, err := r.reg.Entity(entity)
	if err != nil {
		return nil, err
	}
	table, err := r.store.TableFor(entity)
	if err != nil {
		return nil, err
	}
	found := query.First(table, cfg)
	if found == nil {
		return nil, nil
	}
	return r.loadRelations(related, found, nested)
}

// loadMany resolves a collection relation in canonical order and recurses
// into the remaining path segments for each element.
func (r *Repository) loadMany(entity string, cfg query.Config, nested []Relation) ([]schema.Record, error) {
	related, err := r.reg.Entity(entity)
	if err != nil {
		return nil, err
	}
	table, err := r.store.TableFor(entity)
	if err != nil {
		return nil, err
	}
	matched := query.Run(table, cfg)
	out := make([]schema.Record, 0, len(matched))
	for _, rec := range matched {
		loaded, err := r.loadRelations(related, rec, nested)
		if err != nil {
			return nil, err
		}
		out = append(out, loaded)
	}
	return out, nil
}

// loadManyBy resolves a keyed collection: for each key in the record's key
// array, the first related record whose owner key matches, preserving key
// order. Keys with no match are skipped. A key field that is not a sequence
// is a caller contract violation.
func (r *Repository) loadManyBy(field schema.HasManyBy, rec schema.Record, cfg query.Config, nested []Relation) ([]schema.Record, error) {
	related, err := r.reg.Entity(field.Entity)
	if err != nil {
		return nil, err
	}
	table, err := r.store.TableFor(field.Entity)
	if err != nil {
		return nil, err
	}
	ownerKey := field.OwnerKey
	if ownerKey == "" {
		ownerKey = related.Key()
	}

	var keys []any
	switch ks := rec[field.KeyField].(type) {
	case nil:
		return []schema.Record{}, nil
	case []any:
		keys = ks
	default:
		return nil, fmt.Errorf("key field %q: expected sequence, got %T", field.KeyField, ks)
	}

	out := make([]schema.Record, 0, len(keys))
	for _, key := range keys {
		found := query.First(table, cfg.Where(query.Eq{Field: ownerKey, Value: key}))
		if found == nil {
			continue
		}
		loaded, err := r.loadRelations(related, found, nested)
		if err != nil {
			return nil, err
		}
		out = append(out, loaded)
	}
	return out, nil
}

// relationHeads returns the distinct first path segments in sorted order,
// so load order is deterministic.
func relationHeads(rels []Relation) []string {
	seen := make(map[string]bool)
	var heads []string
	for _, rel := range rels {
		head, _ := splitPath(rel.Path)
		if !seen[head] {
			seen[head] = true
			heads = append(heads, head)
		}
	}
	sort.Strings(heads)
	return heads
}

// splitByHead partitions the relations sharing a head segment into
// constraints terminating at this level and relations descending further.
func splitByHead(rels []Relation, head string) ([]Constraint, []Relation) {
	var constraints []Constraint
	var nested []Relation
	for _, rel := range rels {
		h, rest := splitPath(rel.Path)
		if h != head {
			continue
		}
		if rest == "" {
			if rel.Constraint != nil {
				constraints = append(constraints, rel.Constraint)
			}
			continue
		}
		nested = append(nested, Relation{Path: rest, Constraint: rel.Constraint})
	}
	return constraints, nested
}

func splitPath(path string) (head, rest string) {
	head, rest, _ = strings.Cut(path, ".")
	return head, rest
}

// anyRecord widens a possibly-nil record so a loaded empty relation is a
// plain nil value, not a typed nil inside an interface.
func anyRecord(rec schema.Record) any {
	if rec == nil {
		return nil
	}
	return rec
}
