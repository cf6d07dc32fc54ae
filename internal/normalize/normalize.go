// Package normalize flattens nested, relationally-structured input into
// independent per-entity tables linked by foreign keys.
//
// Traversal is depth-first and schema-guided: nested relationship values are
// pulled out into their own entity's table and replaced by foreign keys on
// the owning side of each relation. Stored records never embed sub-records.
package normalize

import (
	"fmt"
	"sort"

	"github.com/quiltdb/quilt/internal/schema"
	"github.com/quiltdb/quilt/internal/store"
)

// Normalize converts raw nested input for one entity into a mapping of
// entity name to table. Input is a single record map or a sequence of them.
//
// Records from the same and related entities merge into one output mapping;
// a later record replaces an earlier one at the same key. An empty input
// object yields an empty mapping, which the repository turns into a
// table-level clear on create.
func Normalize(reg *schema.Registry, entity string, data any) (map[string]store.Table, error) {
	out := make(map[string]store.Table)
	ent, err := reg.Entity(entity)
	if err != nil {
		return nil, err
	}

	switch raw := data.(type) {
	case nil:
		return out, nil
	case map[string]any:
		if len(raw) == 0 {
			return out, nil
		}
		if _, err := normalizeRecord(reg, ent, raw, out); err != nil {
			return nil, err
		}
	case schema.Record:
		return Normalize(reg, entity, map[string]any(raw))
	case []map[string]any:
		for i, item := range raw {
			if _, err := normalizeRecord(reg, ent, item, out); err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
		}
	case []any:
		for i, item := range raw {
			rec, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("element %d: expected object, got %T", i, item)
			}
			if _, err := normalizeRecord(reg, ent, rec, out); err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
		}
	default:
		return nil, fmt.Errorf("normalize %s: unsupported input type %T", entity, data)
	}
	return out, nil
}

// normalizeRecord flattens one raw record, writes it into out under its
// entity, and returns the record's primary-key value.
func normalizeRecord(reg *schema.Registry, ent *schema.Entity, raw map[string]any, out map[string]store.Table) (any, error) {
	pk, err := resolveKey(reg, ent, raw)
	if err != nil {
		return nil, err
	}

	rec := schema.Record{ent.Key(): pk}
	if err := normalizeFields(reg, ent, ent.Fields, ent.Key(), raw, rec, pk, out); err != nil {
		return nil, fmt.Errorf("%s[%s]: %w", ent.Name, schema.KeyString(pk), err)
	}

	table, ok := out[ent.Name]
	if !ok {
		table = make(store.Table)
		out[ent.Name] = table
	}
	table[schema.KeyString(pk)] = rec
	return pk, nil
}

// normalizeFields walks one level of raw input guided by a field set. For
// groups it recurses without changing entity context, so relations inside
// embedded attribute groups still resolve against the enclosing record.
func normalizeFields(reg *schema.Registry, ent *schema.Entity, fields schema.Fields, skipKey string, raw map[string]any, rec schema.Record, pk any, out map[string]store.Table) error {
	for _, name := range sortedFieldNames(raw) {
		if name == skipKey {
			continue // primary key already resolved
		}
		value := raw[name]

		f, declared := fields[name]
		if !declared {
			rec[name] = value
			continue
		}

		switch field := f.(type) {
		case schema.Attr, schema.UID:
			rec[name] = value

		case schema.BelongsTo:
			childKey, err := normalizeSingle(reg, field.Entity, name, value, "", nil, out)
			if err != nil {
				return err
			}
			if childKey != nil {
				rec[field.ForeignKey] = childKey
			}

		case schema.HasOne:
			if _, err := normalizeSingle(reg, field.Entity, name, value, field.ForeignKey, pk, out); err != nil {
				return err
			}

		case schema.HasMany:
			if err := normalizeMany(reg, field.Entity, name, value, field.ForeignKey, pk, out); err != nil {
				return err
			}

		case schema.HasManyBy:
			keys, err := normalizeManyBy(reg, field, name, value, out)
			if err != nil {
				return err
			}
			rec[field.KeyField] = keys

		case schema.Group:
			nested, ok := value.(map[string]any)
			if !ok {
				if value == nil {
					rec[name] = nil
					continue
				}
				return fmt.Errorf("field %q: expected object for attribute group, got %T", name, value)
			}
			nestedRec := schema.Record{}
			if err := normalizeFields(reg, ent, field.Fields, "", nested, nestedRec, pk, out); err != nil {
				return err
			}
			rec[name] = map[string]any(nestedRec)
		}
	}
	return nil
}

// normalizeSingle normalizes one nested related object. When backFK is
// non-empty the child's foreign key is back-filled with the parent key if
// the input omitted it. Returns the child's primary key, or nil for a nil
// value.
func normalizeSingle(reg *schema.Registry, entity, fieldName string, value any, backFK string, parentKey any, out map[string]store.Table) (any, error) {
	if value == nil {
		return nil, nil
	}
	nested, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("field %q: expected object for relation, got %T", fieldName, value)
	}

	related, err := reg.Entity(entity)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", fieldName, err)
	}

	if backFK != "" {
		if _, present := nested[backFK]; !present {
			nested = withField(nested, backFK, parentKey)
		}
	}
	return normalizeRecord(reg, related, nested, out)
}

// normalizeMany normalizes a nested collection, back-filling each child's
// foreign key with the parent key. Non-sequence input is a caller contract
// violation and propagates as an error.
func normalizeMany(reg *schema.Registry, entity, fieldName string, value any, backFK string, parentKey any, out map[string]store.Table) error {
	if value == nil {
		return nil
	}
	items, err := asSequence(fieldName, value)
	if err != nil {
		return err
	}
	for i, item := range items {
		if _, err := normalizeSingle(reg, entity, fieldName, item, backFK, parentKey, out); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// normalizeManyBy normalizes a keyed collection and returns the array of
// owner-key values the parent record keeps. Elements that are already plain
// keys pass through unchanged.
func normalizeManyBy(reg *schema.Registry, field schema.HasManyBy, fieldName string, value any, out map[string]store.Table) ([]any, error) {
	if value == nil {
		return []any{}, nil
	}
	items, err := asSequence(fieldName, value)
	if err != nil {
		return nil, err
	}

	related, err := reg.Entity(field.Entity)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", fieldName, err)
	}
	ownerKey := field.OwnerKey
	if ownerKey == "" {
		ownerKey = related.Key()
	}

	keys := make([]any, 0, len(items))
	for i, item := range items {
		nested, ok := item.(map[string]any)
		if !ok {
			keys = append(keys, item) // already a key
			continue
		}
		childKey, err := normalizeRecord(reg, related, nested, out)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		key, present := nested[ownerKey]
		if !present && ownerKey == related.Key() {
			key, present = childKey, true // key was generated during normalization
		}
		if !present || key == nil {
			return nil, fmt.Errorf("element %d: missing owner key %q", i, ownerKey)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// resolveKey determines the primary-key value of a raw record before its
// relations are walked: the input value if present, else the schema default
// (generated for UID attributes). A record with no derivable key is
// malformed input.
func resolveKey(reg *schema.Registry, ent *schema.Entity, raw map[string]any) (any, error) {
	if v, ok := raw[ent.Key()]; ok && v != nil {
		return v, nil
	}
	switch f := ent.Fields[ent.Key()].(type) {
	case schema.UID:
		return reg.NewID(), nil
	case schema.Attr:
		if f.Default != nil {
			return f.Default, nil
		}
	}
	return nil, fmt.Errorf("%s: record is missing primary key %q", ent.Name, ent.Key())
}

func asSequence(fieldName string, value any) ([]any, error) {
	switch items := value.(type) {
	case []any:
		return items, nil
	case []map[string]any:
		out := make([]any, len(items))
		for i, m := range items {
			out[i] = m
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %q: expected sequence, got %T", fieldName, value)
	}
}

func withField(m map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = value
	return out
}

func sortedFieldNames(raw map[string]any) []string {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
