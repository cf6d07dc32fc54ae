package schema

import "sort"

// FillDefaults returns a copy of rec with every schema field present.
//
// Missing fields are assigned:
//   - Attr: the declared default (slices and maps copied)
//   - UID: a generated id from the registry's IDGenerator
//   - HasOne / BelongsTo: nil
//   - HasMany / HasManyBy: an empty sequence
//   - Group: a recursively filled nested map
//
// Fields present in rec are kept as-is, except groups, which merge defaults
// into the existing nested map. Fields not declared in the schema pass
// through untouched.
func FillDefaults(reg *Registry, e *Entity, rec Record) Record {
	out := rec.Clone()
	if out == nil {
		out = Record{}
	}
	fillFields(reg, e.Fields, out)
	return out
}

func fillFields(reg *Registry, fields Fields, rec Record) {
	// Deterministic field order so generated ids are reproducible under a
	// sequential test generator.
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		switch f := fields[name].(type) {
		case Attr:
			if _, ok := rec[name]; !ok {
				rec[name] = cloneValue(f.Default)
			}
		case UID:
			if v, ok := rec[name]; !ok || v == nil {
				rec[name] = reg.NewID()
			}
		case HasOne:
			if _, ok := rec[name]; !ok {
				rec[name] = nil
			}
		case BelongsTo:
			if _, ok := rec[name]; !ok {
				rec[name] = nil
			}
		case HasMany:
			if _, ok := rec[name]; !ok {
				rec[name] = []any{}
			}
		case HasManyBy:
			if _, ok := rec[name]; !ok {
				rec[name] = []any{}
			}
			if _, ok := rec[f.KeyField]; !ok {
				rec[f.KeyField] = []any{}
			}
		case Group:
			nested, ok := rec[name].(map[string]any)
			if !ok {
				nested = map[string]any{}
			}
			fillFields(reg, f.Fields, Record(nested))
			rec[name] = nested
		}
	}
}
