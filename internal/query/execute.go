package query

import (
	"sort"

	"github.com/quiltdb/quilt/internal/schema"
	"github.com/quiltdb/quilt/internal/store"
)

// Run executes a query config against one entity table and returns the
// matching records in deterministic order.
//
// Records are filtered in canonical table order, stably sorted by the
// config's sort keys (equal keys keep their table order), then windowed by
// offset and limit. The returned records are the stored records themselves;
// callers who reshape results (e.g. relation loading) must clone first.
func Run(t store.Table, cfg Config) []schema.Record {
	matched := make([]schema.Record, 0, len(t))
	for _, key := range sortedKeys(t) {
		if rec := t[key]; cfg.include(rec) {
			matched = append(matched, rec)
		}
	}

	if len(cfg.orders) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return lessByOrders(matched[i], matched[j], cfg.orders)
		})
	}

	if cfg.offset > 0 {
		if cfg.offset >= len(matched) {
			return nil
		}
		matched = matched[cfg.offset:]
	}
	if cfg.limit > 0 && cfg.limit < len(matched) {
		matched = matched[:cfg.limit]
	}
	return matched
}

// First returns the first record after filter, sort, and offset, or nil
// when nothing matches. Absence is a normal outcome, not an error.
func First(t store.Table, cfg Config) schema.Record {
	results := Run(t, cfg.Limit(1))
	if len(results) == 0 {
		return nil
	}
	return results[0]
}

// FirstByKey is a direct primary-key lookup, bypassing filter and sort.
// Returns nil when the key is absent.
func FirstByKey(t store.Table, key any) schema.Record {
	rec, ok := t[schema.KeyString(key)]
	if !ok {
		return nil
	}
	return rec
}

// Count returns the number of records the config would yield. It never
// pays any wrapping or relation-loading cost.
func Count(t store.Table, cfg Config) int {
	return len(Run(t, cfg))
}

func lessByOrders(a, b schema.Record, orders []Order) bool {
	for _, o := range orders {
		c := compareValues(a[o.Field], b[o.Field])
		if c == 0 {
			continue
		}
		if o.Direction == Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}
