package query

import (
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/quiltdb/quilt/internal/store"
)

// collator provides locale-neutral, deterministic string ordering.
// Collation (rather than byte order) keeps results stable across key
// encodings and mixed-case data.
var collator = collate.New(language.Und)

// sortedKeys returns a table's primary keys in canonical order: numeric
// comparison when both keys parse as integers, collation otherwise. This is
// the deterministic base iteration order for all query execution.
func sortedKeys(t store.Table) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return compareKeys(keys[i], keys[j]) < 0
	})
	return keys
}

func compareKeys(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	if aErr == nil && bErr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}
	return collator.CompareString(a, b)
}

// compareValues orders arbitrary field values for sort keys: nil first,
// numbers by magnitude, booleans false-first, strings by collation, anything
// else by its printed form.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}

	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			default:
				return 1
			}
		}
	}

	as, aIsString := a.(string)
	bs, bIsString := b.(string)
	if !aIsString {
		as = fmt.Sprint(a)
	}
	if !bIsString {
		bs = fmt.Sprint(b)
	}
	return collator.CompareString(as, bs)
}
