package schema

import (
	"fmt"
	"math"
	"strconv"
)

// Record is a flat field-name to value mapping conforming to an entity
// schema. Stored records hold only scalars, embedded attribute groups, and
// foreign keys (single value or array of keys) - never nested sub-records.
type Record map[string]any

// Clone returns a copy of the record deep enough that mutating the copy
// (including nested group maps and key arrays) never touches the original.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = cloneValue(e)
		}
		return out
	case Record:
		return map[string]any(val.Clone())
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// KeyString canonicalizes a primary key value into its table key.
//
// Integral floats render without a decimal point so JSON-decoded ids
// (float64) and native ints produce the same table key.
func KeyString(v any) string {
	switch key := v.(type) {
	case string:
		return key
	case int:
		return strconv.Itoa(key)
	case int32:
		return strconv.FormatInt(int64(key), 10)
	case int64:
		return strconv.FormatInt(key, 10)
	case uint64:
		return strconv.FormatUint(key, 10)
	case float32:
		return KeyString(float64(key))
	case float64:
		if key == math.Trunc(key) && !math.IsInf(key, 0) {
			return strconv.FormatInt(int64(key), 10)
		}
		return strconv.FormatFloat(key, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(key)
	default:
		return fmt.Sprint(v)
	}
}
