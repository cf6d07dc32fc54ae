package query

import (
	"reflect"

	"github.com/quiltdb/quilt/internal/schema"
)

// Predicate represents one filter condition over records.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern enables exhaustive type switches in the
// evaluator.
//
// Predicate types:
//   - Eq: field equals a literal value
//   - Match: field satisfies a custom test
//   - Satisfies: whole record satisfies a custom test
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Eq matches records whose field equals Value. Numeric values compare by
// magnitude, so JSON-decoded float64 ids match native ints.
type Eq struct {
	Field string
	Value any
}

func (Eq) predicateNode() {}

// Match matches records whose field value passes Fn.
type Match struct {
	Field string
	Fn    func(value any) bool
}

func (Match) predicateNode() {}

// Satisfies matches records passing a whole-record test.
type Satisfies struct {
	Fn func(rec schema.Record) bool
}

func (Satisfies) predicateNode() {}

// eval reports whether rec passes the predicate.
func eval(p Predicate, rec schema.Record) bool {
	switch pred := p.(type) {
	case Eq:
		return equalValues(rec[pred.Field], pred.Value)
	case Match:
		return pred.Fn(rec[pred.Field])
	case Satisfies:
		return pred.Fn(rec)
	default:
		return false
	}
}

// equalValues is equality with numeric coercion: ints, floats, and unsigned
// values of equal magnitude compare equal regardless of Go type.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		return af == bf
	}
	if aNum != bNum {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
