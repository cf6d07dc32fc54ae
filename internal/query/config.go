package query

import "github.com/quiltdb/quilt/internal/schema"

// Direction orders a sort key ascending or descending.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order is one sort key. Multi-key ordering applies left to right.
type Order struct {
	Field     string
	Direction Direction
}

// Config is an immutable query description: AND-chained predicates,
// OR-chained predicates, sort keys, offset, and limit.
//
// Builder methods take value receivers and return modified copies, so a
// Config can never be shared mutable state across logical requests. The
// zero value matches every record in table order.
type Config struct {
	wheres []Predicate
	ors    []Predicate
	orders []Order
	offset int
	limit  int // 0 means no limit
}

// Where adds an AND-chained predicate.
func (c Config) Where(p Predicate) Config {
	c.wheres = appendCopy(c.wheres, p)
	return c
}

// OrWhere adds an OR-chained predicate. A record is included when all
// AND predicates pass or any OR predicate passes.
func (c Config) OrWhere(p Predicate) Config {
	c.ors = appendCopy(c.ors, p)
	return c
}

// OrderBy appends a sort key. Earlier keys take precedence.
func (c Config) OrderBy(field string, dir Direction) Config {
	c.orders = appendCopy(c.orders, Order{Field: field, Direction: dir})
	return c
}

// Offset skips the first n matches.
func (c Config) Offset(n int) Config {
	if n < 0 {
		n = 0
	}
	c.offset = n
	return c
}

// Limit caps the result count after the offset. Zero or negative means
// unlimited.
func (c Config) Limit(n int) Config {
	if n < 0 {
		n = 0
	}
	c.limit = n
	return c
}

// include applies the filter rule: with no predicates every record passes;
// otherwise a record is included when the (non-empty) AND group fully
// passes, or any OR predicate passes.
func (c Config) include(rec schema.Record) bool {
	if len(c.wheres) == 0 && len(c.ors) == 0 {
		return true
	}
	if len(c.wheres) > 0 {
		pass := true
		for _, p := range c.wheres {
			if !eval(p, rec) {
				pass = false
				break
			}
		}
		if pass {
			return true
		}
	}
	for _, p := range c.ors {
		if eval(p, rec) {
			return true
		}
	}
	return false
}

// appendCopy appends to a fresh slice so sibling configs derived from the
// same parent never share backing arrays.
func appendCopy[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}
