// Package query evaluates filtered, ordered, paginated reads over a single
// entity table.
//
// A query is described by an immutable Config value built up through
// value-receiver chaining; execution is a stateless function over (table,
// config). Nothing here mutates the table - reads are pure projections.
package query
