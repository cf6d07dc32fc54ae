// Package repo provides the entity-scoped repository facade over the
// normalizer, the store, and the query engine.
//
// Reads go through immutable Selection values: filters, ordering,
// pagination, relation loading ("with"), and relationship-existence
// predicates (has / hasNot) accumulate by value-copy chaining and execute
// in one pass. Writes normalize nested input, fill schema defaults, and
// route each entity's slice to its own table.
package repo
