// Package store implements the flat, in-memory table set behind the quilt
// repositories: one table per entity, each keyed by stringified primary key.
//
// Mutations are synchronous and atomic with respect to a single call. The
// store assumes the single-threaded cooperative execution model of the
// enclosing dispatch layer - there is no locking because there is no
// concurrent access.
package store
