// Package schema defines the entity schema model for the quilt store.
//
// An entity is a named record type with its own table. Its schema is a map
// of field names to field descriptors: plain attributes with defaults,
// generated-id attributes, relationship declarations (has-one, belongs-to,
// has-many, has-many-by), and embedded attribute groups.
//
// The Registry is an explicit, injected lookup object - there is no
// process-global registry. Repositories, the normalizer, and the store all
// receive the registry they operate against.
package schema
