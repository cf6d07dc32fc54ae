package schema

// Field describes one declared field of an entity schema.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern enables exhaustive type switches in the
// normalizer, the default filler, and the relation loader.
//
// Field kinds:
//   - Attr: plain attribute with a declared default value
//   - UID: attribute whose default is a generated unique id
//   - HasOne: single related record, foreign key on the related table
//   - BelongsTo: single related record, foreign key on this table
//   - HasMany: collection of related records, foreign key on the related table
//   - HasManyBy: collection referenced by an array of keys on this record
//   - Group: embedded sub-schema (structured attribute, same entity context)
type Field interface {
	fieldKind() // Marker method - seals interface to this package
}

// Fields maps field names to their descriptors for one entity (or group).
type Fields map[string]Field

// Attr is a plain attribute. Default is assigned when the field is missing
// from an incoming record. Slice and map defaults are copied on assignment
// so records never alias the schema's default value.
type Attr struct {
	Default any
}

func (Attr) fieldKind() {}

// UID is an attribute whose missing value is filled with a generated
// unique id. Generation goes through the registry's IDGenerator so tests
// can substitute a deterministic sequence.
type UID struct{}

func (UID) fieldKind() {}

// HasOne declares a single related record owned by the related table.
//
// Resolution: first record of Entity whose ForeignKey equals this record's
// primary key.
type HasOne struct {
	Entity     string // related entity name
	ForeignKey string // field on the related table pointing back here
}

func (HasOne) fieldKind() {}

// BelongsTo declares a single related record referenced by a foreign key
// stored on this record.
//
// Resolution: record of Entity whose primary key equals this record's
// ForeignKey field value.
type BelongsTo struct {
	Entity     string // related entity name
	ForeignKey string // field on this table holding the related key
}

func (BelongsTo) fieldKind() {}

// HasMany declares a collection of related records owned by the related
// table.
//
// Resolution: every record of Entity whose ForeignKey equals this record's
// primary key.
type HasMany struct {
	Entity     string // related entity name
	ForeignKey string // field on the related table pointing back here
}

func (HasMany) fieldKind() {}

// HasManyBy declares a collection of related records referenced by an array
// of keys stored on this record.
//
// Resolution: for each key in this record's KeyField array, the first record
// of Entity whose OwnerKey equals that key, preserving key order.
type HasManyBy struct {
	Entity   string // related entity name
	KeyField string // field on this table holding the array of keys
	OwnerKey string // field on the related table matched against each key
}

func (HasManyBy) fieldKind() {}

// Group embeds a sub-schema of descriptors under a single field. Groups may
// nest and may contain relationship declarations; relations inside a group
// resolve against the enclosing record's primary key.
type Group struct {
	Fields Fields
}

func (Group) fieldKind() {}
