package schema

// DefaultPrimaryKey is the primary key field name used when an entity
// declaration does not override it.
const DefaultPrimaryKey = "id"

// Entity describes one named record type: its primary key field and its
// field schema. Entities are fixed at registration time and never mutated
// at runtime.
type Entity struct {
	Name       string
	PrimaryKey string // empty means DefaultPrimaryKey
	Fields     Fields
}

// Key returns the entity's primary key field name.
func (e *Entity) Key() string {
	if e.PrimaryKey == "" {
		return DefaultPrimaryKey
	}
	return e.PrimaryKey
}

// Field looks up a field descriptor by name.
func (e *Entity) Field(name string) (Field, bool) {
	f, ok := e.Fields[name]
	return f, ok
}

// KeyOf extracts the stringified primary key of rec, reporting whether the
// record carries a non-nil key value.
func (e *Entity) KeyOf(rec Record) (string, bool) {
	v, ok := rec[e.Key()]
	if !ok || v == nil {
		return "", false
	}
	return KeyString(v), true
}
