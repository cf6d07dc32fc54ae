// Package compiler turns CUE entity declarations into schema entities.
//
// Declarations live under a top-level "entity" struct, one member per
// entity:
//
//	entity: users: {
//		primaryKey: "id"
//		fields: {
//			id:    {type: "uid"}
//			name:  {type: "attr", default: ""}
//			posts: {type: "hasMany", entity: "posts", foreignKey: "user_id"}
//		}
//	}
//
// Field forms mirror the schema package's field kinds: attr, uid, hasOne,
// belongsTo, hasMany, hasManyBy, group.
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/quiltdb/quilt/internal/schema"
)

// CompileEntities parses every declaration under the top-level "entity"
// struct of a CUE value. Uses CUE SDK's Go API directly (not CLI
// subprocess).
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`entity: users: { ... }`)
//	ents, err := CompileEntities(v)
func CompileEntities(v cue.Value) ([]*schema.Entity, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("entity"))
	if !root.Exists() {
		return nil, &CompileError{
			Field:   "entity",
			Message: "no entity declarations found",
			Pos:     v.Pos(),
		}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var ents []*schema.Entity
	for iter.Next() {
		ent, err := CompileEntity(iter.Value())
		if err != nil {
			return nil, err
		}
		ents = append(ents, ent)
	}
	if len(ents) == 0 {
		return nil, &CompileError{
			Field:   "entity",
			Message: "at least one entity is required",
			Pos:     root.Pos(),
		}
	}
	return ents, nil
}

// CompileEntity parses one entity declaration. The CUE value should be the
// entity struct itself; its name is taken from the struct label.
func CompileEntity(v cue.Value) (*schema.Entity, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	ent := &schema.Entity{}

	// Entity name comes from the struct label (the path selector).
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		ent.Name = labels[len(labels)-1].String()
	}
	if ent.Name == "" {
		return nil, &CompileError{
			Field:   "entity",
			Message: "entity must have a name",
			Pos:     v.Pos(),
		}
	}

	// primaryKey is optional; the schema package defaults it to "id".
	pkVal := v.LookupPath(cue.ParsePath("primaryKey"))
	if pkVal.Exists() {
		pk, err := pkVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		ent.PrimaryKey = pk
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   fmt.Sprintf("entity.%s.fields", ent.Name),
			Message: "fields are required",
			Pos:     v.Pos(),
		}
	}
	fields, err := parseFields(fieldsVal)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, &CompileError{
			Field:   fmt.Sprintf("entity.%s.fields", ent.Name),
			Message: "at least one field is required",
			Pos:     fieldsVal.Pos(),
		}
	}
	ent.Fields = fields

	if _, ok := ent.Fields[ent.Key()]; !ok {
		return nil, &CompileError{
			Field:   fmt.Sprintf("entity.%s", ent.Name),
			Message: fmt.Sprintf("primary key %q is not a declared field", ent.Key()),
			Pos:     v.Pos(),
		}
	}

	return ent, nil
}

// parseFields extracts a field set; groups recurse into nested field sets.
func parseFields(v cue.Value) (schema.Fields, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	fields := make(schema.Fields)
	for iter.Next() {
		name := iter.Label()
		f, err := parseField(name, iter.Value())
		if err != nil {
			return nil, err
		}
		fields[name] = f
	}
	return fields, nil
}

// parseField dispatches on the declared field type.
func parseField(name string, v cue.Value) (schema.Field, error) {
	kind, err := requiredString(name, v, "type")
	if err != nil {
		return nil, err
	}

	switch kind {
	case "attr":
		var def any
		defVal := v.LookupPath(cue.ParsePath("default"))
		if defVal.Exists() {
			if err := defVal.Decode(&def); err != nil {
				return nil, formatCUEError(err)
			}
		}
		return schema.Attr{Default: def}, nil

	case "uid":
		return schema.UID{}, nil

	case "hasOne":
		entity, fk, err := relationPair(name, v)
		if err != nil {
			return nil, err
		}
		return schema.HasOne{Entity: entity, ForeignKey: fk}, nil

	case "belongsTo":
		entity, fk, err := relationPair(name, v)
		if err != nil {
			return nil, err
		}
		return schema.BelongsTo{Entity: entity, ForeignKey: fk}, nil

	case "hasMany":
		entity, fk, err := relationPair(name, v)
		if err != nil {
			return nil, err
		}
		return schema.HasMany{Entity: entity, ForeignKey: fk}, nil

	case "hasManyBy":
		entity, err := requiredString(name, v, "entity")
		if err != nil {
			return nil, err
		}
		keyField, err := requiredString(name, v, "keyField")
		if err != nil {
			return nil, err
		}
		field := schema.HasManyBy{Entity: entity, KeyField: keyField}
		ownerVal := v.LookupPath(cue.ParsePath("ownerKey"))
		if ownerVal.Exists() {
			owner, err := ownerVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			field.OwnerKey = owner
		}
		return field, nil

	case "group":
		nestedVal := v.LookupPath(cue.ParsePath("fields"))
		if !nestedVal.Exists() {
			return nil, &CompileError{
				Field:   name,
				Message: "group requires a nested fields struct",
				Pos:     v.Pos(),
			}
		}
		nested, err := parseFields(nestedVal)
		if err != nil {
			return nil, err
		}
		return schema.Group{Fields: nested}, nil

	default:
		return nil, &CompileError{
			Field:   name,
			Message: fmt.Sprintf("unknown field type %q", kind),
			Pos:     v.Pos(),
		}
	}
}

// relationPair reads the entity/foreignKey pair shared by hasOne,
// belongsTo, and hasMany declarations.
func relationPair(name string, v cue.Value) (entity, foreignKey string, err error) {
	entity, err = requiredString(name, v, "entity")
	if err != nil {
		return "", "", err
	}
	foreignKey, err = requiredString(name, v, "foreignKey")
	if err != nil {
		return "", "", err
	}
	return entity, foreignKey, nil
}

func requiredString(field string, v cue.Value, key string) (string, error) {
	kv := v.LookupPath(cue.ParsePath(key))
	if !kv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s is required", key),
			Pos:     v.Pos(),
		}
	}
	s, err := kv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
