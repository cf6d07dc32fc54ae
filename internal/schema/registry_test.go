package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register(&Entity{
		Name: "users",
		Fields: Fields{
			"id":   UID{},
			"name": Attr{Default: ""},
		},
	})
	require.NoError(t, err)

	e, err := reg.Entity("users")
	require.NoError(t, err)
	assert.Equal(t, "users", e.Name)
	assert.Equal(t, "id", e.Key(), "primary key defaults to id")
}

func TestRegistry_UnknownEntityFailsFast(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Entity("ghosts")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&Entity{Name: "users", Fields: Fields{}}))

	err := reg.Register(&Entity{Name: "users", Fields: Fields{}})
	assert.Error(t, err, "second registration of the same name must fail")
}

func TestRegistry_CustomPrimaryKey(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&Entity{
		Name:       "settings",
		PrimaryKey: "key",
		Fields:     Fields{"key": Attr{Default: nil}},
	}))

	e, err := reg.Entity("settings")
	require.NoError(t, err)
	assert.Equal(t, "key", e.Key())
}

func TestRegistry_ModelFactory(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&Entity{Name: "users", Fields: Fields{"id": UID{}}}))

	_, err := reg.Model("users")
	assert.ErrorIs(t, err, ErrUnknownModel)

	require.NoError(t, reg.RegisterModel("users", func(rec Record, wrapNested bool) (any, error) {
		return rec["id"], nil
	}))

	f, err := reg.Model("users")
	require.NoError(t, err)
	got, err := f(Record{"id": "u1"}, true)
	require.NoError(t, err)
	assert.Equal(t, "u1", got)
}

func TestRegistry_ModelForUnknownEntity(t *testing.T) {
	reg := NewRegistry()
	err := reg.RegisterModel("ghosts", func(rec Record, wrapNested bool) (any, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestRegistry_ValidateRelationTargets(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&Entity{
		Name: "posts",
		Fields: Fields{
			"id":   UID{},
			"user": BelongsTo{Entity: "users", ForeignKey: "user_id"},
		},
	}))

	err := reg.Validate()
	require.Error(t, err, "posts references unregistered users")
	assert.ErrorIs(t, err, ErrUnknownEntity)

	require.NoError(t, reg.Register(&Entity{Name: "users", Fields: Fields{"id": UID{}}}))
	assert.NoError(t, reg.Validate())
}

func TestRegistry_ValidateRelationInsideGroup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&Entity{
		Name: "articles",
		Fields: Fields{
			"id": UID{},
			"meta": Group{Fields: Fields{
				"editor": BelongsTo{Entity: "users", ForeignKey: "editor_id"},
			}},
		},
	}))

	assert.Error(t, reg.Validate())
}
