package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiltdb/quilt/internal/schema"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	reg.MustRegister(&schema.Entity{
		Name: "users",
		Fields: schema.Fields{
			"id":   schema.UID{},
			"name": schema.Attr{Default: ""},
			"age":  schema.Attr{Default: 0},
		},
	})
	return reg
}

func TestStore_UnknownEntity(t *testing.T) {
	s := New(testRegistry(t))

	_, err := s.TableFor("ghosts")
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrUnknownEntity)

	err = s.Create("ghosts", Table{})
	assert.ErrorIs(t, err, schema.ErrUnknownEntity)
}

func TestStore_CreateReplacesTable(t *testing.T) {
	s := New(testRegistry(t))

	require.NoError(t, s.Create("users", Table{
		"1": {"id": 1, "name": "ada"},
	}))
	require.NoError(t, s.Create("users", Table{
		"2": {"id": 2, "name": "grace"},
	}))

	tbl, err := s.TableFor("users")
	require.NoError(t, err)
	assert.Len(t, tbl, 1)
	assert.Contains(t, tbl, "2")
	assert.NotContains(t, tbl, "1", "create replaces, never merges")
}

func TestStore_CreateWithEmptyMapClears(t *testing.T) {
	s := New(testRegistry(t))
	require.NoError(t, s.Insert("users", Table{"1": {"id": 1}}))

	require.NoError(t, s.Create("users", Table{}))

	n, err := s.Size("users")
	require.NoError(t, err)
	assert.Zero(t, n, "create with no data empties the table")
}

func TestStore_InsertUpsertsWholeRecords(t *testing.T) {
	s := New(testRegistry(t))

	require.NoError(t, s.Insert("users", Table{
		"1": {"id": 1, "name": "ada", "age": 36},
	}))
	require.NoError(t, s.Insert("users", Table{
		"1": {"id": 1, "name": "ada lovelace"},
		"2": {"id": 2, "name": "grace"},
	}))

	tbl, err := s.TableFor("users")
	require.NoError(t, err)
	require.Len(t, tbl, 2)
	assert.Equal(t, "ada lovelace", tbl["1"]["name"])
	_, hasAge := tbl["1"]["age"]
	assert.False(t, hasAge, "insert replaces the record at the key, not a field merge")
}

func TestStore_InsertIdempotent(t *testing.T) {
	s := New(testRegistry(t))
	records := Table{
		"1": {"id": 1, "name": "ada"},
		"2": {"id": 2, "name": "grace"},
	}

	require.NoError(t, s.Insert("users", records))
	once, err := s.TableFor("users")
	require.NoError(t, err)
	snapshot := once.Clone()

	require.NoError(t, s.Insert("users", records))
	twice, err := s.TableFor("users")
	require.NoError(t, err)

	assert.Equal(t, snapshot, twice, "inserting identical data twice equals inserting once")
}

func TestStore_UpdateByKey(t *testing.T) {
	s := New(testRegistry(t))
	require.NoError(t, s.Insert("users", Table{
		"1": {"id": 1, "name": "ada", "age": 36},
	}))

	n, err := s.Update("users", schema.Record{"name": "countess"}, ByKey{Value: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tbl, _ := s.TableFor("users")
	assert.Equal(t, "countess", tbl["1"]["name"])
	assert.Equal(t, 36, tbl["1"]["age"], "update shallow-merges, unspecified fields survive")
}

func TestStore_UpdateByKeyMissingIsNoop(t *testing.T) {
	s := New(testRegistry(t))

	n, err := s.Update("users", schema.Record{"name": "nobody"}, ByKey{Value: 99})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_UpdateMatching(t *testing.T) {
	s := New(testRegistry(t))
	require.NoError(t, s.Insert("users", Table{
		"1": {"id": 1, "age": 20},
		"2": {"id": 2, "age": 30},
		"3": {"id": 3, "age": 40},
	}))

	n, err := s.Update("users", schema.Record{"age": 0}, Matching{
		Predicate: func(r schema.Record) bool { return r["age"].(int) >= 30 },
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tbl, _ := s.TableFor("users")
	assert.Equal(t, 20, tbl["1"]["age"])
	assert.Equal(t, 0, tbl["2"]["age"])
	assert.Equal(t, 0, tbl["3"]["age"])
}

func TestStore_UpdateWithComputedField(t *testing.T) {
	s := New(testRegistry(t))
	require.NoError(t, s.Insert("users", Table{
		"1": {"id": 1, "age": 20},
	}))

	_, err := s.Update("users", schema.Record{
		"age": Compute(func(old schema.Record) any { return old["age"].(int) + 1 }),
	}, ByKey{Value: 1})
	require.NoError(t, err)

	tbl, _ := s.TableFor("users")
	assert.Equal(t, 21, tbl["1"]["age"], "closure computes new value from the old record")
}

func TestStore_Delete(t *testing.T) {
	s := New(testRegistry(t))
	require.NoError(t, s.Insert("users", Table{
		"1": {"id": 1, "age": 20},
		"2": {"id": 2, "age": 30},
	}))

	n, err := s.Delete("users", func(r schema.Record) bool { return r["age"].(int) > 25 })
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tbl, _ := s.TableFor("users")
	assert.Contains(t, tbl, "1")
	assert.NotContains(t, tbl, "2")
}

func TestStore_DeleteAllAndReset(t *testing.T) {
	s := New(testRegistry(t))
	require.NoError(t, s.Insert("users", Table{"1": {"id": 1}}))

	require.NoError(t, s.DeleteAll("users"))
	n, err := s.Size("users")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Insert("users", Table{"1": {"id": 1}}))
	s.Reset()
	n, err = s.Size("users")
	require.NoError(t, err)
	assert.Zero(t, n)
}
