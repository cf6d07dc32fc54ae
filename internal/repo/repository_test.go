package repo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiltdb/quilt/internal/schema"
	"github.com/quiltdb/quilt/internal/store"
	"github.com/quiltdb/quilt/internal/testutil"
)

// blogWorld registers a schema exercising every relationship kind and
// returns an empty store for it.
func blogWorld(t *testing.T) (*schema.Registry, *store.Store) {
	t.Helper()
	reg := schema.NewRegistry(schema.WithIDGenerator(testutil.NewSequentialIDs("gen")))

	reg.MustRegister(&schema.Entity{
		Name: "users",
		Fields: schema.Fields{
			"id":      schema.UID{},
			"name":    schema.Attr{Default: ""},
			"role":    schema.Attr{Default: "member"},
			"posts":   schema.HasMany{Entity: "posts", ForeignKey: "user_id"},
			"profile": schema.HasOne{Entity: "profiles", ForeignKey: "user_id"},
		},
	})
	reg.MustRegister(&schema.Entity{
		Name: "profiles",
		Fields: schema.Fields{
			"id":      schema.UID{},
			"bio":     schema.Attr{Default: ""},
			"user_id": schema.Attr{Default: nil},
		},
	})
	reg.MustRegister(&schema.Entity{
		Name: "posts",
		Fields: schema.Fields{
			"id":        schema.UID{},
			"title":     schema.Attr{Default: ""},
			"published": schema.Attr{Default: false},
			"user_id":   schema.Attr{Default: nil},
			"user":      schema.BelongsTo{Entity: "users", ForeignKey: "user_id"},
			"comments":  schema.HasMany{Entity: "comments", ForeignKey: "post_id"},
			"tags":      schema.HasManyBy{Entity: "tags", KeyField: "tag_ids"},
		},
	})
	reg.MustRegister(&schema.Entity{
		Name: "comments",
		Fields: schema.Fields{
			"id":      schema.UID{},
			"body":    schema.Attr{Default: ""},
			"post_id": schema.Attr{Default: nil},
		},
	})
	reg.MustRegister(&schema.Entity{
		Name: "tags",
		Fields: schema.Fields{
			"id":    schema.UID{},
			"label": schema.Attr{Default: ""},
		},
	})
	require.NoError(t, reg.Validate())

	return reg, store.New(reg)
}

func mustRepo(t *testing.T, reg *schema.Registry, st *store.Store, entity string) *Repository {
	t.Helper()
	r, err := New(reg, st, entity)
	require.NoError(t, err)
	return r
}

// seedBlog creates one author with two posts (one carrying comments and
// tags) plus a second user with no data attached.
func seedBlog(t *testing.T, reg *schema.Registry, st *store.Store) {
	t.Helper()
	users := mustRepo(t, reg, st, "users")
	require.NoError(t, users.Create([]map[string]any{
		{
			"id":   "u1",
			"name": "Ana",
			"role": "admin",
			"profile": map[string]any{
				"id":  "pr1",
				"bio": "writes about storage",
			},
			"posts": []any{
				map[string]any{
					"id":        "p1",
					"title":     "Hello",
					"published": true,
					"comments": []any{
						map[string]any{"id": "c1", "body": "first"},
						map[string]any{"id": "c2", "body": "second"},
					},
					"tags": []any{
						map[string]any{"id": "t2", "label": "go"},
						map[string]any{"id": "t1", "label": "orm"},
					},
				},
				map[string]any{
					"id":    "p2",
					"title": "Drafts",
				},
			},
		},
		{"id": "u2", "name": "Bo"},
	}))
}

func TestNew_UnknownEntityFailsFast(t *testing.T) {
	reg, st := blogWorld(t)

	_, err := New(reg, st, "articles")
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrUnknownEntity))
}

func TestAll_ReturnsCanonicalOrder(t *testing.T) {
	reg, st := blogWorld(t)
	seedBlog(t, reg, st)

	posts := mustRepo(t, reg, st, "posts")
	all, err := posts.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "p1", all[0]["id"])
	assert.Equal(t, "p2", all[1]["id"])
}

func TestFind_ReturnsNilWhenAbsent(t *testing.T) {
	reg, st := blogWorld(t)
	seedBlog(t, reg, st)

	users := mustRepo(t, reg, st, "users")
	got, err := users.Find("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCount(t *testing.T) {
	reg, st := blogWorld(t)
	seedBlog(t, reg, st)

	comments := mustRepo(t, reg, st, "comments")
	n, err := comments.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
