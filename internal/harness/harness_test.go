package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiltdb/quilt/internal/schema"
)

func TestRun_BlogScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/blog_with_user.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Count)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "Alpha", result.Records[0]["title"])
	assert.Equal(t, "Beta", result.Records[1]["title"])

	user, ok := result.Records[0]["user"].(schema.Record)
	require.True(t, ok, "eager-loaded relation embeds the related record")
	assert.Equal(t, "Ana", user["name"])
}

func TestRun_UnknownQueryEntity(t *testing.T) {
	_, err := Run(&Scenario{
		Name:    "bad-entity",
		Schemas: []string{"testdata/schemas/blog.cue"},
		Query:   QuerySpec{Entity: "articles"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query entity")
}

func TestRun_GeneratedIDsAreDeterministic(t *testing.T) {
	scenario := &Scenario{
		Name:     "generated-ids",
		Schemas:  []string{"testdata/schemas/blog.cue"},
		IDPrefix: "seed",
		Seed: map[string][]map[string]any{
			"users": {{"name": "Zed"}},
		},
		Query: QuerySpec{Entity: "users"},
	}

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	require.Len(t, first.Records, 1)
	assert.Equal(t, "seed-1", first.Records[0]["id"])
	assert.Equal(t, first.Records, second.Records)
}

func TestRun_OffsetAndLimit(t *testing.T) {
	scenario := &Scenario{
		Name:    "window",
		Schemas: []string{"testdata/schemas/blog.cue"},
		Seed: map[string][]map[string]any{
			"posts": {
				{"id": "p1", "title": "a"},
				{"id": "p2", "title": "b"},
				{"id": "p3", "title": "c"},
			},
		},
		Query: QuerySpec{Entity: "posts", Offset: 1, Limit: 1},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "p2", result.Records[0]["id"])
	assert.Equal(t, 1, result.Count)
}

func TestRun_OrWhere(t *testing.T) {
	scenario := &Scenario{
		Name:    "or-where",
		Schemas: []string{"testdata/schemas/blog.cue"},
		Seed: map[string][]map[string]any{
			"posts": {
				{"id": "p1", "title": "a", "published": true},
				{"id": "p2", "title": "b"},
				{"id": "p3", "title": "c"},
			},
		},
		Query: QuerySpec{
			Entity:  "posts",
			Where:   map[string]any{"published": true},
			OrWhere: map[string]any{"title": "c"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "p1", result.Records[0]["id"])
	assert.Equal(t, "p3", result.Records[1]["id"])
}
